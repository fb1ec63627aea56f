package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

type fakeEventLister struct {
	events []core.CalendarEvent
	err    error
}

func (f *fakeEventLister) EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*amqp.ReminderMessage
	err       error
}

func (f *fakePublisher) PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) eventIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.published))
	for i, m := range f.published {
		ids[i] = m.EventID
	}
	return ids
}

func reminderEvent(id string, at time.Time, completed, notify bool) core.CalendarEvent {
	ms := timeutil.EpochMs(at)
	return core.CalendarEvent{
		EventID:           id,
		EventName:         "Event " + id,
		EventDate:         ms,
		EventCompleted:    completed,
		AllowNotification: notify,
		UserID:            "user123",
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldEventTime, FieldValue: strconv.FormatInt(ms, 10), FieldValueType: core.FieldTypeString},
		},
	}
}

func newTestWorker(t *testing.T, events *fakeEventLister, pub *fakePublisher, now time.Time) *ReminderWorker {
	t.Helper()
	zone, err := timeutil.LoadZone("")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	w := NewReminderWorker(events, pub, zone, 15*time.Minute)
	w.now = func() time.Time { return now }
	return w
}

func TestScanPublishesDueEvents(t *testing.T) {
	zone, _ := timeutil.LoadZone("")
	now := time.Date(2024, time.June, 14, 12, 0, 0, 0, zone)

	events := &fakeEventLister{events: []core.CalendarEvent{
		reminderEvent("past", now.Add(-time.Hour), false, true),
		reminderEvent("soon", now.Add(10*time.Minute), false, true), // inside lead time
		reminderEvent("later", now.Add(3*time.Hour), false, true),
		reminderEvent("done", now.Add(-time.Hour), true, true),
		reminderEvent("muted", now.Add(-time.Hour), false, false),
	}}
	pub := &fakePublisher{}
	w := newTestWorker(t, events, pub, now)

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	ids := pub.eventIDs()
	if len(ids) != 2 {
		t.Fatalf("published = %v, want [past soon]", ids)
	}
	if ids[0] != "past" || ids[1] != "soon" {
		t.Fatalf("published = %v, want [past soon]", ids)
	}
}

func TestScanPublishesEachEventOnce(t *testing.T) {
	zone, _ := timeutil.LoadZone("")
	now := time.Date(2024, time.June, 14, 12, 0, 0, 0, zone)

	events := &fakeEventLister{events: []core.CalendarEvent{
		reminderEvent("due", now.Add(-time.Minute), false, true),
	}}
	pub := &fakePublisher{}
	w := newTestWorker(t, events, pub, now)

	for i := 0; i < 3; i++ {
		if err := w.Scan(context.Background()); err != nil {
			t.Fatalf("Scan %d: %v", i, err)
		}
	}
	if got := len(pub.eventIDs()); got != 1 {
		t.Fatalf("published %d times, want 1", got)
	}
}

func TestScanKeepsRetryingFailedPublishes(t *testing.T) {
	zone, _ := timeutil.LoadZone("")
	now := time.Date(2024, time.June, 14, 12, 0, 0, 0, zone)

	events := &fakeEventLister{events: []core.CalendarEvent{
		reminderEvent("due", now.Add(-time.Minute), false, true),
	}}
	pub := &fakePublisher{err: errors.New("broker down")}
	w := newTestWorker(t, events, pub, now)

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// The broker recovers; the event was not marked published.
	pub.err = nil
	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if got := len(pub.eventIDs()); got != 1 {
		t.Fatalf("published %d times, want 1 after recovery", got)
	}
}

func TestScanPropagatesListError(t *testing.T) {
	zone, _ := timeutil.LoadZone("")
	now := time.Date(2024, time.June, 14, 12, 0, 0, 0, zone)

	events := &fakeEventLister{err: errors.New("backend down")}
	pub := &fakePublisher{}
	w := newTestWorker(t, events, pub, now)

	if err := w.Scan(context.Background()); err == nil {
		t.Fatal("Scan succeeded, want error")
	}
}
