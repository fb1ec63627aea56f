// Package worker runs the background reminder scanner: it polls the
// day's calendar events and publishes a message for each one whose
// time has arrived, so a notification consumer can alert the user even
// when no screen is open.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

// EventLister fetches the events overlapping an epoch-ms window.
type EventLister interface {
	EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error)
}

// Publisher sends a reminder message to the queue.
type Publisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// ReminderWorker scans for due events on an interval. Each event is
// published at most once per process lifetime; completed events and
// events that opted out of notifications are never published.
type ReminderWorker struct {
	events    EventLister
	publisher Publisher
	zone      *time.Location

	// leadTime publishes this far before the event's instant.
	leadTime time.Duration

	// published tracks event ids already sent this run.
	published map[string]bool

	now func() time.Time
}

func NewReminderWorker(events EventLister, publisher Publisher, zone *time.Location, leadTime time.Duration) *ReminderWorker {
	return &ReminderWorker{
		events:    events,
		publisher: publisher,
		zone:      zone,
		leadTime:  leadTime,
		published: make(map[string]bool),
		now:       time.Now,
	}
}

// Run scans on the given interval until the context is cancelled.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Reminder worker started",
		"interval", interval,
		"lead_time", w.leadTime)

	// First scan immediately rather than waiting a full interval.
	if err := w.Scan(ctx); err != nil {
		slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
			}
		}
	}
}

// Scan fetches today's events and publishes the ones that are due.
func (w *ReminderWorker) Scan(ctx context.Context) error {
	now := w.now().In(w.zone)
	startMs := timeutil.EpochMs(timeutil.StartOfDay(now, w.zone))
	endMs := timeutil.EpochMs(timeutil.EndOfDay(now, w.zone))

	events, err := w.events.EventsByDateRange(ctx, startMs, endMs)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	due := 0
	for _, ev := range events {
		if !w.shouldPublish(ev, now) {
			continue
		}
		ms, _ := ev.ResolvedTime()
		msg := amqp.NewReminderMessage(ev.EventID, ev.EventName, ev.UserID, ms)
		if err := w.publisher.PublishReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"event_id", ev.EventID,
				"error", err)
			continue
		}
		w.published[ev.EventID] = true
		due++
	}

	slog.DebugContext(ctx, "Reminder scan completed",
		"events", len(events),
		"published", due)
	return nil
}

func (w *ReminderWorker) shouldPublish(ev core.CalendarEvent, now time.Time) bool {
	if ev.EventCompleted || !ev.AllowNotification {
		return false
	}
	if w.published[ev.EventID] {
		return false
	}
	ms, _ := ev.ResolvedTime()
	due := timeutil.FromEpochMs(ms, w.zone)
	return !now.Before(due.Add(-w.leadTime))
}
