package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cashbook/internal/cache"
	"cashbook/internal/core"
	"cashbook/internal/filter"
	"cashbook/internal/timeutil"
)

const (
	monthCacheSize = 12
	monthCacheTTL  = 5 * time.Minute
)

// EventAPI is the slice of the backend the calendar screen needs.
type EventAPI interface {
	MonthEvents(ctx context.Context, startMs, endMs int64) []core.CalendarEvent
	AddEvent(ctx context.Context, draft core.EventDraft) (core.CalendarEvent, error)
	UpdateEvent(ctx context.Context, eventID string, update core.EventUpdate) (core.CalendarEvent, error)
	BulkDeleteEvents(ctx context.Context, eventIDs []string) (core.BulkDeleteResult, error)
}

// Calendar drives the month view: events for the visible month, a
// small cache of recently viewed months, and the mutations that
// invalidate it.
type Calendar struct {
	api  EventAPI
	zone *time.Location

	gate loadGate

	mu      sync.Mutex
	phase   Phase
	year    int
	month   time.Month
	events  []core.CalendarEvent
	warning string
	months  *cache.LRUCache[[]core.CalendarEvent]
}

func NewCalendar(api EventAPI, zone *time.Location) *Calendar {
	now := time.Now().In(zone)
	return &Calendar{
		api:    api,
		zone:   zone,
		phase:  PhaseIdle,
		year:   now.Year(),
		month:  now.Month(),
		months: cache.NewLRUCache[[]core.CalendarEvent](monthCacheSize, monthCacheTTL),
	}
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// LoadMonth makes the given month current and loads its events,
// serving from the month cache when possible. The fetch itself never
// fails; an unreachable backend yields an empty month.
func (c *Calendar) LoadMonth(ctx context.Context, year int, month time.Month) {
	c.mu.Lock()
	token := c.gate.begin()
	c.phase = PhaseLoading
	c.year = year
	c.month = month
	if cached, ok := c.months.Get(monthKey(year, month)); ok {
		c.events = cached
		c.phase = PhaseSuccess
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	first := time.Date(year, month, 1, 0, 0, 0, 0, c.zone)
	last := first.AddDate(0, 1, -1)
	events := c.api.MonthEvents(ctx, timeutil.EpochMs(first), timeutil.EpochMs(timeutil.EndOfDay(last, c.zone)))

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gate.latest(token) {
		return
	}
	c.months.Set(monthKey(year, month), events)
	c.events = events
	c.phase = PhaseSuccess
}

// AddEvent creates an event, then drops the month cache and reloads
// the current month so the new entry appears with its server-assigned
// identity.
func (c *Calendar) AddEvent(ctx context.Context, draft core.EventDraft) (core.CalendarEvent, error) {
	created, err := c.api.AddEvent(ctx, draft)
	if err != nil {
		return core.CalendarEvent{}, err
	}
	c.reloadCurrent(ctx)
	return created, nil
}

// UpdateEvent edits an event and reloads the current month.
func (c *Calendar) UpdateEvent(ctx context.Context, eventID string, update core.EventUpdate) (core.CalendarEvent, error) {
	updated, err := c.api.UpdateEvent(ctx, eventID, update)
	if err != nil {
		return core.CalendarEvent{}, err
	}
	c.reloadCurrent(ctx)
	return updated, nil
}

// DeleteEvents removes the given events in one request and reconciles
// the visible month with the per-id outcome: successes disappear,
// failures stay, and a warning reports how many could not be deleted.
func (c *Calendar) DeleteEvents(ctx context.Context, eventIDs []string) (core.BulkDeleteResult, error) {
	result, err := c.api.BulkDeleteEvents(ctx, eventIDs)
	if err != nil {
		return core.BulkDeleteResult{}, err
	}

	deleted := make(map[string]bool, len(result.SuccessList))
	for _, id := range result.SuccessList {
		deleted[id] = true
	}

	c.mu.Lock()
	kept := c.events[:0]
	for _, ev := range c.events {
		if !deleted[ev.EventID] {
			kept = append(kept, ev)
		}
	}
	c.events = kept
	if n := len(result.FailureList); n > 0 {
		c.warning = fmt.Sprintf("failed to delete %d events", n)
	} else {
		c.warning = ""
	}
	c.months.Purge()
	c.mu.Unlock()
	return result, nil
}

func (c *Calendar) reloadCurrent(ctx context.Context) {
	c.mu.Lock()
	year, month := c.year, c.month
	c.months.Purge()
	c.mu.Unlock()
	c.LoadMonth(ctx, year, month)
}

// Events returns the current month's events.
func (c *Calendar) Events() []core.CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.CalendarEvent, len(c.events))
	copy(out, c.events)
	return out
}

// EventsOn returns the events falling on the given day.
func (c *Calendar) EventsOn(day time.Time) []core.CalendarEvent {
	c.mu.Lock()
	events := make([]core.CalendarEvent, len(c.events))
	copy(events, c.events)
	c.mu.Unlock()
	return filter.EventsOnDay(events, day, c.zone)
}

func (c *Calendar) Month() (int, time.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year, c.month
}

func (c *Calendar) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Warning returns the message left by the last partial failure, if any.
func (c *Calendar) Warning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warning
}
