package controller

import (
	"context"
	"sync"

	"cashbook/internal/core"
)

// StatusUpdater flips an event's completion flag on the backend.
type StatusUpdater interface {
	UpdateEventStatus(ctx context.Context, eventID string, completed bool) error
}

// StatusToggler serializes completion toggles. A toggle to the state
// the event is already in is a no-op, and a second toggle for an
// event whose request is still in flight is dropped rather than
// queued, so rapid repeated clicks cannot race each other.
type StatusToggler struct {
	api StatusUpdater

	// onApplied, when set, runs after a successful update so the
	// owning screen can re-fetch.
	onApplied func(ctx context.Context)

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewStatusToggler(api StatusUpdater, onApplied func(ctx context.Context)) *StatusToggler {
	return &StatusToggler{
		api:       api,
		onApplied: onApplied,
		inFlight:  make(map[string]bool),
	}
}

// Toggle moves ev to the target completion state. It reports whether
// a request was actually sent.
func (t *StatusToggler) Toggle(ctx context.Context, ev core.CalendarEvent, completed bool) (bool, error) {
	if ev.EventCompleted == completed {
		return false, nil
	}

	t.mu.Lock()
	if t.inFlight[ev.EventID] {
		t.mu.Unlock()
		return false, nil
	}
	t.inFlight[ev.EventID] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inFlight, ev.EventID)
		t.mu.Unlock()
	}()

	if err := t.api.UpdateEventStatus(ctx, ev.EventID, completed); err != nil {
		return false, err
	}
	if t.onApplied != nil {
		t.onApplied(ctx)
	}
	return true, nil
}
