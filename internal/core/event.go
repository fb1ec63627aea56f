package core

import (
	"strconv"
	"strings"
	"time"
)

// CalendarEvent is a dated reminder as the backend returns it. The
// instant lives twice on the wire: eventDate carries it as a number,
// and an eventTime custom field duplicates it as a stringified epoch.
// ResolvedTime reconciles the two on read.
type CalendarEvent struct {
	EventID             string        `json:"eventId"`
	EventName           string        `json:"eventName"`
	EventDate           int64         `json:"eventDate"`
	CustomFields        []CustomField `json:"customFields"`
	UserID              string        `json:"userId,omitempty"`
	AllowNotification   bool          `json:"allowNotification"`
	AllowToSeeThisEvent bool          `json:"allowToSeeThisEvent"`
	EventCompleted      bool          `json:"eventCompleted"`
}

// EventTimeMs returns the epoch milliseconds stored in the eventTime
// custom field, if present and parseable.
func (e CalendarEvent) EventTimeMs() (int64, bool) {
	for _, f := range e.CustomFields {
		if f.FieldKey != FieldEventTime {
			continue
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(f.FieldValue), 10, 64)
		if err != nil {
			return 0, false
		}
		return ms, true
	}
	return 0, false
}

// ResolvedTime returns the single instant for the event and whether the
// two wire encodings agreed. The eventTime custom field wins a mismatch
// since it is the finer-grained of the pair; callers log disagreements.
func (e CalendarEvent) ResolvedTime() (ms int64, consistent bool) {
	ft, ok := e.EventTimeMs()
	if !ok {
		return e.EventDate, true
	}
	return ft, ft == e.EventDate
}

// EventDraft carries the add-event form values: a picked calendar date
// and a separately picked time of day, combined by the transport layer
// in the fixed timezone.
type EventDraft struct {
	Name                string
	Date                time.Time
	Time                time.Time
	AllowNotification   bool
	AllowToSeeThisEvent bool
}

func (d EventDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrMissingEventName
	}
	if d.Date.IsZero() || d.Time.IsZero() {
		return ErrMissingEventTime
	}
	return nil
}

// EventUpdate is the full-update payload for an existing event.
type EventUpdate struct {
	Name   string
	DateMs int64
	TimeMs int64
}

func (u EventUpdate) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrMissingEventName
	}
	if u.DateMs <= 0 || u.TimeMs <= 0 {
		return ErrMissingEventTime
	}
	return nil
}
