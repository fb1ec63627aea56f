package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

// addEventRequest uses the create-side wire names; reads come back
// with the shorter ones on core.CalendarEvent. The backend is not
// consistent between the two and the client tolerates both.
type addEventRequest struct {
	EventName             string             `json:"eventName"`
	EventDate             int64              `json:"eventDate"`
	CustomFields          []core.CustomField `json:"customFields"`
	IsAllowNotification   bool               `json:"isAllowNotification"`
	IsAllowToSeeThisEvent bool               `json:"isAllowToSeeThisEvent"`
	IsEventCompleted      bool               `json:"isEventCompleted"`
}

type updateEventRequest struct {
	EventID             string             `json:"eventId"`
	EventName           string             `json:"eventName"`
	EventDate           int64              `json:"eventDate"`
	CustomFields        []core.CustomField `json:"customFields"`
	UserID              string             `json:"userId"`
	AllowNotification   bool               `json:"allowNotification"`
	AllowToSeeThisEvent bool               `json:"allowToSeeThisEvent"`
	EventCompleted      bool               `json:"eventCompleted"`
}

// AddEvent combines the draft's separately picked date and time into
// one instant in the fixed timezone: start-of-day of the date with the
// time's hour and minute overlaid. The same instant is duplicated into
// the eventTime custom field, which is what the backend contract
// requires even though it mirrors eventDate.
func (c *Client) AddEvent(ctx context.Context, d core.EventDraft) (core.CalendarEvent, error) {
	if err := d.Validate(); err != nil {
		return core.CalendarEvent{}, err
	}

	combined := timeutil.CombineDateTime(d.Date, d.Time, c.zone)
	ms := timeutil.EpochMs(combined)

	req := addEventRequest{
		EventName: d.Name,
		EventDate: ms,
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldEventTime, FieldValue: strconv.FormatInt(ms, 10), FieldValueType: core.FieldTypeString},
		},
		IsAllowNotification:   d.AllowNotification,
		IsAllowToSeeThisEvent: d.AllowToSeeThisEvent,
		IsEventCompleted:      false,
	}

	var created core.CalendarEvent
	if err := c.do(ctx, http.MethodPost, "/events", nil, req, &created, scopeEvents); err != nil {
		return core.CalendarEvent{}, fmt.Errorf("add event: %w", err)
	}
	c.checkEventConsistency(ctx, &created)
	return created, nil
}

// MonthEvents lists events inside the window. This is the one read
// that degrades to an empty list on failure: the month grid renders
// without indicators rather than erroring the whole calendar.
func (c *Client) MonthEvents(ctx context.Context, startMs, endMs int64) []core.CalendarEvent {
	var evs []core.CalendarEvent
	if err := c.do(ctx, http.MethodGet, "/events", rangeQuery(startMs, endMs), nil, &evs, scopeEvents); err != nil {
		slog.ErrorContext(ctx, "Month events fetch failed, degrading to empty",
			"error", err, "start_ms", startMs, "end_ms", endMs)
		return nil
	}
	for i := range evs {
		c.checkEventConsistency(ctx, &evs[i])
	}
	return evs
}

// EventsByDateRange lists the events of a window, typically one day.
func (c *Client) EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error) {
	var evs []core.CalendarEvent
	if err := c.do(ctx, http.MethodGet, "/events/events-date-wise", rangeQuery(startMs, endMs), nil, &evs, scopeEvents); err != nil {
		return nil, fmt.Errorf("fetch events by date range: %w", err)
	}
	for i := range evs {
		c.checkEventConsistency(ctx, &evs[i])
	}
	return evs, nil
}

// UpdateEvent replaces an event's name, date and time.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, u core.EventUpdate) (core.CalendarEvent, error) {
	if err := u.Validate(); err != nil {
		return core.CalendarEvent{}, err
	}

	req := updateEventRequest{
		EventID:   eventID,
		EventName: u.Name,
		EventDate: u.DateMs,
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldEventTime, FieldValue: strconv.FormatInt(u.TimeMs, 10), FieldValueType: core.FieldTypeString},
		},
		UserID: c.userID,
	}

	var updated core.CalendarEvent
	if err := c.do(ctx, http.MethodPatch, "/events/"+url.PathEscape(eventID), nil, req, &updated, scopeEvents); err != nil {
		return core.CalendarEvent{}, fmt.Errorf("update event %s: %w", eventID, err)
	}
	c.checkEventConsistency(ctx, &updated)
	return updated, nil
}

// UpdateEventStatus toggles completion. The target travels as a query
// parameter; the narrow endpoint touches nothing else on the event.
func (c *Client) UpdateEventStatus(ctx context.Context, eventID string, completed bool) error {
	q := url.Values{}
	q.Set("status", strconv.FormatBool(completed))
	if err := c.do(ctx, http.MethodPatch, "/events/"+url.PathEscape(eventID)+"/status", q, nil, nil, scopeEvents); err != nil {
		return fmt.Errorf("update event %s status: %w", eventID, err)
	}
	return nil
}

// BulkDeleteEvents deletes events by id. Partial failure is a normal
// outcome: the result separates deleted ids from failed ones and the
// caller reconciles local state accordingly.
func (c *Client) BulkDeleteEvents(ctx context.Context, ids []string) (core.BulkDeleteResult, error) {
	var res core.BulkDeleteResult
	if err := c.do(ctx, http.MethodDelete, "/events/bulk", nil, ids, &res, scopeEvents); err != nil {
		return core.BulkDeleteResult{}, fmt.Errorf("bulk delete events: %w", err)
	}
	return res, nil
}

// EventStatusCounts returns completed/pending counts for the window.
func (c *Client) EventStatusCounts(ctx context.Context, startMs, endMs int64) (core.EventStatusCounts, error) {
	var counts core.EventStatusCounts
	if err := c.do(ctx, http.MethodGet, "/events/status", rangeQuery(startMs, endMs), nil, &counts, scopeEvents); err != nil {
		return core.EventStatusCounts{}, fmt.Errorf("fetch event status counts: %w", err)
	}
	return counts, nil
}

// checkEventConsistency is the read-path invariant check on the
// duplicated time encoding: when eventDate and the eventTime custom
// field disagree, the custom field wins and the mismatch is logged.
func (c *Client) checkEventConsistency(ctx context.Context, ev *core.CalendarEvent) {
	ms, consistent := ev.ResolvedTime()
	if !consistent {
		slog.WarnContext(ctx, "Event time fields disagree, trusting eventTime",
			"event_id", ev.EventID,
			"event_date_ms", ev.EventDate,
			"event_time_ms", ms)
		ev.EventDate = ms
	}
}
