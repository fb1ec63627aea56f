// Package timeutil normalizes between user-facing calendar values and
// the epoch-millisecond instants the backend stores. All conversions
// run in one fixed display timezone (Asia/Kolkata by default) so that
// a date picked anywhere renders and persists identically.
package timeutil

import (
	"fmt"
	"time"
)

// DefaultZoneName is the fixed display timezone used when the
// configuration does not override it.
const DefaultZoneName = "Asia/Kolkata"

// Display formats matching what users see in the transaction list.
const (
	DateLayout = "02-Jan-2006" // DD-MMM-YYYY
	TimeLayout = "03:04 PM"    // hh:mm A
)

// LoadZone resolves a timezone name, falling back to the fixed default
// when empty.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// EpochMs converts an instant to epoch milliseconds.
func EpochMs(t time.Time) int64 {
	return t.UnixMilli()
}

// FromEpochMs converts epoch milliseconds to an instant in loc.
func FromEpochMs(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's day in loc, the inclusive upper
// bound the backend expects for day-granularity range queries.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// CombineDateTime overlays the hour and minute of tod onto the
// start-of-day of date, both interpreted in loc. This is how a
// separately picked event date and time become one instant.
func CombineDateTime(date, tod time.Time, loc *time.Location) time.Time {
	d := StartOfDay(date, loc)
	tod = tod.In(loc)
	return d.Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute)
}

// FormatDate renders an epoch-ms instant as DD-MMM-YYYY in loc.
func FormatDate(ms int64, loc *time.Location) string {
	return FromEpochMs(ms, loc).Format(DateLayout)
}

// FormatTime renders an epoch-ms instant as hh:mm A in loc.
func FormatTime(ms int64, loc *time.Location) string {
	return FromEpochMs(ms, loc).Format(TimeLayout)
}

// FormatRange renders a day range as "02-Jan-2006 > 05-Jan-2006".
func FormatRange(start, end time.Time) string {
	return start.Format(DateLayout) + " > " + end.Format(DateLayout)
}

// View selects how wide a browsing window is.
type View string

const (
	ViewDaily   View = "Daily"
	ViewWeekly  View = "Weekly"
	ViewMonthly View = "Monthly"
	ViewYearly  View = "Yearly"
)

// RangeForView returns the [start, end] day bounds containing t for the
// given view. Weeks start on Monday. Unknown views collapse to the
// single day of t.
func RangeForView(t time.Time, v View, loc *time.Location) (start, end time.Time) {
	t = t.In(loc)
	switch v {
	case ViewWeekly:
		wd := int(t.Weekday())
		if wd == 0 { // Sunday
			wd = 7
		}
		start = StartOfDay(t.AddDate(0, 0, 1-wd), loc)
		end = start.AddDate(0, 0, 6)
		return start, end
	case ViewMonthly:
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, -1)
		return start, end
	case ViewYearly:
		start = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
		end = time.Date(t.Year(), 12, 31, 0, 0, 0, 0, loc)
		return start, end
	default:
		d := StartOfDay(t, loc)
		return d, d
	}
}

// Next steps t forward by one view width.
func Next(t time.Time, v View) time.Time {
	switch v {
	case ViewWeekly:
		return t.AddDate(0, 0, 7)
	case ViewMonthly:
		return t.AddDate(0, 1, 0)
	case ViewYearly:
		return t.AddDate(1, 0, 0)
	case ViewDaily:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}

// Previous steps t back by one view width.
func Previous(t time.Time, v View) time.Time {
	switch v {
	case ViewWeekly:
		return t.AddDate(0, 0, -7)
	case ViewMonthly:
		return t.AddDate(0, -1, 0)
	case ViewYearly:
		return t.AddDate(-1, 0, 0)
	case ViewDaily:
		return t.AddDate(0, 0, -1)
	default:
		return t
	}
}
