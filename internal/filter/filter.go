// Package filter narrows and orders in-memory lists of transactions
// and events by their associated instant. Bounds are inclusive at day
// granularity; ordering is newest first and stable for equal keys.
package filter

import (
	"sort"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

// Transactions returns the subset whose timestamp falls inside
// [start.startOfDay, end.endOfDay] in loc, sorted descending by
// timestamp. Records without a parseable timestamp are dropped.
// Input order is preserved for equal timestamps.
func Transactions(txs []core.Transaction, start, end time.Time, loc *time.Location) []core.Transaction {
	lo := timeutil.StartOfDay(start, loc).UnixMilli()
	hi := timeutil.EndOfDay(end, loc).UnixMilli()

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		ms, ok := tx.Timestamp()
		if !ok {
			continue
		}
		if ms >= lo && ms <= hi {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Timestamp()
		b, _ := out[j].Timestamp()
		return a > b
	})
	return out
}

// SortTransactionsDesc orders a list newest first without filtering.
// Sorting an already sorted list is a no-op.
func SortTransactionsDesc(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Timestamp()
		b, _ := out[j].Timestamp()
		return a > b
	})
	return out
}

// Events returns the events whose resolved instant falls inside
// [start.startOfDay, end.endOfDay] in loc, newest first.
func Events(evs []core.CalendarEvent, start, end time.Time, loc *time.Location) []core.CalendarEvent {
	lo := timeutil.StartOfDay(start, loc).UnixMilli()
	hi := timeutil.EndOfDay(end, loc).UnixMilli()

	out := make([]core.CalendarEvent, 0, len(evs))
	for _, ev := range evs {
		ms, _ := ev.ResolvedTime()
		if ms >= lo && ms <= hi {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].ResolvedTime()
		b, _ := out[j].ResolvedTime()
		return a > b
	})
	return out
}

// EventsOnDay returns the events whose resolved instant falls on the
// calendar day of t in loc, in input order. Used by the month view to
// mark days carrying events.
func EventsOnDay(evs []core.CalendarEvent, t time.Time, loc *time.Location) []core.CalendarEvent {
	day := timeutil.StartOfDay(t, loc)
	var out []core.CalendarEvent
	for _, ev := range evs {
		ms, _ := ev.ResolvedTime()
		if timeutil.StartOfDay(timeutil.FromEpochMs(ms, loc), loc).Equal(day) {
			out = append(out, ev)
		}
	}
	return out
}
