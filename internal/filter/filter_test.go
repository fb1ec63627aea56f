package filter

import (
	"strconv"
	"testing"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

func tx(id string, ms int64) core.Transaction {
	return core.Transaction{
		TransactionID: id,
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldLastActivity, FieldValue: strconv.FormatInt(ms, 10), FieldValueType: core.FieldTypeString},
		},
	}
}

func TestTransactionsBounds(t *testing.T) {
	loc, err := timeutil.LoadZone("")
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, loc)

	inLow := timeutil.StartOfDay(start, loc).UnixMilli()       // first ms of the window
	inHigh := timeutil.EndOfDay(end, loc).UnixMilli()          // last ms of the window
	before := inLow - 1
	after := inHigh + 1

	input := []core.Transaction{
		tx("before", before),
		tx("low", inLow),
		tx("mid", time.Date(2024, 6, 15, 12, 0, 0, 0, loc).UnixMilli()),
		tx("high", inHigh),
		tx("after", after),
		{TransactionID: "no-ts"},
	}

	got := Transactions(input, start, end, loc)
	if len(got) != 3 {
		t.Fatalf("filtered %d transactions, want 3", len(got))
	}
	lo := timeutil.StartOfDay(start, loc).UnixMilli()
	hi := timeutil.EndOfDay(end, loc).UnixMilli()
	for _, tr := range got {
		ms, ok := tr.Timestamp()
		if !ok || ms < lo || ms > hi {
			t.Errorf("transaction %s outside bounds: %d", tr.TransactionID, ms)
		}
	}
	// Newest first.
	if got[0].TransactionID != "high" || got[2].TransactionID != "low" {
		t.Fatalf("order = [%s %s %s]", got[0].TransactionID, got[1].TransactionID, got[2].TransactionID)
	}
}

func TestSortDescIdempotentAndStable(t *testing.T) {
	input := []core.Transaction{
		tx("a", 100),
		tx("b", 300),
		tx("c", 200),
		tx("d", 200), // ties with c, must keep input order
	}

	once := SortTransactionsDesc(input)
	twice := SortTransactionsDesc(once)
	for i := range once {
		if once[i].TransactionID != twice[i].TransactionID {
			t.Fatalf("sort not idempotent at %d: %s != %s", i, once[i].TransactionID, twice[i].TransactionID)
		}
	}

	wantOrder := []string{"b", "c", "d", "a"}
	for i, id := range wantOrder {
		if once[i].TransactionID != id {
			t.Fatalf("order[%d] = %s, want %s", i, once[i].TransactionID, id)
		}
	}
}

func TestEventsOnDay(t *testing.T) {
	loc, err := timeutil.LoadZone("")
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	evs := []core.CalendarEvent{
		{EventID: "morning", EventDate: time.Date(2024, 6, 1, 9, 0, 0, 0, loc).UnixMilli()},
		{EventID: "night", EventDate: time.Date(2024, 6, 1, 23, 30, 0, 0, loc).UnixMilli()},
		{EventID: "nextday", EventDate: time.Date(2024, 6, 2, 0, 0, 0, 0, loc).UnixMilli()},
	}

	got := EventsOnDay(evs, day, loc)
	if len(got) != 2 {
		t.Fatalf("EventsOnDay found %d events, want 2", len(got))
	}
	if got[0].EventID != "morning" || got[1].EventID != "night" {
		t.Fatalf("wrong events: %s, %s", got[0].EventID, got[1].EventID)
	}
}
