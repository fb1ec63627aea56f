package snapshot

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"cashbook/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "cashbook.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mirrorTx(id string, ms int64, amountCents int64, in bool, category string) core.Transaction {
	return core.Transaction{
		TransactionID: id,
		Category:      category,
		ReceiverName:  "Vendor",
		SenderName:    "Payer",
		Amount:        core.Money{Cents: amountCents},
		AmountIn:      in,
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldTransactionDate, FieldValue: strconv.FormatInt(ms, 10), FieldValueType: core.FieldTypeString},
		},
	}
}

func TestStoreTransactionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txs := []core.Transaction{
		mirrorTx("t1", 1_000, 25050, false, "Bill"),
		mirrorTx("t2", 2_000, 10000, true, "Loan"),
		mirrorTx("t3", 3_000, 5000, false, "Shopping"),
	}
	if err := store.RecordTransactions(ctx, txs); err != nil {
		t.Fatalf("RecordTransactions: %v", err)
	}

	got, err := store.FetchTransactions(ctx, 1_000, 2_000)
	if err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	if got[0].TransactionID != "t2" || got[1].TransactionID != "t1" {
		t.Fatalf("order = [%s %s], want newest first", got[0].TransactionID, got[1].TransactionID)
	}
	if got[1].Amount.Cents != 25050 {
		t.Fatalf("amount = %d, want 25050", got[1].Amount.Cents)
	}
	if ms, ok := got[1].Timestamp(); !ok || ms != 1_000 {
		t.Fatalf("timestamp = (%d, %v), want (1000, true)", ms, ok)
	}
}

func TestStoreUpsertReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordTransactions(ctx, []core.Transaction{mirrorTx("t1", 1_000, 100, false, "Bill")}); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := store.RecordTransactions(ctx, []core.Transaction{mirrorTx("t1", 1_000, 200, false, "Shopping")}); err != nil {
		t.Fatalf("second record: %v", err)
	}

	got, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d transactions, want 1 after upsert", len(got))
	}
	if got[0].Amount.Cents != 200 || got[0].Category != "Shopping" {
		t.Fatalf("upserted row = %+v", got[0])
	}
}

func TestStoreTransactionsByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordTransactions(ctx, []core.Transaction{
		mirrorTx("t1", 1_000, 100, false, "Bill"),
		mirrorTx("t2", 2_000, 200, false, "Shopping"),
	}); err != nil {
		t.Fatalf("RecordTransactions: %v", err)
	}

	got, err := store.TransactionsByCategory(ctx, "Bill")
	if err != nil {
		t.Fatalf("TransactionsByCategory: %v", err)
	}
	if len(got) != 1 || got[0].TransactionID != "t1" {
		t.Fatalf("got %+v, want only t1", got)
	}
}

func TestStoreFinancialStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordTransactions(ctx, []core.Transaction{
		mirrorTx("in", 1_000, 150000, true, "Loan"),
		mirrorTx("out1", 2_000, 60000, false, "Bill"),
		mirrorTx("out2", 3_000, 40000, false, "Shopping"),
	}); err != nil {
		t.Fatalf("RecordTransactions: %v", err)
	}

	stats, err := store.FinancialStats(ctx, 0, 10_000)
	if err != nil {
		t.Fatalf("FinancialStats: %v", err)
	}
	if stats.TotalIncome.Cents != 150000 || stats.TotalExpenses.Cents != 100000 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Balance.Cents != 50000 {
		t.Fatalf("balance = %d, want 50000", stats.Balance.Cents)
	}

	breakdown, err := store.CategoryPercentages(ctx, 0, 10_000)
	if err != nil {
		t.Fatalf("CategoryPercentages: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("breakdown rows = %d, want 2", len(breakdown))
	}
	if breakdown[0].Category != "Bill" || breakdown[0].Percentage != 60 {
		t.Fatalf("top category = %+v, want Bill at 60%%", breakdown[0])
	}
}

func TestStoreEventRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	evs := []core.CalendarEvent{
		{
			EventID:           "e1",
			EventName:         "Rent",
			EventDate:         5_000,
			AllowNotification: true,
			CustomFields: []core.CustomField{
				{FieldKey: core.FieldEventTime, FieldValue: "5000", FieldValueType: core.FieldTypeString},
			},
		},
		{EventID: "e2", EventName: "EMI", EventDate: 9_000, EventCompleted: true},
	}
	if err := store.RecordEvents(ctx, evs); err != nil {
		t.Fatalf("RecordEvents: %v", err)
	}

	got, err := store.EventsByDateRange(ctx, 0, 10_000)
	if err != nil {
		t.Fatalf("EventsByDateRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].EventID != "e1" || !got[0].AllowNotification {
		t.Fatalf("first event = %+v", got[0])
	}
	if ms, ok := got[0].EventTimeMs(); !ok || ms != 5_000 {
		t.Fatalf("eventTime field = (%d, %v), want (5000, true)", ms, ok)
	}

	counts, err := store.EventStatusCounts(ctx, 0, 10_000)
	if err != nil {
		t.Fatalf("EventStatusCounts: %v", err)
	}
	if counts.Completed != 1 || counts.Pending != 1 {
		t.Fatalf("counts = %+v, want 1 completed 1 pending", counts)
	}
}
