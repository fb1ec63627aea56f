package source

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"cashbook/internal/config"
	"cashbook/internal/core"
	"cashbook/internal/snapshot"
)

type fakeReader struct {
	txs []core.Transaction
	evs []core.CalendarEvent
}

func (f *fakeReader) FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReader) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReader) TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReader) Categories(ctx context.Context) ([]string, error) {
	return core.Categories, nil
}

func (f *fakeReader) FinancialStats(ctx context.Context, startMs, endMs int64) (core.FinancialStats, error) {
	return core.FinancialStats{}, nil
}

func (f *fakeReader) CategoryPercentages(ctx context.Context, startMs, endMs int64) ([]core.CategoryPercentage, error) {
	return nil, nil
}

func (f *fakeReader) EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error) {
	return f.evs, nil
}

func (f *fakeReader) EventStatusCounts(ctx context.Context, startMs, endMs int64) (core.EventStatusCounts, error) {
	return core.EventStatusCounts{}, nil
}

func TestMirrorRecordsSuccessfulReads(t *testing.T) {
	store, err := snapshot.NewStore(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	live := &fakeReader{
		txs: []core.Transaction{{
			TransactionID: "t1",
			Category:      "Bill",
			Amount:        core.Money{Cents: 5000},
			CustomFields: []core.CustomField{
				{FieldKey: core.FieldTransactionDate, FieldValue: strconv.Itoa(1_000), FieldValueType: core.FieldTypeString},
			},
		}},
		evs: []core.CalendarEvent{{EventID: "e1", EventName: "Rent", EventDate: 2_000}},
	}
	mirror := NewMirror(live, store)
	ctx := context.Background()

	if _, err := mirror.FetchTransactions(ctx, 0, 10_000); err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	if _, err := mirror.EventsByDateRange(ctx, 0, 10_000); err != nil {
		t.Fatalf("EventsByDateRange: %v", err)
	}

	// Served offline from the mirror afterwards.
	txs, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("store.ListTransactions: %v", err)
	}
	if len(txs) != 1 || txs[0].TransactionID != "t1" {
		t.Fatalf("mirrored transactions = %+v", txs)
	}
	evs, err := store.EventsByDateRange(ctx, 0, 10_000)
	if err != nil {
		t.Fatalf("store.EventsByDateRange: %v", err)
	}
	if len(evs) != 1 || evs[0].EventID != "e1" {
		t.Fatalf("mirrored events = %+v", evs)
	}
}

func TestFactoryRejectsUnknownSource(t *testing.T) {
	f := NewFactory(nil)
	cfg := &config.Config{DataSource: "carrier-pigeon"}
	if _, err := f.Create(cfg); err == nil {
		t.Fatal("Create succeeded with unknown data source")
	}
}

func TestFactorySnapshotSource(t *testing.T) {
	f := NewFactory(nil)
	cfg := &config.Config{
		DataSource:     "snapshot",
		SnapshotDBPath: filepath.Join(t.TempDir(), "offline.db"),
	}
	result, err := f.Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer result.Cleanup()

	if _, err := result.Reader.ListTransactions(context.Background()); err != nil {
		t.Fatalf("ListTransactions on empty snapshot: %v", err)
	}
}
