package controller

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := timeutil.LoadZone("")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func cents(units int64) core.Money {
	return core.Money{Cents: units * 100}
}

func txAt(id string, ms int64, amount core.Money, in bool) core.Transaction {
	return core.Transaction{
		TransactionID: id,
		Category:      "Bill",
		ReceiverName:  "Vendor",
		SenderName:    "Payer",
		Amount:        amount,
		AmountIn:      in,
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldLastActivity, FieldValue: strconv.FormatInt(ms, 10), FieldValueType: core.FieldTypeString},
		},
	}
}

type fakeTransactionAPI struct {
	mu      sync.Mutex
	fetches int
	pages   [][]core.Transaction
	err     error
	created []core.TransactionDraft

	// firstFetchGate, when set, blocks the first fetch until closed.
	firstFetchGate chan struct{}
}

func (f *fakeTransactionAPI) FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error) {
	f.mu.Lock()
	n := f.fetches
	f.fetches++
	gate := f.firstFetchGate
	f.mu.Unlock()

	if n == 0 && gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pages) == 0 {
		return nil, nil
	}
	idx := n
	if idx >= len(f.pages) {
		idx = len(f.pages) - 1
	}
	return f.pages[idx], nil
}

func (f *fakeTransactionAPI) CreateTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, draft)
	return core.Transaction{TransactionID: "tx-created", Category: draft.Category, Amount: draft.Amount}, nil
}

func (f *fakeTransactionAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestCashBookRangeFiltersAndSorts(t *testing.T) {
	loc := kolkata(t)
	// June 2024 in the display zone.
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, time.June, 30, 0, 0, 0, 0, loc)

	older := timeutil.EpochMs(time.Date(2024, time.June, 1, 10, 0, 0, 0, loc))
	newer := timeutil.EpochMs(time.Date(2024, time.June, 10, 12, 0, 0, 0, loc))
	outside := timeutil.EpochMs(time.Date(2024, time.May, 31, 23, 0, 0, 0, loc))

	api := &fakeTransactionAPI{pages: [][]core.Transaction{{
		txAt("older", older, cents(100), false),
		txAt("outside", outside, cents(50), false),
		txAt("newer", newer, cents(200), true),
	}}}
	cb := NewCashBook(api, api, loc)

	if err := cb.SetRange(context.Background(), start, end); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	if got := cb.Phase(); got != PhaseSuccess {
		t.Fatalf("phase = %v, want success", got)
	}

	txs := cb.Transactions()
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].TransactionID != "newer" || txs[1].TransactionID != "older" {
		t.Fatalf("order = [%s %s], want [newer older]", txs[0].TransactionID, txs[1].TransactionID)
	}
}

func TestCashBookStaleResponseDiscarded(t *testing.T) {
	loc := kolkata(t)
	day := time.Date(2024, time.June, 5, 0, 0, 0, 0, loc)
	at := timeutil.EpochMs(time.Date(2024, time.June, 5, 9, 0, 0, 0, loc))

	api := &fakeTransactionAPI{
		firstFetchGate: make(chan struct{}),
		pages: [][]core.Transaction{
			{txAt("stale", at, cents(10), false)},
			{txAt("fresh", at, cents(20), false)},
		},
	}
	cb := NewCashBook(api, api, loc)
	cb.mu.Lock()
	cb.start, cb.end = day, day
	cb.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cb.Refresh(context.Background())
	}()
	for api.fetchCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Second load supersedes the blocked one.
	if err := cb.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	close(api.firstFetchGate)
	wg.Wait()

	txs := cb.Transactions()
	if len(txs) != 1 || txs[0].TransactionID != "fresh" {
		t.Fatalf("txs = %+v, want only the fresh result", txs)
	}
}

func TestCashBookAddRefetches(t *testing.T) {
	loc := kolkata(t)
	api := &fakeTransactionAPI{}
	cb := NewCashBook(api, api, loc)

	draft := core.TransactionDraft{
		Category:     "Shopping",
		Amount:       cents(250),
		Counterparty: "Store",
		Date:         time.Date(2024, time.June, 5, 0, 0, 0, 0, loc),
	}
	created, err := cb.Add(context.Background(), draft)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.TransactionID != "tx-created" {
		t.Fatalf("created id = %q", created.TransactionID)
	}
	if api.fetchCount() != 1 {
		t.Fatalf("fetches after Add = %d, want 1", api.fetchCount())
	}
	if len(api.created) != 1 {
		t.Fatalf("created drafts = %d, want 1", len(api.created))
	}
}

func TestCashBookAddRejectsInvalidDraft(t *testing.T) {
	loc := kolkata(t)
	api := &fakeTransactionAPI{}
	cb := NewCashBook(api, api, loc)

	_, err := cb.Add(context.Background(), core.TransactionDraft{})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if api.fetchCount() != 0 {
		t.Fatalf("fetches = %d, want 0 after rejected draft", api.fetchCount())
	}
}

func TestCashBookFetchErrorSetsErrorPhase(t *testing.T) {
	loc := kolkata(t)
	api := &fakeTransactionAPI{err: errors.New("backend down")}
	cb := NewCashBook(api, api, loc)

	if err := cb.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh succeeded, want error")
	}
	if got := cb.Phase(); got != PhaseError {
		t.Fatalf("phase = %v, want error", got)
	}
	if cb.Err() == nil {
		t.Fatal("Err() = nil, want backend error")
	}
}
