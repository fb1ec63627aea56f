package controller

import (
	"context"
	"sync"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/filter"
	"cashbook/internal/timeutil"
)

// TransactionReader fetches transactions overlapping an epoch-ms window.
type TransactionReader interface {
	FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error)
}

// TransactionWriter records a new transaction.
type TransactionWriter interface {
	CreateTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error)
}

// CashBook drives the transaction list screen: a date range, the
// transactions inside it (newest first), and creation of new entries.
type CashBook struct {
	reader TransactionReader
	writer TransactionWriter
	zone   *time.Location

	gate loadGate

	mu    sync.Mutex
	phase Phase
	err   error
	start time.Time
	end   time.Time
	txs   []core.Transaction
}

func NewCashBook(reader TransactionReader, writer TransactionWriter, zone *time.Location) *CashBook {
	today := timeutil.StartOfDay(time.Now(), zone)
	return &CashBook{
		reader: reader,
		writer: writer,
		zone:   zone,
		phase:  PhaseIdle,
		start:  today,
		end:    today,
	}
}

// SetRange changes the visible date window and reloads it.
func (c *CashBook) SetRange(ctx context.Context, start, end time.Time) error {
	c.mu.Lock()
	c.start = timeutil.StartOfDay(start, c.zone)
	c.end = timeutil.StartOfDay(end, c.zone)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh re-fetches the current window from the backend.
func (c *CashBook) Refresh(ctx context.Context) error {
	c.mu.Lock()
	token := c.gate.begin()
	c.phase = PhaseLoading
	start, end := c.start, c.end
	c.mu.Unlock()

	startMs := timeutil.EpochMs(timeutil.StartOfDay(start, c.zone))
	endMs := timeutil.EpochMs(timeutil.EndOfDay(end, c.zone))
	txs, err := c.reader.FetchTransactions(ctx, startMs, endMs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gate.latest(token) {
		return nil
	}
	if err != nil {
		c.phase = PhaseError
		c.err = err
		return err
	}
	c.phase = PhaseSuccess
	c.err = nil
	c.txs = filter.Transactions(txs, start, end, c.zone)
	return nil
}

// Add records a new transaction and, on success, re-fetches the
// window so the list reflects the backend's view rather than an
// optimistic local insert.
func (c *CashBook) Add(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	created, err := c.writer.CreateTransaction(ctx, draft)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

func (c *CashBook) Transactions() []core.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Transaction, len(c.txs))
	copy(out, c.txs)
	return out
}

func (c *CashBook) Range() (start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start, c.end
}

func (c *CashBook) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *CashBook) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
