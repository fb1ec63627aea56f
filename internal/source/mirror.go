package source

import (
	"context"
	"log/slog"

	"cashbook/internal/core"
	"cashbook/internal/snapshot"
)

// Mirror is a Reader that serves from the live backend and copies
// every successful read into the snapshot store. Mirror failures are
// logged and swallowed since the read itself succeeded.
type Mirror struct {
	live  Reader
	store *snapshot.Store
}

func NewMirror(live Reader, store *snapshot.Store) *Mirror {
	return &Mirror{live: live, store: store}
}

func (m *Mirror) FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error) {
	txs, err := m.live.FetchTransactions(ctx, startMs, endMs)
	if err != nil {
		return nil, err
	}
	m.recordTransactions(ctx, txs)
	return txs, nil
}

func (m *Mirror) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := m.live.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	m.recordTransactions(ctx, txs)
	return txs, nil
}

func (m *Mirror) TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	txs, err := m.live.TransactionsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	m.recordTransactions(ctx, txs)
	return txs, nil
}

func (m *Mirror) Categories(ctx context.Context) ([]string, error) {
	return m.live.Categories(ctx)
}

func (m *Mirror) FinancialStats(ctx context.Context, startMs, endMs int64) (core.FinancialStats, error) {
	return m.live.FinancialStats(ctx, startMs, endMs)
}

func (m *Mirror) CategoryPercentages(ctx context.Context, startMs, endMs int64) ([]core.CategoryPercentage, error) {
	return m.live.CategoryPercentages(ctx, startMs, endMs)
}

func (m *Mirror) EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error) {
	evs, err := m.live.EventsByDateRange(ctx, startMs, endMs)
	if err != nil {
		return nil, err
	}
	if len(evs) > 0 {
		if err := m.store.RecordEvents(ctx, evs); err != nil {
			slog.WarnContext(ctx, "Failed to mirror events", "error", err, "count", len(evs))
		}
	}
	return evs, nil
}

func (m *Mirror) EventStatusCounts(ctx context.Context, startMs, endMs int64) (core.EventStatusCounts, error) {
	return m.live.EventStatusCounts(ctx, startMs, endMs)
}

func (m *Mirror) recordTransactions(ctx context.Context, txs []core.Transaction) {
	if len(txs) == 0 {
		return
	}
	if err := m.store.RecordTransactions(ctx, txs); err != nil {
		slog.WarnContext(ctx, "Failed to mirror transactions", "error", err, "count", len(txs))
	}
}
