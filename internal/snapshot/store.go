// Package snapshot mirrors the backend's transactions and events into
// a local SQLite database so the CLI can answer read queries when the
// backend is unreachable. Writes always go to the backend; the mirror
// is refreshed after successful reads and never pushed back.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cashbook/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordTransactions upserts a fetched batch into the mirror.
func (s *Store) RecordTransactions(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions
			(transaction_id, category, receiver_name, sender_name, reason,
			 amount_cents, amount_in, org_id, occurred_at_ms, custom_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			category = excluded.category,
			receiver_name = excluded.receiver_name,
			sender_name = excluded.sender_name,
			reason = excluded.reason,
			amount_cents = excluded.amount_cents,
			amount_in = excluded.amount_in,
			org_id = excluded.org_id,
			occurred_at_ms = excluded.occurred_at_ms,
			custom_fields = excluded.custom_fields,
			fetched_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		ms, ok := t.Timestamp()
		if !ok {
			slog.WarnContext(ctx, "Skipping transaction without timestamp", "transaction_id", t.TransactionID)
			continue
		}
		fields, err := json.Marshal(t.CustomFields)
		if err != nil {
			return fmt.Errorf("marshal custom fields: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			t.TransactionID, t.Category, t.ReceiverName, t.SenderName, t.Reason,
			t.Amount.Cents, boolToInt(t.AmountIn), t.OrgID, ms, string(fields),
		); err != nil {
			return fmt.Errorf("upsert transaction %s: %w", t.TransactionID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transactions: %w", err)
	}

	slog.DebugContext(ctx, "Transactions mirrored", "count", len(txs))
	return nil
}

// FetchTransactions returns the mirrored transactions inside the
// epoch-ms window, newest first.
func (s *Store) FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, category, receiver_name, sender_name, reason,
		       amount_cents, amount_in, org_id, custom_fields
		FROM transactions
		WHERE occurred_at_ms >= ? AND occurred_at_ms <= ?
		ORDER BY occurred_at_ms DESC`, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListTransactions returns every mirrored transaction, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, category, receiver_name, sender_name, reason,
		       amount_cents, amount_in, org_id, custom_fields
		FROM transactions
		ORDER BY occurred_at_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TransactionsByCategory returns the mirrored transactions of one
// category, newest first.
func (s *Store) TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, category, receiver_name, sender_name, reason,
		       amount_cents, amount_in, org_id, custom_fields
		FROM transactions
		WHERE category = ?
		ORDER BY occurred_at_ms DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("query transactions by category: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Categories returns the distinct categories seen in the mirror.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM transactions ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// FinancialStats aggregates the mirrored window locally.
func (s *Store) FinancialStats(ctx context.Context, startMs, endMs int64) (core.FinancialStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN amount_in = 1 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount_in = 0 THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE occurred_at_ms >= ? AND occurred_at_ms <= ?`, startMs, endMs)

	var income, expenses int64
	if err := row.Scan(&income, &expenses); err != nil {
		return core.FinancialStats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return core.FinancialStats{
		Balance:       core.Money{Cents: income - expenses},
		TotalIncome:   core.Money{Cents: income},
		TotalExpenses: core.Money{Cents: expenses},
	}, nil
}

// CategoryPercentages aggregates per-category expense shares locally.
func (s *Store) CategoryPercentages(ctx context.Context, startMs, endMs int64) ([]core.CategoryPercentage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount_cents), 0) AS total
		FROM transactions
		WHERE amount_in = 0 AND occurred_at_ms >= ? AND occurred_at_ms <= ?
		GROUP BY category
		ORDER BY total DESC`, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query category sums: %w", err)
	}
	defer rows.Close()

	var (
		out   []core.CategoryPercentage
		total int64
	)
	for rows.Next() {
		var cp core.CategoryPercentage
		if err := rows.Scan(&cp.Category, &cp.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		total += cp.Amount.Cents
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	if total > 0 {
		for i := range out {
			out[i].Percentage = float64(out[i].Amount.Cents) * 100 / float64(total)
		}
	}
	return out, nil
}

// RecordEvents upserts a fetched batch of events into the mirror.
func (s *Store) RecordEvents(ctx context.Context, evs []core.CalendarEvent) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO events
			(event_id, event_name, event_date_ms, completed,
			 allow_notification, allow_to_see, user_id, custom_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			event_name = excluded.event_name,
			event_date_ms = excluded.event_date_ms,
			completed = excluded.completed,
			allow_notification = excluded.allow_notification,
			allow_to_see = excluded.allow_to_see,
			user_id = excluded.user_id,
			custom_fields = excluded.custom_fields,
			fetched_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range evs {
		ms, _ := ev.ResolvedTime()
		fields, err := json.Marshal(ev.CustomFields)
		if err != nil {
			return fmt.Errorf("marshal custom fields: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			ev.EventID, ev.EventName, ms, boolToInt(ev.EventCompleted),
			boolToInt(ev.AllowNotification), boolToInt(ev.AllowToSeeThisEvent),
			ev.UserID, string(fields),
		); err != nil {
			return fmt.Errorf("upsert event %s: %w", ev.EventID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}

	slog.DebugContext(ctx, "Events mirrored", "count", len(evs))
	return nil
}

// EventsByDateRange returns the mirrored events inside the window,
// soonest first.
func (s *Store) EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_name, event_date_ms, completed,
		       allow_notification, allow_to_see, user_id, custom_fields
		FROM events
		WHERE event_date_ms >= ? AND event_date_ms <= ?
		ORDER BY event_date_ms ASC`, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []core.CalendarEvent
	for rows.Next() {
		var (
			ev                         core.CalendarEvent
			completed, notify, visible int
			fields                     string
		)
		if err := rows.Scan(&ev.EventID, &ev.EventName, &ev.EventDate, &completed,
			&notify, &visible, &ev.UserID, &fields); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.EventCompleted = completed == 1
		ev.AllowNotification = notify == 1
		ev.AllowToSeeThisEvent = visible == 1
		if err := json.Unmarshal([]byte(fields), &ev.CustomFields); err != nil {
			return nil, fmt.Errorf("unmarshal custom fields: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// EventStatusCounts aggregates completed/pending counts locally.
func (s *Store) EventStatusCounts(ctx context.Context, startMs, endMs int64) (core.EventStatusCounts, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0)
		FROM events
		WHERE event_date_ms >= ? AND event_date_ms <= ?`, startMs, endMs)

	var counts core.EventStatusCounts
	if err := row.Scan(&counts.Completed, &counts.Pending); err != nil {
		return core.EventStatusCounts{}, fmt.Errorf("aggregate event counts: %w", err)
	}
	return counts, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			amountIn int
			fields   string
		)
		if err := rows.Scan(&t.TransactionID, &t.Category, &t.ReceiverName, &t.SenderName,
			&t.Reason, &t.Amount.Cents, &amountIn, &t.OrgID, &fields); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.AmountIn = amountIn == 1
		if err := json.Unmarshal([]byte(fields), &t.CustomFields); err != nil {
			return nil, fmt.Errorf("unmarshal custom fields: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
