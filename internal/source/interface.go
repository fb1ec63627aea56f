package source

import (
	"context"

	"cashbook/internal/core"
)

// Reader is the read surface shared by the live API and the offline
// snapshot mirror. Write operations are deliberately absent: mutations
// always go through the API client directly.
type Reader interface {
	FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error)
	Categories(ctx context.Context) ([]string, error)
	FinancialStats(ctx context.Context, startMs, endMs int64) (core.FinancialStats, error)
	CategoryPercentages(ctx context.Context, startMs, endMs int64) ([]core.CategoryPercentage, error)
	EventsByDateRange(ctx context.Context, startMs, endMs int64) ([]core.CalendarEvent, error)
	EventStatusCounts(ctx context.Context, startMs, endMs int64) (core.EventStatusCounts, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the reader instance and optional cleanup function
type Result struct {
	Reader  Reader
	Cleanup CleanupFunc
}

// Type represents the kind of data source
type Type string

const (
	APISource      Type = "api"
	SnapshotSource Type = "snapshot"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the source type is valid
func (t Type) IsValid() bool {
	switch t {
	case APISource, SnapshotSource:
		return true
	default:
		return false
	}
}
