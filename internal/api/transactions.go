package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

// transactionRequest is the wire shape for creating a transaction.
type transactionRequest struct {
	Category     string             `json:"category"`
	CustomFields []core.CustomField `json:"customFields"`
	ReceiverName string             `json:"receiverName"`
	SenderName   string             `json:"senderName"`
	Reason       string             `json:"reason"`
	Amount       core.Money         `json:"amount"`
	OrgID        string             `json:"orgId"`
	Updates      []any              `json:"updates"`
	AmountIn     bool               `json:"amountIn"`
}

// FetchTransactions lists transactions whose activity falls inside the
// epoch-ms window and derives the display date and time for each in
// the fixed timezone.
func (c *Client) FetchTransactions(ctx context.Context, startMs, endMs int64) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/financial/transactions", rangeQuery(startMs, endMs), nil, &txs, scopeFinancial); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	for i := range txs {
		c.normalizeTransaction(&txs[i])
	}
	return txs, nil
}

// ListTransactions returns the unfiltered transaction list.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, nil, &txs, scopeFinancial); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	for i := range txs {
		c.normalizeTransaction(&txs[i])
	}
	return txs, nil
}

// TransactionsByCategory returns the transactions recorded under one
// category.
func (c *Client) TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("category", category)
	var txs []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/by-category", q, nil, &txs, scopeFinancial); err != nil {
		return nil, fmt.Errorf("list transactions by category %q: %w", category, err)
	}
	for i := range txs {
		c.normalizeTransaction(&txs[i])
	}
	return txs, nil
}

// CreateTransaction validates the draft locally and, only when valid,
// posts it. The timestamp pair travels as stringified epoch-ms custom
// fields because the backend schema has no first-class time column:
// transaction-date holds the user-chosen date, lastactivity the moment
// of recording. Cash-in fills senderName, cash-out receiverName.
func (c *Client) CreateTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now()
	req := transactionRequest{
		Category: d.Category,
		CustomFields: []core.CustomField{
			{FieldKey: core.FieldTransactionDate, FieldValue: strconv.FormatInt(timeutil.EpochMs(d.Date), 10), FieldValueType: core.FieldTypeString},
			{FieldKey: core.FieldLastActivity, FieldValue: strconv.FormatInt(timeutil.EpochMs(now), 10), FieldValueType: core.FieldTypeString},
		},
		Reason:   d.Reason,
		Amount:   d.Amount,
		OrgID:    c.orgID,
		Updates:  []any{},
		AmountIn: d.AmountIn,
	}
	if d.AmountIn {
		req.SenderName = d.Counterparty
	} else {
		req.ReceiverName = d.Counterparty
	}

	var created core.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, req, &created, scopeFinancial); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	c.normalizeTransaction(&created)
	return created, nil
}

// Balance returns the net balance for the window.
func (c *Client) Balance(ctx context.Context, startMs, endMs int64) (core.Money, error) {
	var m core.Money
	if err := c.do(ctx, http.MethodGet, "/financial/balance", rangeQuery(startMs, endMs), nil, &m, scopeFinancial); err != nil {
		return core.Money{}, fmt.Errorf("fetch balance: %w", err)
	}
	return m, nil
}

// CashIn returns the aggregate income for the window.
func (c *Client) CashIn(ctx context.Context, startMs, endMs int64) (core.Money, error) {
	var m core.Money
	if err := c.do(ctx, http.MethodGet, "/financial/cash-in", rangeQuery(startMs, endMs), nil, &m, scopeFinancial); err != nil {
		return core.Money{}, fmt.Errorf("fetch total income: %w", err)
	}
	return m, nil
}

// CashOut returns the aggregate expenses for the window.
func (c *Client) CashOut(ctx context.Context, startMs, endMs int64) (core.Money, error) {
	var m core.Money
	if err := c.do(ctx, http.MethodGet, "/financial/cash-out", rangeQuery(startMs, endMs), nil, &m, scopeFinancial); err != nil {
		return core.Money{}, fmt.Errorf("fetch total expenses: %w", err)
	}
	return m, nil
}

// FinancialStats fetches balance, income and expenses concurrently and
// fails as soon as any of the three does.
func (c *Client) FinancialStats(ctx context.Context, startMs, endMs int64) (core.FinancialStats, error) {
	var stats core.FinancialStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := c.Balance(gctx, startMs, endMs)
		stats.Balance = m
		return err
	})
	g.Go(func() error {
		m, err := c.CashIn(gctx, startMs, endMs)
		stats.TotalIncome = m
		return err
	})
	g.Go(func() error {
		m, err := c.CashOut(gctx, startMs, endMs)
		stats.TotalExpenses = m
		return err
	})
	if err := g.Wait(); err != nil {
		return core.FinancialStats{}, err
	}
	return stats, nil
}

// Categories returns the backend's closed category set.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := c.do(ctx, http.MethodGet, "/transactions/categories", nil, nil, &cats, scopeFinancial); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return cats, nil
}

// CategoryPercentages returns the backend's category breakdown for the
// window.
func (c *Client) CategoryPercentages(ctx context.Context, startMs, endMs int64) ([]core.CategoryPercentage, error) {
	var rows []core.CategoryPercentage
	if err := c.do(ctx, http.MethodGet, "/transactions/category-percentage", rangeQuery(startMs, endMs), nil, &rows, scopeFinancial); err != nil {
		return nil, fmt.Errorf("fetch category percentages: %w", err)
	}
	return rows, nil
}

// normalizeTransaction derives formattedDate and formattedTime from
// the record's timestamp custom field.
func (c *Client) normalizeTransaction(tx *core.Transaction) {
	ms, ok := tx.Timestamp()
	if !ok {
		return
	}
	tx.FormattedDate = timeutil.FormatDate(ms, c.zone)
	tx.FormattedTime = timeutil.FormatTime(ms, c.zone)
}
