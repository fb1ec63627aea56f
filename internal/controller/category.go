package controller

import (
	"context"
	"sync"

	"cashbook/internal/core"
	"cashbook/internal/filter"
)

// AllCategories is the pseudo-category that selects every transaction.
const AllCategories = "All Categories"

// CategoryAPI is the slice of the backend the category screen needs.
// The category set is closed but backend-owned, so it is fetched once
// and cached instead of being compiled in.
type CategoryAPI interface {
	Categories(ctx context.Context) ([]string, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	TransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error)
}

// Category drives the per-category transaction list.
type Category struct {
	api  CategoryAPI
	gate loadGate

	mu       sync.Mutex
	phase    Phase
	err      error
	selected string
	catalog  []string
	txs      []core.Transaction
}

func NewCategory(api CategoryAPI) *Category {
	return &Category{
		api:      api,
		phase:    PhaseIdle,
		selected: AllCategories,
	}
}

// Options returns the selector choices: the catch-all entry followed
// by the backend's category set. The set is fetched on first use and
// cached; a fetch failure falls back to the built-in list without
// caching, so a later call retries.
func (c *Category) Options(ctx context.Context) []string {
	c.mu.Lock()
	catalog := c.catalog
	c.mu.Unlock()

	if catalog == nil {
		fetched, err := c.api.Categories(ctx)
		if err != nil || len(fetched) == 0 {
			catalog = core.Categories
		} else {
			catalog = fetched
			c.mu.Lock()
			c.catalog = fetched
			c.mu.Unlock()
		}
	}

	out := make([]string, 0, len(catalog)+1)
	out = append(out, AllCategories)
	out = append(out, catalog...)
	return out
}

// Select changes the active category and loads its transactions.
func (c *Category) Select(ctx context.Context, category string) error {
	c.mu.Lock()
	token := c.gate.begin()
	c.phase = PhaseLoading
	c.selected = category
	c.mu.Unlock()

	var (
		txs []core.Transaction
		err error
	)
	if category == AllCategories {
		txs, err = c.api.ListTransactions(ctx)
	} else {
		txs, err = c.api.TransactionsByCategory(ctx, category)
	}

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
	c.txs = filter.SortTransactionsDesc(txs)
	c.phase = PhaseSuccess
	c.err = nil
	return nil
}

// Refresh reloads the active category.
func (c *Category) Refresh(ctx context.Context) error {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()
	return c.Select(ctx, selected)
}

func (c *Category) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Category) Transactions() []core.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Transaction, len(c.txs))
	copy(out, c.txs)
	return out
}

// Total sums the listed transactions, income positive and expense
// negative.
func (c *Category) Total() core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	var cents int64
	for _, tx := range c.txs {
		if tx.AmountIn {
			cents += tx.Amount.Cents
		} else {
			cents -= tx.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

func (c *Category) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Category) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
