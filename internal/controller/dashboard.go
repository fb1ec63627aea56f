package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cashbook/internal/cache"
	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

const (
	dashCacheSize = 16
	dashCacheTTL  = 2 * time.Minute
)

// FinancialAPI is the slice of the backend the dashboard needs.
type FinancialAPI interface {
	FinancialStats(ctx context.Context, startMs, endMs int64) (core.FinancialStats, error)
	CategoryPercentages(ctx context.Context, startMs, endMs int64) ([]core.CategoryPercentage, error)
	EventStatusCounts(ctx context.Context, startMs, endMs int64) (core.EventStatusCounts, error)
}

type dashboardData struct {
	Stats     core.FinancialStats
	Breakdown []core.CategoryPercentage
	Events    core.EventStatusCounts
}

// Dashboard drives the summary screen: balance, cash flow, category
// breakdown and event completion counts for the selected view window.
// The three aggregates are fetched concurrently and any one failing
// fails the load.
type Dashboard struct {
	api  FinancialAPI
	zone *time.Location

	gate loadGate

	mu     sync.Mutex
	phase  Phase
	err    error
	anchor time.Time
	view   timeutil.View
	data   dashboardData
	ranges *cache.LRUCache[dashboardData]
}

func NewDashboard(api FinancialAPI, zone *time.Location) *Dashboard {
	return &Dashboard{
		api:    api,
		zone:   zone,
		phase:  PhaseIdle,
		anchor: time.Now().In(zone),
		view:   timeutil.ViewMonthly,
		ranges: cache.NewLRUCache[dashboardData](dashCacheSize, dashCacheTTL),
	}
}

// SetView switches the window granularity and reloads.
func (d *Dashboard) SetView(ctx context.Context, v timeutil.View) error {
	d.mu.Lock()
	d.view = v
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// Step moves the window forward or backward one unit and reloads.
func (d *Dashboard) Step(ctx context.Context, forward bool) error {
	d.mu.Lock()
	if forward {
		d.anchor = timeutil.Next(d.anchor, d.view)
	} else {
		d.anchor = timeutil.Previous(d.anchor, d.view)
	}
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// Refresh loads the aggregates for the current window.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	token := d.gate.begin()
	d.phase = PhaseLoading
	anchor, view := d.anchor, d.view
	d.mu.Unlock()

	start, end := timeutil.RangeForView(anchor, view, d.zone)
	startMs, endMs := timeutil.EpochMs(start), timeutil.EpochMs(end)
	key := fmt.Sprintf("%d-%d", startMs, endMs)

	d.mu.Lock()
	if cached, ok := d.ranges.Get(key); ok {
		d.data = cached
		d.phase = PhaseSuccess
		d.err = nil
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	var data dashboardData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := d.api.FinancialStats(gctx, startMs, endMs)
		if err != nil {
			return fmt.Errorf("financial stats: %w", err)
		}
		data.Stats = stats
		return nil
	})
	g.Go(func() error {
		breakdown, err := d.api.CategoryPercentages(gctx, startMs, endMs)
		if err != nil {
			return fmt.Errorf("category breakdown: %w", err)
		}
		data.Breakdown = breakdown
		return nil
	})
	g.Go(func() error {
		counts, err := d.api.EventStatusCounts(gctx, startMs, endMs)
		if err != nil {
			return fmt.Errorf("event status counts: %w", err)
		}
		data.Events = counts
		return nil
	})
	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.gate.latest(token) {
		return nil
	}
	if err != nil {
		d.phase = PhaseError
		d.err = err
		return err
	}
	d.ranges.Set(key, data)
	d.data = data
	d.phase = PhaseSuccess
	d.err = nil
	return nil
}

// Window returns the current view range.
func (d *Dashboard) Window() (start, end time.Time) {
	d.mu.Lock()
	anchor, view := d.anchor, d.view
	d.mu.Unlock()
	return timeutil.RangeForView(anchor, view, d.zone)
}

func (d *Dashboard) Stats() core.FinancialStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data.Stats
}

func (d *Dashboard) Breakdown() []core.CategoryPercentage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]core.CategoryPercentage, len(d.data.Breakdown))
	copy(out, d.data.Breakdown)
	return out
}

func (d *Dashboard) EventCounts() core.EventStatusCounts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data.Events
}

func (d *Dashboard) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
