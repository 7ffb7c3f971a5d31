package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"financas/internal/core"
	"financas/internal/store"
)

// DefaultRefreshInterval matches the once-a-day recomputation of statuses.
const DefaultRefreshInterval = 24 * time.Hour

// RefreshResult reports one refresh pass.
type RefreshResult struct {
	Checked int
	Updated int
	At      time.Time
}

// StatusRefresher writes freshly resolved statuses back to the store so the
// stored value tracks the calendar. Paid expenses are never touched.
type StatusRefresher struct {
	store     store.ExpenseStore
	svc       *FinanceService
	recurring *RecurringProcessor
	interval  time.Duration
	group     singleflight.Group

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewStatusRefresher refreshes through svc's store and invalidates its cache
// when something changed. interval <= 0 uses DefaultRefreshInterval.
func NewStatusRefresher(svc *FinanceService, interval time.Duration) *StatusRefresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &StatusRefresher{
		store:    svc.store,
		svc:      svc,
		interval: interval,
	}
}

// WithRecurring makes every scheduled tick also carry recurring incomes into
// the current month.
func (r *StatusRefresher) WithRecurring(p *RecurringProcessor) *StatusRefresher {
	r.recurring = p
	return r
}

// Refresh recomputes every unpaid expense once. Concurrent callers share the
// same pass.
func (r *StatusRefresher) Refresh(ctx context.Context) (RefreshResult, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.refresh(ctx)
	})
	if shared {
		slog.DebugContext(ctx, "Status refresh joined an in-flight pass")
	}
	if err != nil {
		return RefreshResult{}, err
	}
	return v.(RefreshResult), nil
}

func (r *StatusRefresher) refresh(ctx context.Context) (RefreshResult, error) {
	now := r.svc.Now()
	res := RefreshResult{At: now}

	expenses, err := r.store.FindExpenses(ctx, store.ExpenseFilter{ExcludePaid: true})
	if err != nil {
		return res, fmt.Errorf("refresh statuses: %w", err)
	}

	for _, e := range expenses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		st := core.ResolveStatus(e, now)
		if st == e.Status {
			continue
		}
		changed, err := r.store.SetDerivedStatus(ctx, e.ID, st)
		if err != nil {
			slog.WarnContext(ctx, "Failed to store derived status",
				"expense_id", e.ID,
				"status", st,
				"error", err)
			continue
		}
		if changed {
			res.Updated++
		}
	}

	if res.Updated > 0 {
		r.svc.InvalidateAll()
	}
	slog.InfoContext(ctx, "Expense statuses refreshed",
		"checked", res.Checked,
		"updated", res.Updated,
		"date", core.DateOf(now).String())
	return res, nil
}

// Start refreshes once immediately and then every interval until Stop or
// ctx is done. It returns an error if already running.
func (r *StatusRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("status refresher is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Status refresher started", "interval", r.interval)
	return nil
}

func (r *StatusRefresher) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *StatusRefresher) tick(ctx context.Context) {
	if r.recurring != nil {
		month := core.CurrentMonthKey(r.svc.Now())
		if _, err := r.recurring.ProcessMonth(ctx, month); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Recurring income processing failed", "month", month.String(), "error", err)
		}
	}
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Status refresh failed", "error", err)
	}
}

// Stop signals the loop and waits for it to exit or ctx to expire.
func (r *StatusRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Status refresher stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Status refresher stop timed out")
		return ctx.Err()
	}
}

func (r *StatusRefresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
