// Package worker mirrors record events into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/sheets"
	"financas/internal/store"
)

// SyncWorker turns record events into spreadsheet writes. Events only carry
// identifiers, so every upsert reads the current record from the store.
type SyncWorker struct {
	store  store.Store
	mirror sheets.RecordMirror
	loc    *time.Location
	now    func() time.Time
}

func NewSyncWorker(st store.Store, mirror sheets.RecordMirror, loc *time.Location) *SyncWorker {
	if loc == nil {
		loc = time.Local
	}
	return &SyncWorker{
		store:  st,
		mirror: mirror,
		loc:    loc,
		now:    time.Now,
	}
}

func (w *SyncWorker) clock() time.Time {
	return w.now().In(w.loc)
}

// HandleEvent mirrors one record and then the summary of the event's month.
// It matches amqp.Handler: a returned error requeues the delivery.
func (w *SyncWorker) HandleEvent(ctx context.Context, e amqp.RecordEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Processing record event",
		"kind", e.Kind,
		"op", e.Op,
		"id", e.ID,
		"month", e.Month)

	var err error
	switch e.Kind {
	case amqp.KindExpense:
		err = w.syncExpense(ctx, e)
	case amqp.KindIncome:
		err = w.syncIncome(ctx, e)
	}
	if err != nil {
		return err
	}

	month, perr := core.ParseMonthKey(e.Month)
	if perr != nil {
		slog.WarnContext(ctx, "Event without a valid month, summary skipped", "id", e.ID, "month", e.Month)
		return nil
	}
	return w.SyncSummary(ctx, month)
}

func (w *SyncWorker) syncExpense(ctx context.Context, e amqp.RecordEvent) error {
	if e.Op == amqp.OpDelete {
		return w.mirror.DeleteExpense(ctx, e.ID)
	}
	exp, err := w.store.GetExpense(ctx, e.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published; the delete event follows.
		slog.InfoContext(ctx, "Expense no longer exists, clearing mirror row", "expense_id", e.ID)
		return w.mirror.DeleteExpense(ctx, e.ID)
	}
	if err != nil {
		return fmt.Errorf("get expense %s: %w", e.ID, err)
	}
	exp.Status = core.ResolveStatus(exp, w.clock())
	return w.mirror.UpsertExpense(ctx, exp)
}

func (w *SyncWorker) syncIncome(ctx context.Context, e amqp.RecordEvent) error {
	if e.Op == amqp.OpDelete {
		return w.mirror.DeleteIncome(ctx, e.ID)
	}
	in, err := w.store.GetIncome(ctx, e.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Income no longer exists, clearing mirror row", "income_id", e.ID)
		return w.mirror.DeleteIncome(ctx, e.ID)
	}
	if err != nil {
		return fmt.Errorf("get income %s: %w", e.ID, err)
	}
	return w.mirror.UpsertIncome(ctx, in)
}

// SyncSummary recomputes month from the store and writes its summary row.
func (w *SyncWorker) SyncSummary(ctx context.Context, month core.MonthKey) error {
	expenses, err := w.store.FindExpenses(ctx, store.ExpenseFilter{Month: &month})
	if err != nil {
		return fmt.Errorf("load expenses for %s: %w", month, err)
	}
	incomes, err := w.store.FindIncomes(ctx, store.IncomeFilter{Month: &month})
	if err != nil {
		return fmt.Errorf("load incomes for %s: %w", month, err)
	}
	return w.mirror.WriteSummary(ctx, core.Summarize(expenses, incomes, month))
}

// StartupResync mirrors every record of the current month, recovering from
// events lost while the worker was down.
func (w *SyncWorker) StartupResync(ctx context.Context) error {
	month := core.CurrentMonthKey(w.clock())

	expenses, err := w.store.FindExpenses(ctx, store.ExpenseFilter{Month: &month})
	if err != nil {
		return fmt.Errorf("load expenses for startup resync: %w", err)
	}
	incomes, err := w.store.FindIncomes(ctx, store.IncomeFilter{Month: &month})
	if err != nil {
		return fmt.Errorf("load incomes for startup resync: %w", err)
	}

	now := w.clock()
	successCount := 0
	errorCount := 0

	for _, e := range core.ResolveStatuses(expenses, now) {
		if err := w.mirror.UpsertExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense during startup", "expense_id", e.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}
	for _, in := range incomes {
		if err := w.mirror.UpsertIncome(ctx, in); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror income during startup", "income_id", in.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	if err := w.mirror.WriteSummary(ctx, core.Summarize(expenses, incomes, month)); err != nil {
		return fmt.Errorf("write summary for %s: %w", month, err)
	}

	slog.InfoContext(ctx, "Startup resync completed",
		"month", month.String(),
		"total", len(expenses)+len(incomes),
		"synced", successCount,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("startup resync: %d records failed", errorCount)
	}
	return nil
}
