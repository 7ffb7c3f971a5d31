// Package store defines the persistence contract the finance service depends on.
// Adapters live in store/memory and internal/storage.
package store

import (
	"context"

	"financas/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseStore persists expenses. Find results are ordered by due date
	// ascending, then by creation time.
	ExpenseStore interface {
		FindExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		// InsertExpense fails with core.ErrConflict when the id is taken.
		InsertExpense(ctx context.Context, e core.Expense) error
		// UpdateExpense returns the number of modified records, or
		// core.ErrNotFound for an unknown id.
		UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (int64, error)
		DeleteExpense(ctx context.Context, id string) (int64, error)
		// SetDerivedStatus writes a recomputed status. It never overwrites a
		// stored paid status and reports whether a row changed.
		SetDerivedStatus(ctx context.Context, id string, s core.Status) (bool, error)
	}

	// IncomeStore persists incomes ordered by date ascending.
	IncomeStore interface {
		FindIncomes(ctx context.Context, f IncomeFilter) ([]core.Income, error)
		GetIncome(ctx context.Context, id string) (core.Income, error)
		InsertIncome(ctx context.Context, in core.Income) error
		UpdateIncome(ctx context.Context, id string, p core.IncomePatch) (int64, error)
		DeleteIncome(ctx context.Context, id string) (int64, error)
	}

	Store interface {
		ExpenseStore
		IncomeStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// ExpenseFilter narrows FindExpenses. Zero value matches everything.
type ExpenseFilter struct {
	Month       *core.MonthKey
	PaidBy      *core.Person
	ExcludePaid bool
}

// Matches reports whether e passes the filter.
func (f ExpenseFilter) Matches(e core.Expense) bool {
	if f.Month != nil && !f.Month.Contains(e.DueDate) {
		return false
	}
	if f.PaidBy != nil && e.PaidBy != *f.PaidBy {
		return false
	}
	if f.ExcludePaid && e.IsPaid() {
		return false
	}
	return true
}

// IncomeFilter narrows FindIncomes. Zero value matches everything.
type IncomeFilter struct {
	Month         *core.MonthKey
	ReceivedBy    *core.Person
	RecurringOnly bool
}

func (f IncomeFilter) Matches(in core.Income) bool {
	if f.Month != nil && !f.Month.Contains(in.Date) {
		return false
	}
	if f.ReceivedBy != nil && in.ReceivedBy != *f.ReceivedBy {
		return false
	}
	if f.RecurringOnly && !in.IsRecurring {
		return false
	}
	return true
}
