package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Seed inserts a small household ledger for month so a fresh instance has
// something to show. It stops at the first error.
func Seed(ctx context.Context, s Store, month core.MonthKey, now time.Time) error {
	day := func(d int) core.Date {
		if d > month.Days() {
			d = month.Days()
		}
		return core.NewDate(month.Year, month.Month, d)
	}

	incomes := []core.Income{
		{Description: "Salário", Amount: core.Cents(650000), Date: day(5), ReceivedBy: core.Partner1, Category: "salário", IsRecurring: true},
		{Description: "Salário", Amount: core.Cents(480000), Date: day(10), ReceivedBy: core.Partner2, Category: "salário", IsRecurring: true},
		{Description: "Freelance", Amount: core.Cents(90000), Date: day(20), ReceivedBy: core.Partner2, Category: "extra"},
	}
	expenses := []core.Expense{
		{Description: "Aluguel", Amount: core.Cents(280000), DueDate: day(1), PaidBy: core.Shared, Category: "moradia"},
		{Description: "Energia", Amount: core.Cents(32000), DueDate: day(8), PaidBy: core.Partner1, Category: "contas"},
		{Description: "Internet", Amount: core.Cents(12000), DueDate: day(12), PaidBy: core.Partner2, Category: "contas"},
		{Description: "Mercado", Amount: core.Cents(150000), DueDate: day(15), PaidBy: core.Shared, Category: "alimentação"},
		{Description: "Cartão de crédito", Amount: core.Cents(420000), DueDate: day(25), PaidBy: core.Shared, Category: "cartão"},
	}

	for _, in := range incomes {
		in.ID = uuid.NewString()
		in.CreatedAt = now
		if err := s.InsertIncome(ctx, in); err != nil {
			return fmt.Errorf("seed income %q: %w", in.Description, err)
		}
	}
	for _, e := range expenses {
		e.ID = uuid.NewString()
		e.CreatedAt = now
		e.Status = core.ResolveStatus(e, now)
		if err := s.InsertExpense(ctx, e); err != nil {
			return fmt.Errorf("seed expense %q: %w", e.Description, err)
		}
	}
	return nil
}
