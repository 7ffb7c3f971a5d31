// Package sheets declares the outbound port used to mirror records into a
// spreadsheet.
package sheets

import (
	"context"

	"financas/internal/core"
)

// RecordMirror keeps a spreadsheet copy of the household records.
// Upserts are keyed by record ID; deleting an absent record is not an error.
type RecordMirror interface {
	UpsertExpense(ctx context.Context, e core.Expense) error
	UpsertIncome(ctx context.Context, in core.Income) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteIncome(ctx context.Context, id string) error
	WriteSummary(ctx context.Context, s core.FinancialSummary) error
}
