package google

import (
	"fmt"
	"strings"

	"financas/internal/core"
)

// Column layouts of the mirrored sheets. Column A always holds the key.
var (
	expenseHeader = []any{"id", "due_date", "description", "amount", "paid_by", "status", "category"}
	incomeHeader  = []any{"id", "date", "description", "amount", "received_by", "category", "recurring"}
	summaryHeader = []any{"month", "label", "total_income", "total_expenses", "balance", "negative_date"}
)

func expenseRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.DueDate.String(),
		e.Description,
		e.Amount.Decimal().InexactFloat64(),
		string(e.PaidBy),
		string(e.Status),
		e.Category,
	}
}

func incomeRow(in core.Income) []any {
	recurring := "no"
	if in.IsRecurring {
		recurring = "yes"
	}
	return []any{
		in.ID,
		in.Date.String(),
		in.Description,
		in.Amount.Decimal().InexactFloat64(),
		string(in.ReceivedBy),
		in.Category,
		recurring,
	}
}

func summaryRow(s core.FinancialSummary) []any {
	negative := ""
	if s.NegativeDate != nil {
		negative = s.NegativeDate.String()
	}
	return []any{
		s.Month.String(),
		s.Month.Label(),
		s.TotalIncome.Decimal().InexactFloat64(),
		s.TotalExpenses.Decimal().InexactFloat64(),
		s.Balance.Decimal().InexactFloat64(),
		negative,
	}
}

// findRow returns the 1-based sheet row whose first cell equals key, or 0.
// values is the response of a single-column read starting at row 1.
func findRow(values [][]any, key string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == key {
			return i + 1
		}
	}
	return 0
}

// column converts a 1-based column count to its letter (1 -> A).
func column(n int) string {
	return string(rune('A' + n - 1))
}

// rowRange is the A1 range covering row idx across width columns.
func rowRange(sheet string, idx, width int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, idx, column(width), idx)
}

// tableRange spans every row of the first width columns.
func tableRange(sheet string, width int) string {
	return fmt.Sprintf("%s!A:%s", sheet, column(width))
}
