// Package report renders a month as a downloadable spreadsheet or PDF
// statement.
package report

import (
	"fmt"

	"financas/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	expensesSheet = "Expenses"
	incomesSheet  = "Incomes"
)

// MonthlyXLSX builds a workbook with a summary sheet and one sheet per
// record kind.
func MonthlyXLSX(v core.MonthView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{expensesSheet, incomesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	s := v.Summary
	negative := "-"
	if s.NegativeDate != nil {
		negative = core.FormatDate(*s.NegativeDate)
	}
	summary := [][]any{
		{"Mês", core.FormatMonth(v.Month)},
		{"Receita Total", core.FormatBRL(s.TotalIncome)},
		{"Despesas Totais", core.FormatBRL(s.TotalExpenses)},
		{"Saldo", core.FormatBRL(s.Balance)},
		{"Saldo negativo em", negative},
		{},
		{"Pessoa", "Receitas", "Despesas"},
	}
	for _, p := range v.ByPerson {
		summary = append(summary, []any{p.Person.Label(), core.FormatBRL(p.Income), core.FormatBRL(p.Expenses)})
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}

	expenses := [][]any{{"Vencimento", "Descrição", "Valor", "Pago por", "Status", "Categoria"}}
	for _, e := range v.Expenses {
		expenses = append(expenses, []any{
			core.FormatDate(e.DueDate), e.Description, core.FormatBRL(e.Amount),
			e.PaidBy.Label(), e.Status.Label(), e.Category,
		})
	}
	if err := writeRows(f, expensesSheet, expenses); err != nil {
		return nil, err
	}

	incomes := [][]any{{"Data", "Descrição", "Valor", "Recebido por", "Categoria", "Recorrente"}}
	for _, in := range v.Incomes {
		recurring := "Não"
		if in.IsRecurring {
			recurring = "Sim"
		}
		incomes = append(incomes, []any{
			core.FormatDate(in.Date), in.Description, core.FormatBRL(in.Amount),
			in.ReceivedBy.Label(), in.Category, recurring,
		})
	}
	if err := writeRows(f, incomesSheet, incomes); err != nil {
		return nil, err
	}

	for _, name := range []string{expensesSheet, incomesSheet} {
		if err := f.SetColWidth(name, "B", "B", 30); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
