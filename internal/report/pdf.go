package report

import (
	"bytes"
	"fmt"

	"financas/internal/core"

	"github.com/phpdave11/gofpdf"
)

// MonthlyPDF renders a one-document statement of the month.
func MonthlyPDF(v core.MonthView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; accented descriptions need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Finanças - "+core.FormatMonth(v.Month)), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("Resumo de "+core.FormatMonth(v.Month)))
	pdf.Ln(12)

	s := v.Summary
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, tr("Receita Total: "+core.FormatBRL(s.TotalIncome)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr("Despesas Totais: "+core.FormatBRL(s.TotalExpenses)))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, tr("Saldo: "+core.FormatBRL(s.Balance)))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	if s.NegativeDate != nil {
		pdf.SetTextColor(200, 30, 30)
		pdf.MultiCell(0, 6, tr("Seu saldo ficará negativo em "+core.FormatDate(*s.NegativeDate)), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	} else if !s.Balance.IsNegative() {
		pdf.MultiCell(0, 6, tr("Você manterá um saldo positivo durante todo o mês"), "", "L", false)
	}
	pdf.Ln(4)

	section(pdf, tr("Despesas"))
	header(pdf, tr, []string{"Vencimento", "Descrição", "Valor", "Pago por", "Status"})
	for _, e := range v.Expenses {
		row(pdf, tr, []string{
			core.FormatDate(e.DueDate), e.Description, core.FormatBRL(e.Amount),
			e.PaidBy.Label(), e.Status.Label(),
		})
	}
	pdf.Ln(4)

	section(pdf, tr("Receitas"))
	header(pdf, tr, []string{"Data", "Descrição", "Valor", "Recebido por", "Categoria"})
	for _, in := range v.Incomes {
		row(pdf, tr, []string{
			core.FormatDate(in.Date), in.Description, core.FormatBRL(in.Amount),
			in.ReceivedBy.Label(), in.Category,
		})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var columnWidths = []float64{28, 70, 32, 30, 30}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func header(pdf *gofpdf.Fpdf, tr func(string) string, cols []string) {
	pdf.SetFont("Helvetica", "B", 10)
	for i, c := range cols {
		pdf.CellFormat(columnWidths[i], 7, tr(c), "B", 0, "L", false, 0, "")
	}
	pdf.Ln(7)
}

func row(pdf *gofpdf.Fpdf, tr func(string) string, cols []string) {
	pdf.SetFont("Helvetica", "", 10)
	for i, c := range cols {
		pdf.CellFormat(columnWidths[i], 6, tr(truncate(c, 40)), "", 0, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
