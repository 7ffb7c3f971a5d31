// Package http provides HTTP server and handler implementations.
//
// This file builds the JSON bodies returned by the API and maps domain
// errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financas/internal/core"
	applog "financas/internal/log"
)

// Error kinds reported in the "kind" field of error bodies.
const (
	KindValidation       = "validation"
	KindNotFound         = "not_found"
	KindConflict         = "conflict"
	KindStoreUnavailable = "store_unavailable"
	KindBadRequest       = "bad_request"
	KindInternal         = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

type expenseDTO struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	DueDate     core.Date `json:"due_date"`
	PaidBy      string    `json:"paid_by"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
}

type incomeDTO struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Date        core.Date `json:"date"`
	ReceivedBy  string    `json:"received_by"`
	Category    string    `json:"category"`
	IsRecurring bool      `json:"is_recurring"`
}

type summaryDTO struct {
	Month              string      `json:"month"`
	Label              string      `json:"label"`
	TotalIncomeCents   int64       `json:"total_income_cents"`
	TotalExpensesCents int64       `json:"total_expenses_cents"`
	BalanceCents       int64       `json:"balance_cents"`
	Balance            string      `json:"balance"`
	NegativeDate       *core.Date  `json:"negative_date"`
	ByPerson           []personDTO `json:"by_person,omitempty"`
}

type personDTO struct {
	Person        string `json:"person"`
	IncomeCents   int64  `json:"income_cents"`
	ExpensesCents int64  `json:"expenses_cents"`
}

func newExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:          e.ID,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Amount:      core.FormatBRL(e.Amount),
		DueDate:     e.DueDate,
		PaidBy:      string(e.PaidBy),
		Status:      string(e.Status),
		Category:    e.Category,
	}
}

func newIncomeDTO(in core.Income) incomeDTO {
	return incomeDTO{
		ID:          in.ID,
		Description: in.Description,
		AmountCents: in.Amount.Cents,
		Amount:      core.FormatBRL(in.Amount),
		Date:        in.Date,
		ReceivedBy:  string(in.ReceivedBy),
		Category:    in.Category,
		IsRecurring: in.IsRecurring,
	}
}

func newExpenseDTOs(list []core.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(list))
	for _, e := range list {
		out = append(out, newExpenseDTO(e))
	}
	return out
}

func newIncomeDTOs(list []core.Income) []incomeDTO {
	out := make([]incomeDTO, 0, len(list))
	for _, in := range list {
		out = append(out, newIncomeDTO(in))
	}
	return out
}

func newSummaryDTO(s core.FinancialSummary, byPerson []core.PersonTotals) summaryDTO {
	dto := summaryDTO{
		Month:              s.Month.String(),
		Label:              core.FormatMonth(s.Month),
		TotalIncomeCents:   s.TotalIncome.Cents,
		TotalExpensesCents: s.TotalExpenses.Cents,
		BalanceCents:       s.Balance.Cents,
		Balance:            core.FormatBRL(s.Balance),
		NegativeDate:       s.NegativeDate,
	}
	for _, p := range byPerson {
		dto.ByPerson = append(dto.ByPerson, personDTO{
			Person:        string(p.Person),
			IncomeCents:   p.Income.Cents,
			ExpensesCents: p.Expenses.Cents,
		})
	}
	return dto
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classifyError maps an error to its status code and kind.
func classifyError(err error) (int, string) {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, KindValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, KindConflict
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, KindStoreUnavailable
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// writeError renders err as the JSON error body. Internal errors are logged
// and their text is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classifyError(err)
	body := errorBody{Error: err.Error(), Kind: kind}

	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}

	logger := applog.FromContext(r.Context())
	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, applog.FieldErrorKind, kind, "path", r.URL.Path)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	default:
		logger.DebugContext(r.Context(), "Request rejected", "error", err, applog.FieldErrorKind, kind)
	}
	writeJSON(w, status, body)
}

// writeBadRequest reports a body that could not be read or decoded at all.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message, Kind: KindBadRequest})
}
