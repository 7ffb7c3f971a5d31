package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"financas/internal/core"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity, KindValidation},
		{"wrapped validation", fmt.Errorf("create: %w", &core.ValidationError{Err: core.ErrEmptyCategory}), http.StatusUnprocessableEntity, KindValidation},
		{"not found", fmt.Errorf("get expense x: %w", core.ErrNotFound), http.StatusNotFound, KindNotFound},
		{"conflict", core.ErrConflict, http.StatusConflict, KindConflict},
		{"store unavailable", core.Unavailable("find", errors.New("disk")), http.StatusServiceUnavailable, KindStoreUnavailable},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := classifyError(tt.err)
			if status != tt.status || kind != tt.kind {
				t.Errorf("classifyError() = %d %q, want %d %q", status, kind, tt.status, tt.kind)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)

	rr := httptest.NewRecorder()
	writeError(rr, r, &core.ValidationError{Field: "paid_by", Err: core.ErrInvalidPerson})
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if rr.Code != http.StatusUnprocessableEntity || body.Field != "paid_by" || body.Kind != KindValidation {
		t.Errorf("unexpected response %d %+v", rr.Code, body)
	}

	rr = httptest.NewRecorder()
	writeError(rr, r, errors.New("secret connection string leaked"))
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if rr.Code != http.StatusInternalServerError || body.Error != "internal error" {
		t.Errorf("internal error leaked: %d %+v", rr.Code, body)
	}
}

func TestSummaryDTO(t *testing.T) {
	neg := core.NewDate(2025, 4, 3)
	s := core.FinancialSummary{
		Month:         core.MonthKey{Year: 2025, Month: 4},
		TotalIncome:   core.Cents(1000),
		TotalExpenses: core.Cents(1500),
		Balance:       core.Cents(-500),
		NegativeDate:  &neg,
	}
	dto := newSummaryDTO(s, []core.PersonTotals{{Person: core.Shared, Expenses: core.Cents(1500)}})

	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out["month"] != "2025-04" || out["label"] != "abril 2025" {
		t.Errorf("month fields = %v %v", out["month"], out["label"])
	}
	if out["negative_date"] != "2025-04-03" || out["balance"] != "-R$ 5,00" {
		t.Errorf("negative_date/balance = %v %v", out["negative_date"], out["balance"])
	}
	if people, ok := out["by_person"].([]any); !ok || len(people) != 1 {
		t.Errorf("by_person = %v", out["by_person"])
	}
}

func TestExpenseDTO(t *testing.T) {
	e := core.Expense{
		ID: "e1", Description: "Luz", Amount: core.Cents(12345),
		DueDate: core.NewDate(2025, 4, 8), PaidBy: core.Partner1,
		Status: core.StatusUpcoming, Category: "contas",
	}
	dto := newExpenseDTO(e)
	if dto.Amount != "R$ 123,45" || dto.AmountCents != 12345 || dto.Status != "upcoming" || dto.PaidBy != "partner1" {
		t.Errorf("unexpected dto %+v", dto)
	}
	if got := newExpenseDTOs(nil); got == nil || len(got) != 0 {
		t.Errorf("empty list should encode as [], got %#v", got)
	}
}
