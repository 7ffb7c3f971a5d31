package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"financas/internal/core"
)

var parserNow = time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC)

func TestParseMonthParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    core.MonthKey
		wantErr bool
	}{
		{"defaults to now", url.Values{}, core.MonthKey{Year: 2025, Month: 4}, false},
		{"year and month", url.Values{"year": {"2024"}, "month": {"12"}}, core.MonthKey{Year: 2024, Month: 12}, false},
		{"month only", url.Values{"month": {"2"}}, core.MonthKey{Year: 2025, Month: 2}, false},
		{"full key in month", url.Values{"month": {"2023-07"}}, core.MonthKey{Year: 2023, Month: 7}, false},
		{"month out of range", url.Values{"month": {"13"}}, core.MonthKey{}, true},
		{"non-numeric year", url.Values{"year": {"abc"}}, core.MonthKey{}, true},
		{"non-numeric month", url.Values{"month": {"abril"}}, core.MonthKey{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, parserNow)
			if tt.wantErr {
				if !core.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func newParser(t *testing.T, body, contentType string) *RequestBodyParser {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		p := newParser(t, `{"description":" Luz\u0007 ","amount":12.5,"paid":true}`, "application/json")
		if !p.IsJSON() {
			t.Fatal("expected JSON")
		}
		if got := p.Get("description"); got != "Luz" {
			t.Errorf("description = %q", got)
		}
		if got := p.Get("amount"); got != "12.5" {
			t.Errorf("amount = %q", got)
		}
		if !p.Has("paid") || p.Has("category") {
			t.Error("Has reported wrong keys")
		}
	})

	t.Run("form", func(t *testing.T) {
		p := newParser(t, "description=Internet&category=", "application/x-www-form-urlencoded")
		if p.IsJSON() {
			t.Fatal("form parsed as JSON")
		}
		if p.Get("description") != "Internet" {
			t.Errorf("description = %q", p.Get("description"))
		}
		if !p.Has("category") || p.Has("amount") {
			t.Error("Has reported wrong keys")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		p := newParser(t, "", "")
		if p.Has("anything") || p.Get("anything") != "" {
			t.Error("empty body should have no values")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":`))
		if err := NewRequestBodyParser(r).Parse(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", maxBodyBytes+10)))
		if err := NewRequestBodyParser(r).Parse(); err == nil {
			t.Fatal("expected size error")
		}
	})
}

func TestParseExpenseInput(t *testing.T) {
	p := newParser(t, "description=Aluguel&amount=R%24+1.500%2C00&due_date=2025-04-05&paid_by=Shared&category=moradia&status=paid", "")
	in, err := parseExpenseInput(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Amount.Cents != 150000 || in.PaidBy != core.Shared || !in.Paid {
		t.Errorf("unexpected input: %+v", in)
	}
	if !in.DueDate.Equal(core.NewDate(2025, 4, 5)) {
		t.Errorf("due date = %s", in.DueDate)
	}

	p = newParser(t, `{"amount_cents":-3,"due_date":"2025-04-05","paid_by":"shared"}`, "")
	var ve *core.ValidationError
	if _, err := parseExpenseInput(p); !errors.As(err, &ve) || ve.Field != "amount_cents" {
		t.Fatalf("expected amount_cents validation error, got %v", err)
	}
}

func TestParseExpensePatch(t *testing.T) {
	p := newParser(t, `{"status":"paid","category":"casa"}`, "")
	patch, err := parseExpensePatch(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.Status == nil || *patch.Status != core.StatusPaid {
		t.Errorf("status not set: %+v", patch)
	}
	if patch.Category == nil || *patch.Category != "casa" {
		t.Errorf("category not set: %+v", patch)
	}
	if patch.Amount != nil || patch.DueDate != nil || patch.Description != nil {
		t.Errorf("absent fields were set: %+v", patch)
	}

	p = newParser(t, `{"paid_by":"nobody"}`, "")
	var ve *core.ValidationError
	if _, err := parseExpensePatch(p); !errors.As(err, &ve) || ve.Field != "paid_by" {
		t.Fatalf("expected paid_by validation error, got %v", err)
	}
}

func TestParseIncomeInputAndPatch(t *testing.T) {
	p := newParser(t, "description=Sal%C3%A1rio&amount=5000&date=2025-04-01&received_by=partner2&category=sal%C3%A1rio&is_recurring=on", "")
	in, err := parseIncomeInput(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.IsRecurring || in.ReceivedBy != core.Partner2 || in.Amount.Cents != 500000 {
		t.Errorf("unexpected input: %+v", in)
	}

	patch, err := parseIncomePatch(newParser(t, `{"is_recurring":false}`, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.IsRecurring == nil || *patch.IsRecurring {
		t.Errorf("is_recurring patch = %v", patch.IsRecurring)
	}
	if !(core.IncomePatch{}).IsEmpty() || patch.IsEmpty() {
		t.Error("IsEmpty disagrees with patch contents")
	}
}

func TestParseExpenseFilter(t *testing.T) {
	f, status, err := parseExpenseFilter(url.Values{"month": {"2025-03"}, "paid_by": {"partner1"}, "status": {"overdue"}}, parserNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Month == nil || *f.Month != (core.MonthKey{Year: 2025, Month: 3}) {
		t.Errorf("month = %v", f.Month)
	}
	if f.PaidBy == nil || *f.PaidBy != core.Partner1 {
		t.Errorf("paid_by = %v", f.PaidBy)
	}
	if status == nil || *status != core.StatusOverdue {
		t.Errorf("status = %v", status)
	}

	if _, status, _ := parseExpenseFilter(url.Values{"status": {"all"}}, parserNow); status != nil {
		t.Error("status=all should not filter")
	}
	if _, _, err := parseExpenseFilter(url.Values{"status": {"late"}}, parserNow); !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":       "plain",
		"tab\there":       "tab\there",
		"bell\x07gone":    "bellgone",
		"line\nbreak\r\n": "line\nbreak",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
