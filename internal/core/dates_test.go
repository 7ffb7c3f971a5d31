package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2025, 4, 10, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  Date
		want int
	}{
		{"same day", NewDate(2025, 4, 10), 0},
		{"tomorrow", NewDate(2025, 4, 11), 1},
		{"yesterday", NewDate(2025, 4, 9), -1},
		{"next month", NewDate(2025, 5, 10), 30},
		{"across year", NewDate(2026, 1, 1), 266},
		{"far past", NewDate(2020, 4, 10), -1826},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntilDue(tt.due, now); got != tt.want {
				t.Errorf("DaysUntilDue(%s) = %d, want %d", tt.due, got, tt.want)
			}
		})
	}
}

func TestDaysUntilDue_UsesLocalCalendarDay(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on the 11th is still the 10th in Sao Paulo.
	now := time.Date(2025, 4, 10, 22, 0, 0, 0, saoPaulo)

	if got := DaysUntilDue(NewDate(2025, 4, 10), now); got != 0 {
		t.Fatalf("expected same day in local zone, got %d", got)
	}
	if got := DaysUntilDue(NewDate(2025, 4, 10), now.UTC()); got != -1 {
		t.Fatalf("expected previous day in UTC, got %d", got)
	}
}

func TestIsOverdueAndWithinDays(t *testing.T) {
	now := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

	if IsOverdue(NewDate(2025, 4, 10), now) {
		t.Error("due today must not be overdue")
	}
	if !IsOverdue(NewDate(2025, 4, 9), now) {
		t.Error("due yesterday must be overdue")
	}
	if !IsWithinDays(NewDate(2025, 4, 10), 5, now) {
		t.Error("today is within 5 days")
	}
	if !IsWithinDays(NewDate(2025, 4, 15), 5, now) {
		t.Error("5 days ahead is within 5 days")
	}
	if IsWithinDays(NewDate(2025, 4, 16), 5, now) {
		t.Error("6 days ahead is not within 5 days")
	}
	if IsWithinDays(NewDate(2025, 4, 9), 5, now) {
		t.Error("past dates are never within days")
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-04-01", true},
		{" 2025-12-31 ", true},
		{"2025-02-30", false},
		{"01/04/2025", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q expected ok, got %v", tc.in, err)
			}
			if d.String() == "" {
				t.Fatalf("%q parsed to zero date", tc.in)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
		if !IsValidation(err) {
			t.Fatalf("%q expected validation error, got %v", tc.in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2025, 4, 5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2025-04-05"}` {
		t.Fatalf("unexpected json %s", b)
	}

	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.D.Equal(NewDate(2025, 4, 5)) {
		t.Fatalf("round trip mismatch: %s", out.D)
	}

	if err := json.Unmarshal([]byte(`{"d":"05/04/2025"}`), &out); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(NewDate(2025, 4, 5)); got != "05/04/2025" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := FormatDate(Date{}); got != "" {
		t.Fatalf("zero date should format empty, got %q", got)
	}
}
