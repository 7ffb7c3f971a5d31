package core

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	k := MonthKeyOf(NewDate(2025, 4, 17))
	if k != (MonthKey{Year: 2025, Month: 4}) {
		t.Fatalf("MonthKeyOf = %+v", k)
	}
	if k.String() != "2025-04" {
		t.Errorf("String = %q", k.String())
	}
	if k.Label() != "April 2025" {
		t.Errorf("Label = %q", k.Label())
	}
	if MonthKeyOf(NewDate(2025, 4, 1)).Label() != MonthKeyOf(NewDate(2025, 4, 30)).Label() {
		t.Error("labels within a month must match")
	}
	if !k.First().Equal(NewDate(2025, 4, 1)) || !k.Last().Equal(NewDate(2025, 4, 30)) {
		t.Errorf("bounds = %s..%s", k.First(), k.Last())
	}
	if k.Contains(NewDate(2025, 5, 1)) || !k.Contains(NewDate(2025, 4, 30)) {
		t.Error("Contains boundary wrong")
	}
}

func TestMonthKey_Navigation(t *testing.T) {
	dec := MonthKey{Year: 2024, Month: 12}
	if got := dec.Next(); got != (MonthKey{Year: 2025, Month: 1}) {
		t.Errorf("Next = %+v", got)
	}
	if got := (MonthKey{Year: 2025, Month: 1}).Prev(); got != dec {
		t.Errorf("Prev = %+v", got)
	}
	if got := (MonthKey{Year: 2024, Month: 2}).Days(); got != 29 {
		t.Errorf("leap February days = %d", got)
	}
	if got := (MonthKey{Year: 2025, Month: 2}).Days(); got != 28 {
		t.Errorf("February days = %d", got)
	}
}

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		in      string
		want    MonthKey
		wantErr bool
	}{
		{"2025-04", MonthKey{2025, 4}, false},
		{"2025-4", MonthKey{2025, 4}, false},
		{"2025-13", MonthKey{}, true},
		{"2025-00", MonthKey{}, true},
		{"April 2025", MonthKey{}, true},
		{"", MonthKey{}, true},
	}
	for _, tt := range tests {
		got, err := ParseMonthKey(tt.in)
		if tt.wantErr {
			if !IsValidation(err) {
				t.Errorf("ParseMonthKey(%q) err = %v, want validation error", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMonthKey(%q) = %+v, %v", tt.in, got, err)
		}
	}
}

func TestCurrentMonthKey_UsesLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 4, 30, 23, 0, 0, 0, brt)
	if got := CurrentMonthKey(now); got != (MonthKey{2025, 4}) {
		t.Errorf("local month = %+v", got)
	}
	if got := CurrentMonthKey(now.UTC()); got != (MonthKey{2025, 5}) {
		t.Errorf("utc month = %+v", got)
	}
}
