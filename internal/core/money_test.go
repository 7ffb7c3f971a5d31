package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"12.34", 1234, nil},
		{"0", 0, nil},
		{"1234", 123400, nil},
		{"1.234,56", 123456, nil},
		{"R$ 1.234,56", 123456, nil},
		{"R$0,99", 99, nil},
		{"12,5", 1250, nil},
		{"0.005", 1, nil},
		{"0.004", 0, nil},
		{"-1", 0, ErrNegativeAmount},
		{"", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1e3", 0, ErrInvalidAmount},
		{"1,2,3", 0, ErrInvalidAmount},
		{"99999999999999999999", 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseAmount(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				if !IsValidation(err) {
					t.Fatalf("ParseAmount(%q) error is not a validation error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := Cents(1050), Cents(2000)
	if got := a.Add(b); got.Cents != 3050 {
		t.Errorf("Add = %d", got.Cents)
	}
	if got := a.Sub(b); !got.IsNegative() || got.Cents != -950 {
		t.Errorf("Sub = %d", got.Cents)
	}
	if got := a.Neg(); got.Cents != -1050 {
		t.Errorf("Neg = %d", got.Cents)
	}
	if got := a.Decimal().String(); got != "10.5" {
		t.Errorf("Decimal = %s", got)
	}
	if err := Cents(-1).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Validate(-1) = %v", err)
	}
	if err := Cents(0).Validate(); err != nil {
		t.Errorf("zero should be valid, got %v", err)
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{99, "R$ 0,99"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-20000, "-R$ 200,00"},
	}
	for _, tt := range tests {
		if got := FormatBRL(Cents(tt.cents)); got != tt.want {
			t.Errorf("FormatBRL(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestFormatMonth(t *testing.T) {
	if got := FormatMonth(MonthKey{Year: 2025, Month: 3}); got != "março 2025" {
		t.Errorf("FormatMonth = %q", got)
	}
	if got := FormatMonth(MonthKey{Year: 2024, Month: 12}); got != "dezembro 2024" {
		t.Errorf("FormatMonth = %q", got)
	}
	if got := FormatMonth(MonthKey{Year: 2024, Month: 13}); got != "2024-13" {
		t.Errorf("FormatMonth(invalid) = %q", got)
	}
}
