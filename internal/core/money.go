// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Decimal values only appear at the edges:
// ParseAmount for user input and Decimal/FormatBRL for output.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

// Cents is a convenience constructor.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// Validate rejects negative amounts; zero is allowed.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// ParseAmount converts user input into cents with half-up rounding.
//
// Both "1234.56" and the Brazilian "1.234,56" are accepted, as is an optional
// "R$" prefix. When a comma is present it is the decimal separator and dots
// are thousand separators.
//
// Examples:
//
//	ParseAmount("12.34")     -> 1234
//	ParseAmount("1.234,56")  -> 123456
//	ParseAmount("R$ 0,005")  -> 1 (rounds up)
//	ParseAmount("-1")        -> ValidationError
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	if strings.ContainsAny(s, ",eE") {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	if d.IsNegative() {
		return Money{}, invalid("amount", ErrNegativeAmount)
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	return Money{Cents: cents.IntPart()}, nil
}
