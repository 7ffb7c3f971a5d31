package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthKey identifies a calendar month. It is the bucketing key for summaries;
// Label is for display only.
type MonthKey struct {
	Year  int
	Month int // 1-12
}

// MonthKeyOf returns the month a date falls in.
func MonthKeyOf(d Date) MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

// CurrentMonthKey returns the month of now in now's location.
func CurrentMonthKey(now time.Time) MonthKey {
	return MonthKey{Year: now.Year(), Month: int(now.Month())}
}

// NewMonthKey validates year and month.
func NewMonthKey(year, month int) (MonthKey, error) {
	k := MonthKey{Year: year, Month: month}
	if err := k.Validate(); err != nil {
		return MonthKey{}, err
	}
	return k, nil
}

// ParseMonthKey parses the YYYY-MM form produced by String.
func ParseMonthKey(s string) (MonthKey, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return MonthKey{}, invalid("month", ErrInvalidMonth)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return MonthKey{}, invalid("month", ErrInvalidMonth)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return MonthKey{}, invalid("month", ErrInvalidMonth)
	}
	return NewMonthKey(year, month)
}

func (k MonthKey) Validate() error {
	if k.Month < 1 || k.Month > 12 {
		return invalid("month", ErrInvalidMonth)
	}
	if k.Year < 1 || k.Year > 9999 {
		return invalid("year", ErrInvalidMonth)
	}
	return nil
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// Label renders "April 2025". Month names come from time.Month, so the output
// does not depend on the process locale.
func (k MonthKey) Label() string {
	return time.Month(k.Month).String() + " " + strconv.Itoa(k.Year)
}

// Contains reports whether d falls inside the month.
func (k MonthKey) Contains(d Date) bool {
	return MonthKeyOf(d) == k
}

// First returns the first day of the month.
func (k MonthKey) First() Date {
	return NewDate(k.Year, k.Month, 1)
}

// Last returns the last day of the month.
func (k MonthKey) Last() Date {
	return NewDate(k.Year, k.Month+1, 0)
}

// Days returns the number of days in the month.
func (k MonthKey) Days() int {
	return k.Last().Day()
}

func (k MonthKey) Next() MonthKey {
	return MonthKeyOf(NewDate(k.Year, k.Month+1, 1))
}

func (k MonthKey) Prev() MonthKey {
	return MonthKeyOf(NewDate(k.Year, k.Month-1, 1))
}

// Bounds returns the first and last day of the month.
func (k MonthKey) Bounds() (Date, Date) {
	return k.First(), k.Last()
}
