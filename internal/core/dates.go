package core

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the canonical wire and storage form of a Date.
const DateLayout = "2006-01-02"

// UpcomingWindowDays is how many days ahead an unpaid expense counts as upcoming.
const UpcomingWindowDays = 5

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without time of day, held at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the time of day from t, reading the calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal compares calendar dates.
func (d Date) Equal(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return invalid("date", ErrInvalidDate)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// epochDay assumes d sits at midnight UTC.
func (d Date) epochDay() int64 {
	return d.Unix() / secondsPerDay
}

// DaysUntilDue counts whole days from the calendar date of now to due.
// Same day is 0, future dates are positive, past dates negative.
func DaysUntilDue(due Date, now time.Time) int {
	return int(DateOf(due.Time).epochDay() - DateOf(now).epochDay())
}

// IsOverdue reports whether due lies before today.
func IsOverdue(due Date, now time.Time) bool {
	return DaysUntilDue(due, now) < 0
}

// IsWithinDays reports whether due is today or at most n days ahead.
func IsWithinDays(due Date, n int, now time.Time) bool {
	days := DaysUntilDue(due, now)
	return days >= 0 && days <= n
}
