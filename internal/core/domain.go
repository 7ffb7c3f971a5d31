package core

import (
	"strings"
	"time"
)

const (
	Partner1 Person = "partner1"
	Partner2 Person = "partner2"
	Shared   Person = "shared"
)

const (
	StatusPending  Status = "pending"
	StatusUpcoming Status = "upcoming"
	StatusOverdue  Status = "overdue"
	StatusPaid     Status = "paid"
)

const (
	maxDescriptionLen = 200
	maxCategoryLen    = 60
)

type (
	// Person is who paid an expense or received an income.
	Person string

	// Status is the lifecycle state of an expense. Only StatusPaid is stored
	// truth; the others are derived from the due date on every read.
	Status string

	Expense struct {
		ID          string
		Description string
		Amount      Money
		DueDate     Date
		PaidBy      Person
		Status      Status
		Category    string
		CreatedAt   time.Time
	}

	Income struct {
		ID          string
		Description string
		Amount      Money
		Date        Date
		ReceivedBy  Person
		Category    string
		IsRecurring bool
		CreatedAt   time.Time
	}

	// ExpensePatch holds the fields of a partial update; nil means unchanged.
	ExpensePatch struct {
		Description *string
		Amount      *Money
		DueDate     *Date
		PaidBy      *Person
		Status      *Status
		Category    *string
	}

	IncomePatch struct {
		Description *string
		Amount      *Money
		Date        *Date
		ReceivedBy  *Person
		Category    *string
		IsRecurring *bool
	}
)

// People lists the valid Person values in display order.
func People() []Person {
	return []Person{Partner1, Partner2, Shared}
}

// Statuses lists the valid Status values in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusUpcoming, StatusOverdue, StatusPaid}
}

func ParsePerson(s string) (Person, error) {
	p := Person(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", invalid("person", ErrInvalidPerson)
	}
	return p, nil
}

func (p Person) Valid() bool {
	switch p {
	case Partner1, Partner2, Shared:
		return true
	}
	return false
}

// Label is the badge text shown for p.
func (p Person) Label() string {
	switch p {
	case Partner1:
		return "Partner 1"
	case Partner2:
		return "Partner 2"
	case Shared:
		return "Shared"
	}
	return string(p)
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid("status", ErrInvalidStatus)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUpcoming, StatusOverdue, StatusPaid:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusUpcoming:
		return "Upcoming"
	case StatusOverdue:
		return "Overdue"
	case StatusPaid:
		return "Paid"
	}
	return string(s)
}

func validateText(field, v string, max int, empty, tooLong error) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, empty)
	}
	if len(v) > max {
		return invalid(field, tooLong)
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateText("description", e.Description, maxDescriptionLen, ErrEmptyDescription, ErrDescriptionTooLong); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if err := e.DueDate.Validate(); err != nil {
		return invalid("due_date", err)
	}
	if !e.PaidBy.Valid() {
		return invalid("paid_by", ErrInvalidPerson)
	}
	if !e.Status.Valid() {
		return invalid("status", ErrInvalidStatus)
	}
	return validateText("category", e.Category, maxCategoryLen, ErrEmptyCategory, ErrCategoryTooLong)
}

// IsPaid reports whether the stored status is the terminal paid state.
func (e Expense) IsPaid() bool {
	return e.Status == StatusPaid
}

func (i Income) Validate() error {
	if err := validateText("description", i.Description, maxDescriptionLen, ErrEmptyDescription, ErrDescriptionTooLong); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if err := i.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if !i.ReceivedBy.Valid() {
		return invalid("received_by", ErrInvalidPerson)
	}
	return validateText("category", i.Category, maxCategoryLen, ErrEmptyCategory, ErrCategoryTooLong)
}

// Apply returns a copy of e with the patch applied. The result is not validated.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.DueDate != nil {
		e.DueDate = *p.DueDate
	}
	if p.PaidBy != nil {
		e.PaidBy = *p.PaidBy
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	return e
}

func (p ExpensePatch) IsEmpty() bool {
	return p == ExpensePatch{}
}

// CheckTransition rejects a patch that would move a paid expense to any
// other status. Stores call it under their own lock or transaction.
func (p ExpensePatch) CheckTransition(cur Expense) error {
	if cur.IsPaid() && p.Status != nil && *p.Status != StatusPaid {
		return invalid("status", ErrPaidIsTerminal)
	}
	return nil
}

// Validate checks only the fields the patch sets.
func (p ExpensePatch) Validate() error {
	if p.Description != nil {
		if err := validateText("description", strings.TrimSpace(*p.Description), maxDescriptionLen, ErrEmptyDescription, ErrDescriptionTooLong); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return invalid("amount", err)
		}
	}
	if p.DueDate != nil {
		if err := p.DueDate.Validate(); err != nil {
			return invalid("due_date", err)
		}
	}
	if p.PaidBy != nil && !p.PaidBy.Valid() {
		return invalid("paid_by", ErrInvalidPerson)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", ErrInvalidStatus)
	}
	if p.Category != nil {
		return validateText("category", strings.TrimSpace(*p.Category), maxCategoryLen, ErrEmptyCategory, ErrCategoryTooLong)
	}
	return nil
}

func (p IncomePatch) Apply(i Income) Income {
	if p.Description != nil {
		i.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		i.Amount = *p.Amount
	}
	if p.Date != nil {
		i.Date = *p.Date
	}
	if p.ReceivedBy != nil {
		i.ReceivedBy = *p.ReceivedBy
	}
	if p.Category != nil {
		i.Category = strings.TrimSpace(*p.Category)
	}
	if p.IsRecurring != nil {
		i.IsRecurring = *p.IsRecurring
	}
	return i
}

func (p IncomePatch) IsEmpty() bool {
	return p == IncomePatch{}
}

// Validate checks only the fields the patch sets.
func (p IncomePatch) Validate() error {
	if p.Description != nil {
		if err := validateText("description", strings.TrimSpace(*p.Description), maxDescriptionLen, ErrEmptyDescription, ErrDescriptionTooLong); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return invalid("amount", err)
		}
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return invalid("date", err)
		}
	}
	if p.ReceivedBy != nil && !p.ReceivedBy.Valid() {
		return invalid("received_by", ErrInvalidPerson)
	}
	if p.Category != nil {
		return validateText("category", strings.TrimSpace(*p.Category), maxCategoryLen, ErrEmptyCategory, ErrCategoryTooLong)
	}
	return nil
}
