package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or delete references an unknown id.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when inserting a record whose id already exists.
	ErrConflict = errors.New("record already exists")
	// ErrStoreUnavailable wraps I/O failures coming from a store adapter.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrCategoryTooLong    = errors.New("category too long (max 60 characters)")
	ErrInvalidPerson      = errors.New("invalid person")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyID            = errors.New("empty id")
	ErrPaidIsTerminal     = errors.New("a paid expense cannot change status")
)

// ValidationError reports which field of a record was rejected and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrValidation) match every validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Unavailable wraps a store I/O error so callers can match ErrStoreUnavailable
// while keeping the underlying cause.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
