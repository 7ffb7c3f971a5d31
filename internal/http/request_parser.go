// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Handlers accept the same fields as JSON or form-encoded bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/services"
	"financas/internal/store"
)

// maxBodyBytes caps request bodies; a record is a handful of short fields.
const maxBodyBytes = 64 << 10

// ParseMonthParams extracts the month from year/month query parameters,
// using now for whichever is missing. month may also carry the full
// YYYY-MM form.
func ParseMonthParams(query url.Values, now time.Time) (core.MonthKey, error) {
	current := core.CurrentMonthKey(now)
	monthStr := strings.TrimSpace(query.Get("month"))
	if strings.Contains(monthStr, "-") {
		return core.ParseMonthKey(monthStr)
	}

	year, month := current.Year, current.Month
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.MonthKey{}, &core.ValidationError{Field: "year", Err: core.ErrInvalidMonth}
		}
		year = y
	}
	if monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil {
			return core.MonthKey{}, &core.ValidationError{Field: "month", Err: core.ErrInvalidMonth}
		}
		month = m
	}
	return core.NewMonthKey(year, month)
}

// parseExpenseFilter reads the list filters of GET /api/expenses.
func parseExpenseFilter(query url.Values, now time.Time) (store.ExpenseFilter, *core.Status, error) {
	month, err := ParseMonthParams(query, now)
	if err != nil {
		return store.ExpenseFilter{}, nil, err
	}
	f := store.ExpenseFilter{Month: &month}

	if v := strings.TrimSpace(query.Get("paid_by")); v != "" {
		p, err := core.ParsePerson(v)
		if err != nil {
			return store.ExpenseFilter{}, nil, relabel("paid_by", err)
		}
		f.PaidBy = &p
	}

	var status *core.Status
	if v := strings.TrimSpace(query.Get("status")); v != "" && v != "all" {
		s, err := core.ParseStatus(v)
		if err != nil {
			return store.ExpenseFilter{}, nil, err
		}
		status = &s
	}
	return f, status, nil
}

func parseIncomeFilter(query url.Values, now time.Time) (store.IncomeFilter, error) {
	month, err := ParseMonthParams(query, now)
	if err != nil {
		return store.IncomeFilter{}, err
	}
	f := store.IncomeFilter{Month: &month}
	if v := strings.TrimSpace(query.Get("received_by")); v != "" {
		p, err := core.ParsePerson(v)
		if err != nil {
			return store.IncomeFilter{}, relabel("received_by", err)
		}
		f.ReceivedBy = &p
	}
	if v := strings.TrimSpace(query.Get("recurring")); v != "" {
		only, err := parseFlag("recurring", v)
		if err != nil {
			return store.IncomeFilter{}, err
		}
		f.RecurringOnly = only
	}
	return f, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = errors.New("request body too large")
		}
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("malformed JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Has reports whether key was sent at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

var errInvalidFlag = errors.New("invalid boolean")

// parseFlag reads a checkbox or JSON boolean. Empty means false; anything
// outside the known spellings is a validation error.
func parseFlag(field, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "sim":
		return true, nil
	case "", "0", "false", "off", "no", "nao", "não":
		return false, nil
	}
	return false, &core.ValidationError{Field: field, Err: errInvalidFlag}
}

// relabel reports a parser failure under the request's field name.
func relabel(field string, err error) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return &core.ValidationError{Field: field, Err: ve.Err}
	}
	return err
}

// amountField reads "amount" as a decimal string, or "amount_cents" as an
// integer when the client already works in cents.
func amountField(p *RequestBodyParser) (core.Money, error) {
	if p.Has("amount_cents") && !p.Has("amount") {
		c, err := strconv.ParseInt(p.Get("amount_cents"), 10, 64)
		if err != nil {
			return core.Money{}, &core.ValidationError{Field: "amount_cents", Err: core.ErrInvalidAmount}
		}
		m := core.Cents(c)
		if err := m.Validate(); err != nil {
			return core.Money{}, &core.ValidationError{Field: "amount_cents", Err: err}
		}
		return m, nil
	}
	return core.ParseAmount(p.Get("amount"))
}

func parseExpenseInput(p *RequestBodyParser) (services.ExpenseInput, error) {
	amount, err := amountField(p)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	due, err := core.ParseDate(p.Get("due_date"))
	if err != nil {
		return services.ExpenseInput{}, relabel("due_date", err)
	}
	paidBy, err := core.ParsePerson(p.Get("paid_by"))
	if err != nil {
		return services.ExpenseInput{}, relabel("paid_by", err)
	}
	paid, err := parseFlag("paid", p.Get("paid"))
	if err != nil {
		return services.ExpenseInput{}, err
	}
	// A non-paid status is accepted but derived from the due date.
	if v := p.Get("status"); v != "" {
		st, err := core.ParseStatus(v)
		if err != nil {
			return services.ExpenseInput{}, err
		}
		paid = paid || st == core.StatusPaid
	}
	return services.ExpenseInput{
		Description: p.Get("description"),
		Amount:      amount,
		DueDate:     due,
		PaidBy:      paidBy,
		Category:    p.Get("category"),
		Paid:        paid,
	}, nil
}

func parseExpensePatch(p *RequestBodyParser) (core.ExpensePatch, error) {
	var patch core.ExpensePatch
	if p.Has("description") {
		v := p.Get("description")
		patch.Description = &v
	}
	if p.Has("amount") || p.Has("amount_cents") {
		m, err := amountField(p)
		if err != nil {
			return patch, err
		}
		patch.Amount = &m
	}
	if p.Has("due_date") {
		d, err := core.ParseDate(p.Get("due_date"))
		if err != nil {
			return patch, relabel("due_date", err)
		}
		patch.DueDate = &d
	}
	if p.Has("paid_by") {
		who, err := core.ParsePerson(p.Get("paid_by"))
		if err != nil {
			return patch, relabel("paid_by", err)
		}
		patch.PaidBy = &who
	}
	if p.Has("status") {
		s, err := core.ParseStatus(p.Get("status"))
		if err != nil {
			return patch, err
		}
		patch.Status = &s
	}
	if p.Has("category") {
		v := p.Get("category")
		patch.Category = &v
	}
	return patch, nil
}

func parseIncomeInput(p *RequestBodyParser) (services.IncomeInput, error) {
	amount, err := amountField(p)
	if err != nil {
		return services.IncomeInput{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return services.IncomeInput{}, err
	}
	who, err := core.ParsePerson(p.Get("received_by"))
	if err != nil {
		return services.IncomeInput{}, relabel("received_by", err)
	}
	recurring, err := parseFlag("is_recurring", p.Get("is_recurring"))
	if err != nil {
		return services.IncomeInput{}, err
	}
	return services.IncomeInput{
		Description: p.Get("description"),
		Amount:      amount,
		Date:        date,
		ReceivedBy:  who,
		Category:    p.Get("category"),
		IsRecurring: recurring,
	}, nil
}

func parseIncomePatch(p *RequestBodyParser) (core.IncomePatch, error) {
	var patch core.IncomePatch
	if p.Has("description") {
		v := p.Get("description")
		patch.Description = &v
	}
	if p.Has("amount") || p.Has("amount_cents") {
		m, err := amountField(p)
		if err != nil {
			return patch, err
		}
		patch.Amount = &m
	}
	if p.Has("date") {
		d, err := core.ParseDate(p.Get("date"))
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if p.Has("received_by") {
		who, err := core.ParsePerson(p.Get("received_by"))
		if err != nil {
			return patch, relabel("received_by", err)
		}
		patch.ReceivedBy = &who
	}
	if p.Has("category") {
		v := p.Get("category")
		patch.Category = &v
	}
	if p.Has("is_recurring") {
		v, err := parseFlag("is_recurring", p.Get("is_recurring"))
		if err != nil {
			return patch, err
		}
		patch.IsRecurring = &v
	}
	return patch, nil
}
