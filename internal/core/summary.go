package core

import (
	"sort"
	"time"
)

// FinancialSummary is the computed view of one month.
type FinancialSummary struct {
	Month         MonthKey
	TotalIncome   Money
	TotalExpenses Money
	Balance       Money
	// NegativeDate is the first date the running balance drops below zero,
	// nil when the month closes non-negative.
	NegativeDate *Date
}

// PersonTotals aggregates one person's share of a month.
type PersonTotals struct {
	Person   Person
	Income   Money
	Expenses Money
}

type ledgerEvent struct {
	date   Date
	amount int64
	income bool
}

// Summarize buckets expenses by due date and incomes by date into month, then
// totals them. When the balance is negative it replays the month in date
// order from zero, incomes before expenses on the same day, and records the
// first date the running total goes below zero. Prior months are not carried
// over.
func Summarize(expenses []Expense, incomes []Income, month MonthKey) FinancialSummary {
	s := FinancialSummary{Month: month}

	var events []ledgerEvent
	for _, in := range incomes {
		if !month.Contains(in.Date) {
			continue
		}
		s.TotalIncome = s.TotalIncome.Add(in.Amount)
		events = append(events, ledgerEvent{date: in.Date, amount: in.Amount.Cents, income: true})
	}
	for _, e := range expenses {
		if !month.Contains(e.DueDate) {
			continue
		}
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		events = append(events, ledgerEvent{date: e.DueDate, amount: -e.Amount.Cents})
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)

	if !s.Balance.IsNegative() {
		return s
	}
	s.NegativeDate = firstNegativeDate(events)
	return s
}

func firstNegativeDate(events []ledgerEvent) *Date {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date.Time)
		}
		return a.income && !b.income
	})

	var running int64
	for _, ev := range events {
		running += ev.amount
		if running < 0 {
			d := ev.date
			return &d
		}
	}
	return nil
}

// SummarizeByPerson splits the month's totals by who paid or received.
// The result always has one entry per Person, in People() order.
func SummarizeByPerson(expenses []Expense, incomes []Income, month MonthKey) []PersonTotals {
	idx := make(map[Person]int, 3)
	out := make([]PersonTotals, 0, 3)
	for i, p := range People() {
		idx[p] = i
		out = append(out, PersonTotals{Person: p})
	}
	for _, in := range incomes {
		if i, ok := idx[in.ReceivedBy]; ok && month.Contains(in.Date) {
			out[i].Income = out[i].Income.Add(in.Amount)
		}
	}
	for _, e := range expenses {
		if i, ok := idx[e.PaidBy]; ok && month.Contains(e.DueDate) {
			out[i].Expenses = out[i].Expenses.Add(e.Amount)
		}
	}
	return out
}

// MonthView is everything the presentation layer shows for a month:
// resolved expenses, incomes and the computed summary.
type MonthView struct {
	Month    MonthKey
	Expenses []Expense
	Incomes  []Income
	Summary  FinancialSummary
	ByPerson []PersonTotals
}

// NewMonthView resolves statuses at now and computes the summaries.
// Records outside month are dropped.
func NewMonthView(expenses []Expense, incomes []Income, month MonthKey, now time.Time) MonthView {
	v := MonthView{Month: month}
	for _, e := range ResolveStatuses(expenses, now) {
		if month.Contains(e.DueDate) {
			v.Expenses = append(v.Expenses, e)
		}
	}
	for _, in := range incomes {
		if month.Contains(in.Date) {
			v.Incomes = append(v.Incomes, in)
		}
	}
	v.Summary = Summarize(v.Expenses, v.Incomes, month)
	v.ByPerson = SummarizeByPerson(v.Expenses, v.Incomes, month)
	return v
}
