package core

import "time"

// ResolveStatus derives the lifecycle state of an expense at now.
// A stored paid status is terminal and always wins.
func ResolveStatus(e Expense, now time.Time) Status {
	switch {
	case e.Status == StatusPaid:
		return StatusPaid
	case IsOverdue(e.DueDate, now):
		return StatusOverdue
	case IsWithinDays(e.DueDate, UpcomingWindowDays, now):
		return StatusUpcoming
	default:
		return StatusPending
	}
}

// ResolveStatuses returns copies of expenses with their status recomputed.
func ResolveStatuses(expenses []Expense, now time.Time) []Expense {
	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		e.Status = ResolveStatus(e, now)
		out[i] = e
	}
	return out
}

// FilterByStatus keeps the expenses whose status equals s. Expenses should be
// resolved first.
func FilterByStatus(expenses []Expense, s Status) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Status == s {
			out = append(out, e)
		}
	}
	return out
}
