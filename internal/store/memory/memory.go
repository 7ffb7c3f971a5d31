// Package memory is a process-local store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"financas/internal/core"
	"financas/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	expenses map[string]core.Expense
	incomes  map[string]core.Income
	closed   bool
}

func New() *Store {
	return &Store{
		expenses: make(map[string]core.Expense),
		incomes:  make(map[string]core.Income),
	}
}

func (s *Store) FindExpenses(_ context.Context, f store.ExpenseFilter) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed("find expenses")
	}
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return core.Expense{}, errClosed("get expense")
	}
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) error {
	if e.ID == "" {
		return &core.ValidationError{Field: "id", Err: core.ErrEmptyID}
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed("insert expense")
	}
	if _, ok := s.expenses[e.ID]; ok {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrConflict)
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, id string, p core.ExpensePatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("update expense")
	}
	cur, ok := s.expenses[id]
	if !ok {
		return 0, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err := p.CheckTransition(cur); err != nil {
		return 0, err
	}
	next := p.Apply(cur)
	if err := next.Validate(); err != nil {
		return 0, err
	}
	s.expenses[id] = next
	return 1, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("delete expense")
	}
	if _, ok := s.expenses[id]; !ok {
		return 0, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	return 1, nil
}

func (s *Store) SetDerivedStatus(_ context.Context, id string, st core.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, errClosed("set status")
	}
	cur, ok := s.expenses[id]
	if !ok {
		return false, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if cur.IsPaid() || cur.Status == st {
		return false, nil
	}
	cur.Status = st
	s.expenses[id] = cur
	return true, nil
}

func (s *Store) FindIncomes(_ context.Context, f store.IncomeFilter) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed("find incomes")
	}
	out := make([]core.Income, 0, len(s.incomes))
	for _, in := range s.incomes {
		if f.Matches(in) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, id string) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return core.Income{}, errClosed("get income")
	}
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	return in, nil
}

func (s *Store) InsertIncome(_ context.Context, in core.Income) error {
	if in.ID == "" {
		return &core.ValidationError{Field: "id", Err: core.ErrEmptyID}
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed("insert income")
	}
	if _, ok := s.incomes[in.ID]; ok {
		return fmt.Errorf("income %s: %w", in.ID, core.ErrConflict)
	}
	s.incomes[in.ID] = in
	return nil
}

func (s *Store) UpdateIncome(_ context.Context, id string, p core.IncomePatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("update income")
	}
	cur, ok := s.incomes[id]
	if !ok {
		return 0, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	next := p.Apply(cur)
	if err := next.Validate(); err != nil {
		return 0, err
	}
	s.incomes[id] = next
	return 1, nil
}

func (s *Store) DeleteIncome(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed("delete income")
	}
	if _, ok := s.incomes[id]; !ok {
		return 0, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	delete(s.incomes, id)
	return 1, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed("ping")
	}
	return nil
}

// Close marks the store closed; later calls fail with core.ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func errClosed(op string) error {
	return core.Unavailable(op, fmt.Errorf("memory store closed"))
}
