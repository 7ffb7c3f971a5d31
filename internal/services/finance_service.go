package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/store"
)

// EventPublisher announces record changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e amqp.RecordEvent) error
}

// monthRecords is the raw content of one month, cached between requests.
// Statuses are resolved on every read so the cache never holds derived state.
type monthRecords struct {
	expenses []core.Expense
	incomes  []core.Income
}

const (
	monthCacheSize = 24
	monthCacheTTL  = 5 * time.Minute
)

// FinanceService orchestrates the store, the engine and event publishing.
type FinanceService struct {
	store  store.Store
	events EventPublisher
	months *cache.LRUCache[core.MonthKey, monthRecords]
	loc    *time.Location
	now    func() time.Time
	newID  func() string
}

// NewFinanceService wires a service. events may be nil; loc is the household
// time zone used to decide what "today" is (UTC when nil).
func NewFinanceService(st store.Store, events EventPublisher, loc *time.Location) *FinanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &FinanceService{
		store:  st,
		events: events,
		months: cache.NewLRUCache[core.MonthKey, monthRecords](monthCacheSize, monthCacheTTL),
		loc:    loc,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Now returns the current time in the household time zone.
func (s *FinanceService) Now() time.Time {
	return s.now().In(s.loc)
}

// Cache exposes the month cache so it can be registered with a cache.Manager.
func (s *FinanceService) Cache() cache.Cleaner {
	return s.months
}

// ExpenseInput is a new expense as submitted by a user.
type ExpenseInput struct {
	Description string
	Amount      core.Money
	DueDate     core.Date
	PaidBy      core.Person
	Category    string
	Paid        bool
}

// IncomeInput is a new income as submitted by a user.
type IncomeInput struct {
	Description string
	Amount      core.Money
	Date        core.Date
	ReceivedBy  core.Person
	Category    string
	IsRecurring bool
}

func (s *FinanceService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	now := s.Now()
	e := core.Expense{
		ID:          s.newID(),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		DueDate:     in.DueDate,
		PaidBy:      in.PaidBy,
		Category:    strings.TrimSpace(in.Category),
		CreatedAt:   now.UTC(),
	}
	if in.Paid {
		e.Status = core.StatusPaid
	}
	e.Status = core.ResolveStatus(e, now)

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.invalidate(e.DueDate)
	s.publish(ctx, amqp.KindExpense, amqp.OpUpsert, e.ID, e.DueDate)

	slog.InfoContext(ctx, "Expense created",
		"expense_id", e.ID,
		"amount_cents", e.Amount.Cents,
		"due_date", e.DueDate.String(),
		"paid_by", e.PaidBy,
		"status", e.Status)
	return e, nil
}

// GetExpense returns the expense with its status resolved at the current time.
func (s *FinanceService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	e.Status = core.ResolveStatus(e, s.Now())
	return e, nil
}

// UpdateExpense applies a partial update. The resulting record is validated
// as a whole before anything is written. Only a move to paid is stored from
// the patch; any other status is derived from the due date on read, and a
// paid expense refuses to leave paid.
func (s *FinanceService) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	cur, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if err := p.CheckTransition(cur); err != nil {
		return core.Expense{}, err
	}
	if p.Status != nil && *p.Status != core.StatusPaid {
		p.Status = nil
	}
	if p.IsEmpty() {
		cur.Status = core.ResolveStatus(cur, s.Now())
		return cur, nil
	}

	if err := p.Apply(cur).Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := s.store.UpdateExpense(ctx, id, p); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}

	// Read back: a concurrent write may have landed between the two calls.
	next, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("reload expense %s: %w", id, err)
	}
	next.Status = core.ResolveStatus(next, s.Now())

	s.invalidate(cur.DueDate, next.DueDate)
	s.publishMove(ctx, amqp.KindExpense, id, cur.DueDate, next.DueDate)

	slog.InfoContext(ctx, "Expense updated", "expense_id", id, "status", next.Status)
	return next, nil
}

// MarkPaid moves an expense to the terminal paid state. Marking an already
// paid expense succeeds without writing.
func (s *FinanceService) MarkPaid(ctx context.Context, id string) (core.Expense, error) {
	cur, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if cur.IsPaid() {
		return cur, nil
	}
	paid := core.StatusPaid
	return s.UpdateExpense(ctx, id, core.ExpensePatch{Status: &paid})
}

func (s *FinanceService) DeleteExpense(ctx context.Context, id string) error {
	cur, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.invalidate(cur.DueDate)
	s.publish(ctx, amqp.KindExpense, amqp.OpDelete, id, cur.DueDate)

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
	return nil
}

// ListExpenses returns resolved expenses matching f, optionally narrowed to
// one status. Status filtering happens after resolution.
func (s *FinanceService) ListExpenses(ctx context.Context, f store.ExpenseFilter, status *core.Status) ([]core.Expense, error) {
	list, err := s.store.FindExpenses(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	list = core.ResolveStatuses(list, s.Now())
	if status != nil {
		list = core.FilterByStatus(list, *status)
	}
	return list, nil
}

func (s *FinanceService) CreateIncome(ctx context.Context, in IncomeInput) (core.Income, error) {
	inc := core.Income{
		ID:          s.newID(),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        in.Date,
		ReceivedBy:  in.ReceivedBy,
		Category:    strings.TrimSpace(in.Category),
		IsRecurring: in.IsRecurring,
		CreatedAt:   s.Now().UTC(),
	}
	if err := inc.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := s.store.InsertIncome(ctx, inc); err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	s.invalidate(inc.Date)
	s.publish(ctx, amqp.KindIncome, amqp.OpUpsert, inc.ID, inc.Date)

	slog.InfoContext(ctx, "Income created",
		"income_id", inc.ID,
		"amount_cents", inc.Amount.Cents,
		"date", inc.Date.String(),
		"received_by", inc.ReceivedBy)
	return inc, nil
}

func (s *FinanceService) GetIncome(ctx context.Context, id string) (core.Income, error) {
	return s.store.GetIncome(ctx, id)
}

func (s *FinanceService) UpdateIncome(ctx context.Context, id string, p core.IncomePatch) (core.Income, error) {
	cur, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, err
	}
	if p.IsEmpty() {
		return cur, nil
	}
	next := p.Apply(cur)
	if err := next.Validate(); err != nil {
		return core.Income{}, err
	}
	if _, err := s.store.UpdateIncome(ctx, id, p); err != nil {
		return core.Income{}, fmt.Errorf("update income %s: %w", id, err)
	}
	s.invalidate(cur.Date, next.Date)
	s.publishMove(ctx, amqp.KindIncome, id, cur.Date, next.Date)

	slog.InfoContext(ctx, "Income updated", "income_id", id)
	return next, nil
}

func (s *FinanceService) DeleteIncome(ctx context.Context, id string) error {
	cur, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income %s: %w", id, err)
	}
	s.invalidate(cur.Date)
	s.publish(ctx, amqp.KindIncome, amqp.OpDelete, id, cur.Date)

	slog.InfoContext(ctx, "Income deleted", "income_id", id)
	return nil
}

func (s *FinanceService) ListIncomes(ctx context.Context, f store.IncomeFilter) ([]core.Income, error) {
	list, err := s.store.FindIncomes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return list, nil
}

// MonthView loads the month's records, concurrently on a cache miss, and
// computes the resolved view at the current time.
func (s *FinanceService) MonthView(ctx context.Context, month core.MonthKey) (core.MonthView, error) {
	if err := month.Validate(); err != nil {
		return core.MonthView{}, err
	}
	recs, err := s.loadMonth(ctx, month)
	if err != nil {
		return core.MonthView{}, err
	}
	return core.NewMonthView(recs.expenses, recs.incomes, month, s.Now()), nil
}

// Summary returns only the computed summary for month.
func (s *FinanceService) Summary(ctx context.Context, month core.MonthKey) (core.FinancialSummary, error) {
	v, err := s.MonthView(ctx, month)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	return v.Summary, nil
}

func (s *FinanceService) loadMonth(ctx context.Context, month core.MonthKey) (monthRecords, error) {
	if recs, ok := s.months.Get(month); ok {
		return recs, nil
	}

	var recs monthRecords
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.store.FindExpenses(gctx, store.ExpenseFilter{Month: &month})
		if err != nil {
			return fmt.Errorf("load expenses for %s: %w", month, err)
		}
		recs.expenses = list
		return nil
	})
	g.Go(func() error {
		list, err := s.store.FindIncomes(gctx, store.IncomeFilter{Month: &month})
		if err != nil {
			return fmt.Errorf("load incomes for %s: %w", month, err)
		}
		recs.incomes = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return monthRecords{}, err
	}

	s.months.Set(month, recs)
	return recs, nil
}

// Ping reports whether the store is reachable.
func (s *FinanceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *FinanceService) invalidate(dates ...core.Date) {
	for _, d := range dates {
		if !d.IsZero() {
			s.months.Delete(core.MonthKeyOf(d))
		}
	}
}

// InvalidateAll drops every cached month.
func (s *FinanceService) InvalidateAll() {
	s.months.Clear()
}

// publish is best effort: the mutation already happened, so a failure is
// only logged.
func (s *FinanceService) publish(ctx context.Context, kind, op, id string, d core.Date) {
	if s.events == nil {
		return
	}
	ev := amqp.NewRecordEvent(kind, op, id, core.MonthKeyOf(d).String())
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish record event",
			"kind", kind,
			"op", op,
			"id", id,
			"error", err)
	}
}

// publishMove announces an upsert for the record's month and, when the date
// crossed into another month, for the month it left.
func (s *FinanceService) publishMove(ctx context.Context, kind, id string, from, to core.Date) {
	s.publish(ctx, kind, amqp.OpUpsert, id, to)
	if core.MonthKeyOf(from) != core.MonthKeyOf(to) {
		s.publish(ctx, kind, amqp.OpUpsert, id, from)
	}
}

// Close releases the store and the publisher.
func (s *FinanceService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.events.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}
	return errors.Join(errs...)
}
