package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/store"
	"financas/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) last() amqp.RecordEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// countingStore counts reads so cache behaviour can be observed.
type countingStore struct {
	store.Store
	mu    sync.Mutex
	finds int
}

func (s *countingStore) FindExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	s.finds++
	s.mu.Unlock()
	return s.Store.FindExpenses(ctx, f)
}

var fixedNow = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*FinanceService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewFinanceService(memory.New(), pub, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return svc, pub
}

func rent() ExpenseInput {
	return ExpenseInput{
		Description: "  Aluguel ",
		Amount:      core.Cents(280000),
		DueDate:     core.NewDate(2025, 4, 12),
		PaidBy:      core.Shared,
		Category:    "moradia",
	}
}

func TestCreateExpense(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, rent())
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, "Aluguel", e.Description)
	assert.Equal(t, core.StatusUpcoming, e.Status)
	assert.True(t, e.CreatedAt.Equal(fixedNow))

	got, err := svc.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	ev := pub.last()
	assert.Equal(t, amqp.KindExpense, ev.Kind)
	assert.Equal(t, amqp.OpUpsert, ev.Op)
	assert.Equal(t, "2025-04", ev.Month)
}

func TestCreateExpense_ValidationStopsWrite(t *testing.T) {
	svc, pub := newTestService(t)
	in := rent()
	in.PaidBy = "neighbour"

	_, err := svc.CreateExpense(context.Background(), in)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, pub.events)

	list, err := svc.ListExpenses(context.Background(), store.ExpenseFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateExpense_PublishFailureKeepsRecord(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	e, err := svc.CreateExpense(context.Background(), rent())
	require.NoError(t, err)
	_, err = svc.GetExpense(context.Background(), e.ID)
	assert.NoError(t, err)
}

func TestMarkPaid(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	e, err := svc.CreateExpense(ctx, rent())
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, paid.Status)
	published := len(pub.events)

	again, err := svc.MarkPaid(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, again.Status)
	assert.Len(t, pub.events, published, "marking twice must not write again")

	// Time passing never reverts paid.
	svc.now = func() time.Time { return fixedNow.AddDate(1, 0, 0) }
	got, err := svc.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, got.Status)

	_, err = svc.MarkPaid(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestUpdateExpense(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	e, err := svc.CreateExpense(ctx, rent())
	require.NoError(t, err)

	t.Run("date change re-derives status", func(t *testing.T) {
		due := core.NewDate(2025, 4, 1)
		got, err := svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{DueDate: &due})
		require.NoError(t, err)
		assert.Equal(t, core.StatusOverdue, got.Status)
	})

	t.Run("manual derived status is ignored", func(t *testing.T) {
		pending := core.StatusPending
		got, err := svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{Status: &pending})
		require.NoError(t, err)
		assert.Equal(t, core.StatusOverdue, got.Status)
	})

	t.Run("paid cannot be reverted", func(t *testing.T) {
		_, err := svc.MarkPaid(ctx, e.ID)
		require.NoError(t, err)
		pending := core.StatusPending
		_, err = svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{Status: &pending})
		assert.True(t, errors.Is(err, core.ErrPaidIsTerminal), "got %v", err)
		assert.True(t, core.IsValidation(err))

		got, err := svc.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, core.StatusPaid, got.Status)
	})

	t.Run("editing a paid expense keeps it paid", func(t *testing.T) {
		amount := core.Cents(290000)
		got, err := svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, core.StatusPaid, got.Status)
		assert.Equal(t, amount, got.Amount)
	})

	t.Run("invalid patch does not apply", func(t *testing.T) {
		empty := "   "
		amount := core.Cents(1)
		_, err := svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{Description: &empty, Amount: &amount})
		assert.True(t, core.IsValidation(err))
		got, err := svc.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, core.Cents(290000), got.Amount)
	})

	t.Run("moving month announces both months", func(t *testing.T) {
		before := len(pub.events)
		due := core.NewDate(2025, 5, 2)
		_, err := svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{DueDate: &due})
		require.NoError(t, err)
		require.Len(t, pub.events, before+2)
		assert.Equal(t, "2025-05", pub.events[before].Month)
		assert.Equal(t, "2025-04", pub.events[before+1].Month)
	})

	t.Run("unknown id", func(t *testing.T) {
		amount := core.Cents(1)
		_, err := svc.UpdateExpense(ctx, "nope", core.ExpensePatch{Amount: &amount})
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})
}

// payingStore marks the expense paid right before the next update lands,
// as a second client would between the service's read and write.
type payingStore struct {
	store.Store
	once bool
}

func (s *payingStore) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (int64, error) {
	if !s.once {
		s.once = true
		paid := core.StatusPaid
		if _, err := s.Store.UpdateExpense(ctx, id, core.ExpensePatch{Status: &paid}); err != nil {
			return 0, err
		}
	}
	return s.Store.UpdateExpense(ctx, id, p)
}

func TestUpdateExpense_ConcurrentMarkPaidSurvives(t *testing.T) {
	st := &payingStore{Store: memory.New()}
	svc := NewFinanceService(st, nil, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, rent())
	require.NoError(t, err)
	require.NotEqual(t, core.StatusPaid, e.Status)

	amount := core.Cents(999)
	got, err := svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, got.Status)

	stored, err := st.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, stored.Status)
	assert.Equal(t, amount, stored.Amount)
}

func TestDeleteExpense(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	e, err := svc.CreateExpense(ctx, rent())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, e.ID))
	assert.Equal(t, amqp.OpDelete, pub.last().Op)
	assert.True(t, errors.Is(svc.DeleteExpense(ctx, e.ID), core.ErrNotFound))
}

func TestListExpenses_StatusFilterAfterResolution(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, day := range []int{1, 11, 28} {
		in := rent()
		in.DueDate = core.NewDate(2025, 4, day)
		_, err := svc.CreateExpense(ctx, in)
		require.NoError(t, err)
	}

	// Stored statuses go stale as time passes; the filter must see fresh ones.
	svc.now = func() time.Time { return time.Date(2025, 4, 27, 9, 0, 0, 0, time.UTC) }
	overdue := core.StatusOverdue
	list, err := svc.ListExpenses(ctx, store.ExpenseFilter{}, &overdue)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMonthView_CacheAndInvalidation(t *testing.T) {
	counting := &countingStore{Store: memory.New()}
	svc := NewFinanceService(counting, nil, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()
	april := core.MonthKey{Year: 2025, Month: 4}

	_, err := svc.CreateIncome(ctx, IncomeInput{
		Description: "Salário", Amount: core.Cents(100000), Date: core.NewDate(2025, 4, 1),
		ReceivedBy: core.Partner1, Category: "salário",
	})
	require.NoError(t, err)
	e, err := svc.CreateExpense(ctx, rent())
	require.NoError(t, err)

	v, err := svc.MonthView(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, int64(-180000), v.Summary.Balance.Cents)
	require.NotNil(t, v.Summary.NegativeDate)
	assert.Equal(t, 12, v.Summary.NegativeDate.Day())

	_, err = svc.MonthView(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.finds, "second view should come from cache")

	// Moving the expense to May invalidates both months.
	may := core.NewDate(2025, 5, 3)
	_, err = svc.UpdateExpense(ctx, e.ID, core.ExpensePatch{DueDate: &may})
	require.NoError(t, err)

	v, err = svc.MonthView(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.finds)
	assert.Equal(t, int64(100000), v.Summary.Balance.Cents)
	assert.Nil(t, v.Summary.NegativeDate)

	_, err = svc.MonthView(ctx, core.MonthKey{Year: 2025, Month: 13})
	assert.True(t, core.IsValidation(err))
}

func TestIncomeLifecycle(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	in, err := svc.CreateIncome(ctx, IncomeInput{
		Description: "Freelance", Amount: core.Cents(50000), Date: core.NewDate(2025, 4, 20),
		ReceivedBy: core.Partner2, Category: "extra",
	})
	require.NoError(t, err)
	assert.Equal(t, amqp.KindIncome, pub.last().Kind)

	rec := true
	got, err := svc.UpdateIncome(ctx, in.ID, core.IncomePatch{IsRecurring: &rec})
	require.NoError(t, err)
	assert.True(t, got.IsRecurring)

	require.NoError(t, svc.DeleteIncome(ctx, in.ID))
	_, err = svc.GetIncome(ctx, in.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestClose(t *testing.T) {
	svc := NewFinanceService(memory.New(), nil, nil)
	assert.NoError(t, svc.Close())
	assert.True(t, errors.Is(svc.Ping(context.Background()), core.ErrStoreUnavailable))
}
