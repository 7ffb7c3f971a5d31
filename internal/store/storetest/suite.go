// Package storetest holds the contract suite every store adapter must pass.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"financas/internal/core"
	"financas/internal/store"
)

// StoreSuite runs the store contract against the adapter returned by Open.
type StoreSuite struct {
	suite.Suite
	Open  func() (store.Store, error)
	store store.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	st, err := s.Open()
	require.NoError(s.T(), err, "failed to open store")
	s.store = st
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

var created = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

func expense(id string, due core.Date) core.Expense {
	return core.Expense{
		ID:          id,
		Description: "Energia",
		Amount:      core.Cents(32050),
		DueDate:     due,
		PaidBy:      core.Partner1,
		Status:      core.StatusPending,
		Category:    "contas",
		CreatedAt:   created,
	}
}

func income(id string, d core.Date) core.Income {
	return core.Income{
		ID:          id,
		Description: "Salário",
		Amount:      core.Cents(650000),
		Date:        d,
		ReceivedBy:  core.Partner2,
		Category:    "salário",
		IsRecurring: true,
		CreatedAt:   created,
	}
}

func (s *StoreSuite) TestExpenseRoundTrip() {
	want := expense("e1", core.NewDate(2025, 4, 8))
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, want))

	got, err := s.store.GetExpense(s.ctx, "e1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), want.ID, got.ID)
	assert.Equal(s.T(), want.Description, got.Description)
	assert.Equal(s.T(), want.Amount, got.Amount)
	assert.True(s.T(), want.DueDate.Equal(got.DueDate), "due date %s != %s", got.DueDate, want.DueDate)
	assert.Equal(s.T(), want.PaidBy, got.PaidBy)
	assert.Equal(s.T(), want.Status, got.Status)
	assert.Equal(s.T(), want.Category, got.Category)
	assert.True(s.T(), want.CreatedAt.Equal(got.CreatedAt), "created at %s != %s", got.CreatedAt, want.CreatedAt)
}

func (s *StoreSuite) TestInsertDuplicateExpense() {
	e := expense("dup", core.NewDate(2025, 4, 8))
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, e))
	err := s.store.InsertExpense(s.ctx, e)
	assert.True(s.T(), errors.Is(err, core.ErrConflict), "got %v", err)
}

func (s *StoreSuite) TestInsertInvalidExpense() {
	e := expense("bad", core.NewDate(2025, 4, 8))
	e.PaidBy = "someone"
	err := s.store.InsertExpense(s.ctx, e)
	assert.True(s.T(), core.IsValidation(err), "got %v", err)

	_, err = s.store.GetExpense(s.ctx, "bad")
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "invalid record must not be stored")
}

func (s *StoreSuite) TestFindExpensesOrderAndFilter() {
	april := core.MonthKey{Year: 2025, Month: 4}
	p2 := core.Partner2

	late := expense("late", core.NewDate(2025, 4, 25))
	early := expense("early", core.NewDate(2025, 4, 2))
	early.PaidBy = core.Partner2
	paid := expense("paid", core.NewDate(2025, 4, 10))
	paid.Status = core.StatusPaid
	other := expense("may", core.NewDate(2025, 5, 1))

	for _, e := range []core.Expense{late, early, paid, other} {
		require.NoError(s.T(), s.store.InsertExpense(s.ctx, e))
	}

	all, err := s.store.FindExpenses(s.ctx, store.ExpenseFilter{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"early", "paid", "late", "may"}, expenseIDs(all))

	inApril, err := s.store.FindExpenses(s.ctx, store.ExpenseFilter{Month: &april})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"early", "paid", "late"}, expenseIDs(inApril))

	unpaid, err := s.store.FindExpenses(s.ctx, store.ExpenseFilter{Month: &april, ExcludePaid: true})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"early", "late"}, expenseIDs(unpaid))

	byP2, err := s.store.FindExpenses(s.ctx, store.ExpenseFilter{PaidBy: &p2})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"early"}, expenseIDs(byP2))
}

func (s *StoreSuite) TestUpdateExpense() {
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, expense("e1", core.NewDate(2025, 4, 8))))

	amount := core.Cents(1)
	cat := "luz"
	n, err := s.store.UpdateExpense(s.ctx, "e1", core.ExpensePatch{Amount: &amount, Category: &cat})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	got, err := s.store.GetExpense(s.ctx, "e1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), amount, got.Amount)
	assert.Equal(s.T(), "luz", got.Category)
	assert.Equal(s.T(), "Energia", got.Description)

	_, err = s.store.UpdateExpense(s.ctx, "missing", core.ExpensePatch{Amount: &amount})
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)

	neg := core.Cents(-5)
	_, err = s.store.UpdateExpense(s.ctx, "e1", core.ExpensePatch{Amount: &neg})
	assert.True(s.T(), core.IsValidation(err), "got %v", err)
	got, _ = s.store.GetExpense(s.ctx, "e1")
	assert.Equal(s.T(), amount, got.Amount, "failed update must not partially apply")
}

func (s *StoreSuite) TestDeleteExpense() {
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, expense("e1", core.NewDate(2025, 4, 8))))

	n, err := s.store.DeleteExpense(s.ctx, "e1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	_, err = s.store.DeleteExpense(s.ctx, "e1")
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)
}

func (s *StoreSuite) TestSetDerivedStatusNeverTouchesPaid() {
	open := expense("open", core.NewDate(2025, 4, 8))
	paid := expense("paid", core.NewDate(2025, 4, 8))
	paid.Status = core.StatusPaid
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, open))
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, paid))

	changed, err := s.store.SetDerivedStatus(s.ctx, "open", core.StatusOverdue)
	require.NoError(s.T(), err)
	assert.True(s.T(), changed)

	changed, err = s.store.SetDerivedStatus(s.ctx, "open", core.StatusOverdue)
	require.NoError(s.T(), err)
	assert.False(s.T(), changed, "same status is not a change")

	changed, err = s.store.SetDerivedStatus(s.ctx, "paid", core.StatusOverdue)
	require.NoError(s.T(), err)
	assert.False(s.T(), changed)

	got, err := s.store.GetExpense(s.ctx, "paid")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.StatusPaid, got.Status)

	_, err = s.store.SetDerivedStatus(s.ctx, "missing", core.StatusOverdue)
	assert.True(s.T(), errors.Is(err, core.ErrNotFound), "got %v", err)
}

func (s *StoreSuite) TestPaidIsTerminal() {
	paid := expense("paid", core.NewDate(2025, 4, 8))
	paid.Status = core.StatusPaid
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, paid))

	pending := core.StatusPending
	_, err := s.store.UpdateExpense(s.ctx, "paid", core.ExpensePatch{Status: &pending})
	assert.True(s.T(), errors.Is(err, core.ErrPaidIsTerminal), "got %v", err)
	assert.True(s.T(), core.IsValidation(err))

	amount := core.Cents(999)
	_, err = s.store.UpdateExpense(s.ctx, "paid", core.ExpensePatch{Amount: &amount})
	require.NoError(s.T(), err)

	got, err := s.store.GetExpense(s.ctx, "paid")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.StatusPaid, got.Status)
	assert.Equal(s.T(), amount, got.Amount)

	require.NoError(s.T(), s.store.InsertExpense(s.ctx, expense("open", core.NewDate(2025, 4, 9))))
	toPaid := core.StatusPaid
	_, err = s.store.UpdateExpense(s.ctx, "open", core.ExpensePatch{Status: &toPaid})
	require.NoError(s.T(), err)
	got, err = s.store.GetExpense(s.ctx, "open")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.StatusPaid, got.Status)
}

func (s *StoreSuite) TestIncomeLifecycle() {
	april := core.MonthKey{Year: 2025, Month: 4}
	rec := income("salary", core.NewDate(2025, 4, 5))
	bonus := income("bonus", core.NewDate(2025, 4, 1))
	bonus.IsRecurring = false

	require.NoError(s.T(), s.store.InsertIncome(s.ctx, rec))
	require.NoError(s.T(), s.store.InsertIncome(s.ctx, bonus))
	assert.True(s.T(), errors.Is(s.store.InsertIncome(s.ctx, rec), core.ErrConflict))

	got, err := s.store.GetIncome(s.ctx, "salary")
	require.NoError(s.T(), err)
	assert.True(s.T(), got.IsRecurring)
	assert.Equal(s.T(), rec.Amount, got.Amount)
	assert.True(s.T(), rec.Date.Equal(got.Date))

	list, err := s.store.FindIncomes(s.ctx, store.IncomeFilter{Month: &april})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"bonus", "salary"}, incomeIDs(list))

	recurring, err := s.store.FindIncomes(s.ctx, store.IncomeFilter{RecurringOnly: true})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"salary"}, incomeIDs(recurring))

	desc := "Salário abril"
	n, err := s.store.UpdateIncome(s.ctx, "salary", core.IncomePatch{Description: &desc})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	_, err = s.store.UpdateIncome(s.ctx, "nope", core.IncomePatch{Description: &desc})
	assert.True(s.T(), errors.Is(err, core.ErrNotFound))

	n, err = s.store.DeleteIncome(s.ctx, "bonus")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)
	_, err = s.store.GetIncome(s.ctx, "bonus")
	assert.True(s.T(), errors.Is(err, core.ErrNotFound))
}

func (s *StoreSuite) TestPingAndClose() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
	require.NoError(s.T(), s.store.Close())

	_, err := s.store.FindExpenses(s.ctx, store.ExpenseFilter{})
	assert.True(s.T(), errors.Is(err, core.ErrStoreUnavailable), "got %v", err)
	s.store = nil
}

func expenseIDs(es []core.Expense) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func incomeIDs(ins []core.Income) []string {
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.ID
	}
	return out
}
