package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"financas/internal/core"
	"financas/internal/store"
	"financas/internal/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	suite.Run(t, &storetest.StoreSuite{
		Open: func() (store.Store, error) { return New(), nil },
	})
}

func TestConcurrentInsertsSameID(t *testing.T) {
	s := New()
	e := core.Expense{
		ID:          "same",
		Description: "Água",
		Amount:      core.Cents(100),
		DueDate:     core.NewDate(2025, 4, 1),
		PaidBy:      core.Shared,
		Status:      core.StatusPending,
		Category:    "contas",
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.InsertExpense(context.Background(), e); errors.Is(err, core.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if conflicts != 19 {
		t.Fatalf("expected 19 conflicts, got %d", conflicts)
	}
}

func TestSeed(t *testing.T) {
	s := New()
	month := core.MonthKey{Year: 2025, Month: 2}
	now := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	if err := store.Seed(context.Background(), s, month, now); err != nil {
		t.Fatalf("seed: %v", err)
	}

	expenses, _ := s.FindExpenses(context.Background(), store.ExpenseFilter{Month: &month})
	incomes, _ := s.FindIncomes(context.Background(), store.IncomeFilter{Month: &month})
	if len(expenses) != 5 || len(incomes) != 3 {
		t.Fatalf("seeded %d expenses and %d incomes", len(expenses), len(incomes))
	}
}
