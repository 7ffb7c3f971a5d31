package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"financas/internal/core"
	"financas/internal/store"
	"financas/internal/store/storetest"
)

func TestSQLiteStoreContract(t *testing.T) {
	suite.Run(t, &storetest.StoreSuite{
		Open: func() (store.Store, error) {
			return NewSQLiteRepository(filepath.Join(t.TempDir(), "financas.db"))
		},
	})
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "financas.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	err = repo.InsertIncome(ctx, core.Income{
		ID:          "i1",
		Description: "Salário",
		Amount:      core.Cents(500000),
		Date:        core.NewDate(2025, 4, 5),
		ReceivedBy:  core.Partner1,
		Category:    "salário",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Migrations must be a no-op on an existing schema.
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetIncome(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, core.Cents(500000), got.Amount)
	assert.False(t, got.IsRecurring)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))
	assert.True(t, errors.Is(classify("op", errors.New("UNIQUE constraint failed: expenses.id")), core.ErrConflict))

	err := classify("op", errors.New("disk I/O error"))
	assert.True(t, errors.Is(err, core.ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "disk I/O error")
}
