package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
	"financas/internal/store"
	"financas/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, now: time.Now}
}

// CreateBackend opens the configured store and seeds it when asked to.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.SeedDemoData {
		if err := f.seed(ctx, result.Store, config.Location); err != nil {
			_ = result.Cleanup()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	st := memory.New()
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Store: st, Cleanup: st.Close}
}

// seed only touches a month that has no records yet, so restarts never
// duplicate the sample ledger.
func (f *DefaultFactory) seed(ctx context.Context, st store.Store, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	now := f.now().In(loc)
	month := core.CurrentMonthKey(now)

	expenses, err := st.FindExpenses(ctx, store.ExpenseFilter{Month: &month})
	if err != nil {
		return err
	}
	incomes, err := st.FindIncomes(ctx, store.IncomeFilter{Month: &month})
	if err != nil {
		return err
	}
	if len(expenses) > 0 || len(incomes) > 0 {
		f.logger.Debug("Skipping demo data, month already has records", "month", month.String())
		return nil
	}

	if err := store.Seed(ctx, st, month, now); err != nil {
		return err
	}
	f.logger.Info("Seeded demo data", "month", month.String())
	return nil
}
