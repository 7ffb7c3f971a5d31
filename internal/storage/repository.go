package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteRepository)(nil)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return classify("ping", r.db.PingContext(ctx))
}

const expenseColumns = `id, description, amount_cents, due_date, paid_by, status, category, created_at`

func (r *SQLiteRepository) FindExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, error) {
	var (
		where []string
		args  []any
	)
	if f.Month != nil {
		first, last := f.Month.Bounds()
		where = append(where, "due_date BETWEEN ? AND ?")
		args = append(args, first.String(), last.String())
	}
	if f.PaidBy != nil {
		where = append(where, "paid_by = ?")
		args = append(args, string(*f.PaidBy))
	}
	if f.ExcludePaid {
		where = append(where, "status <> ?")
		args = append(args, string(core.StatusPaid))
	}

	q := "SELECT " + expenseColumns + " FROM expenses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY due_date, created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify("find expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("find expenses", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return getExpense(ctx, r.db, id)
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) error {
	if e.ID == "" {
		return &core.ValidationError{Field: "id", Err: core.ErrEmptyID}
	}
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Amount.Cents, e.DueDate.String(), string(e.PaidBy),
		string(e.Status), e.Category, e.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return classify("insert expense "+e.ID, err)
	}
	slog.DebugContext(ctx, "Expense stored", "expense_id", e.ID, "due_date", e.DueDate.String(), "amount_cents", e.Amount.Cents)
	return nil
}

// UpdateExpense writes only the patched columns in one statement. A status
// change away from paid is guarded in the WHERE clause, so a concurrent
// MarkPaid can never be undone.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	op := "update expense " + id
	if p.IsEmpty() {
		_, err := r.GetExpense(ctx, id)
		return 0, err
	}

	var set columnSet
	if p.Description != nil {
		set.add("description", strings.TrimSpace(*p.Description))
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.DueDate != nil {
		set.add("due_date", p.DueDate.String())
	}
	if p.PaidBy != nil {
		set.add("paid_by", string(*p.PaidBy))
	}
	if p.Status != nil {
		set.add("status", string(*p.Status))
	}
	if p.Category != nil {
		set.add("category", strings.TrimSpace(*p.Category))
	}

	query := `UPDATE expenses SET ` + set.clause() + ` WHERE id = ?`
	args := append(set.args, id)
	if p.Status != nil && *p.Status != core.StatusPaid {
		query += ` AND status <> ?`
		args = append(args, string(core.StatusPaid))
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	if n > 0 {
		return n, nil
	}
	// Nothing matched: unknown id, or the paid guard held.
	cur, err := r.GetExpense(ctx, id)
	if err != nil {
		return 0, err
	}
	return 0, p.CheckTransition(cur)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	return affected("delete expense "+id, res, err)
}

func (r *SQLiteRepository) SetDerivedStatus(ctx context.Context, id string, s core.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET status = ? WHERE id = ? AND status <> ? AND status <> ?`,
		string(s), id, string(core.StatusPaid), string(s))
	if err != nil {
		return false, classify("set status "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("set status "+id, err)
	}
	if n > 0 {
		return true, nil
	}
	// Zero rows is either an unknown id or a no-op.
	if _, err := r.GetExpense(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

const incomeColumns = `id, description, amount_cents, date, received_by, category, is_recurring, created_at`

func (r *SQLiteRepository) FindIncomes(ctx context.Context, f store.IncomeFilter) ([]core.Income, error) {
	var (
		where []string
		args  []any
	)
	if f.Month != nil {
		first, last := f.Month.Bounds()
		where = append(where, "date BETWEEN ? AND ?")
		args = append(args, first.String(), last.String())
	}
	if f.ReceivedBy != nil {
		where = append(where, "received_by = ?")
		args = append(args, string(*f.ReceivedBy))
	}
	if f.RecurringOnly {
		where = append(where, "is_recurring = 1")
	}

	q := "SELECT " + incomeColumns + " FROM incomes"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date, created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify("find incomes", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("find incomes", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	return getIncome(ctx, r.db, id)
}

func (r *SQLiteRepository) InsertIncome(ctx context.Context, in core.Income) error {
	if in.ID == "" {
		return &core.ValidationError{Field: "id", Err: core.ErrEmptyID}
	}
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Description, in.Amount.Cents, in.Date.String(), string(in.ReceivedBy),
		in.Category, boolToInt(in.IsRecurring), in.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return classify("insert income "+in.ID, err)
	}
	slog.DebugContext(ctx, "Income stored", "income_id", in.ID, "date", in.Date.String(), "amount_cents", in.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, id string, p core.IncomePatch) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.IsEmpty() {
		_, err := r.GetIncome(ctx, id)
		return 0, err
	}

	var set columnSet
	if p.Description != nil {
		set.add("description", strings.TrimSpace(*p.Description))
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.Date != nil {
		set.add("date", p.Date.String())
	}
	if p.ReceivedBy != nil {
		set.add("received_by", string(*p.ReceivedBy))
	}
	if p.Category != nil {
		set.add("category", strings.TrimSpace(*p.Category))
	}
	if p.IsRecurring != nil {
		set.add("is_recurring", boolToInt(*p.IsRecurring))
	}

	res, err := r.db.ExecContext(ctx, `UPDATE incomes SET `+set.clause()+` WHERE id = ?`, append(set.args, id)...)
	return affected("update income "+id, res, err)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
	return affected("delete income "+id, res, err)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getExpense(ctx context.Context, q queryer, id string) (core.Expense, error) {
	row := q.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, err
}

func getIncome(ctx context.Context, q queryer, id string) (core.Income, error) {
	row := q.QueryRowContext(ctx, "SELECT "+incomeColumns+" FROM incomes WHERE id = ?", id)
	in, err := scanIncome(row)
	if errors.Is(err, core.ErrNotFound) {
		return core.Income{}, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	return in, err
}

func scanExpense(s scanner) (core.Expense, error) {
	var e core.Expense
	var due, paidBy, st, created string
	if err := s.Scan(&e.ID, &e.Description, &e.Amount.Cents, &due, &paidBy, &st, &e.Category, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, core.ErrNotFound
		}
		return core.Expense{}, classify("scan expense", err)
	}
	var err error
	if e.DueDate, err = core.ParseDate(due); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: stored due date %q: %w", e.ID, due, err)
	}
	if e.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: stored created_at %q: %w", e.ID, created, err)
	}
	e.PaidBy = core.Person(paidBy)
	e.Status = core.Status(st)
	return e, nil
}

func scanIncome(s scanner) (core.Income, error) {
	var in core.Income
	var date, receivedBy, created string
	var recurring int64
	if err := s.Scan(&in.ID, &in.Description, &in.Amount.Cents, &date, &receivedBy, &in.Category, &recurring, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Income{}, core.ErrNotFound
		}
		return core.Income{}, classify("scan income", err)
	}
	var err error
	if in.Date, err = core.ParseDate(date); err != nil {
		return core.Income{}, fmt.Errorf("income %s: stored date %q: %w", in.ID, date, err)
	}
	if in.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return core.Income{}, fmt.Errorf("income %s: stored created_at %q: %w", in.ID, created, err)
	}
	in.ReceivedBy = core.Person(receivedBy)
	in.IsRecurring = recurring != 0
	return in, nil
}

// columnSet builds the SET clause of a partial update. Column names are
// constants from this file, never user input.
type columnSet struct {
	cols []string
	args []any
}

func (c *columnSet) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *columnSet) clause() string {
	return strings.Join(c.cols, ", ")
}

func affected(op string, res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return n, nil
}

// classify maps driver errors onto the core error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, core.ErrConflict)
	}
	return core.Unavailable(op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
