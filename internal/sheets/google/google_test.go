package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"financas/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
)

// fakeSpreadsheet implements the handful of values endpoints the client uses.
type fakeSpreadsheet struct {
	mu     sync.Mutex
	sheets map[string][][]any
	clears int
}

func (f *fakeSpreadsheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rest := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet-id/values/")
	verb := ""
	for _, v := range []string{"append", "clear"} {
		if strings.HasSuffix(rest, ":"+v) {
			verb = v
			rest = strings.TrimSuffix(rest, ":"+v)
		}
	}
	sheet, cells, _ := strings.Cut(rest, "!")

	var body struct {
		Values [][]any `json:"values"`
	}
	if r.Method != http.MethodGet && verb != "clear" {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	switch {
	case r.Method == http.MethodGet:
		var col [][]any
		for _, row := range f.sheets[sheet] {
			if len(row) == 0 {
				col = append(col, []any{})
				continue
			}
			col = append(col, []any{row[0]})
		}
		writeJSON(w, map[string]any{"range": rest, "values": col})
		return
	case r.Method == http.MethodPut:
		start := firstRow(cells)
		for i, row := range body.Values {
			f.set(sheet, start+i, row)
		}
	case verb == "append":
		f.sheets[sheet] = append(f.sheets[sheet], body.Values...)
	case verb == "clear":
		f.clears++
		f.set(sheet, firstRow(cells), nil)
	default:
		http.Error(w, "unexpected request", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{})
}

func (f *fakeSpreadsheet) set(sheet string, idx int, row []any) {
	for len(f.sheets[sheet]) < idx {
		f.sheets[sheet] = append(f.sheets[sheet], nil)
	}
	f.sheets[sheet][idx-1] = row
}

func (f *fakeSpreadsheet) rows(sheet string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets[sheet]
}

func firstRow(cells string) int {
	start, _, _ := strings.Cut(cells, ":")
	n, _ := strconv.Atoi(strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeClient(t *testing.T) (*Client, *fakeSpreadsheet) {
	t.Helper()
	fake := &fakeSpreadsheet{sheets: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, fake
}

func rent(amount int64) core.Expense {
	return core.Expense{
		ID:          "exp-1",
		Description: "Aluguel",
		Amount:      core.Cents(amount),
		DueDate:     core.NewDate(2025, 4, 5),
		PaidBy:      core.Shared,
		Status:      core.StatusUpcoming,
		Category:    "moradia",
	}
}

func TestClient_UpsertExpense(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertExpense(ctx, rent(150000)))
	rows := fake.rows(DefaultExpensesSheet)
	require.Len(t, rows, 2, "header plus first record")
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "exp-1", rows[1][0])

	require.NoError(t, c.UpsertExpense(ctx, rent(160000)))
	rows = fake.rows(DefaultExpensesSheet)
	require.Len(t, rows, 2, "same id updates in place")
	assert.Equal(t, 1600.0, rows[1][3])

	other := rent(5000)
	other.ID = "exp-2"
	require.NoError(t, c.UpsertExpense(ctx, other))
	rows = fake.rows(DefaultExpensesSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, "exp-2", rows[2][0])
}

func TestClient_DeleteExpense(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertExpense(ctx, rent(150000)))
	require.NoError(t, c.DeleteExpense(ctx, "exp-1"))
	assert.Empty(t, fake.rows(DefaultExpensesSheet)[1])
	assert.Equal(t, 1, fake.clears)

	require.NoError(t, c.DeleteExpense(ctx, "missing"))
	assert.Equal(t, 1, fake.clears, "absent rows are not cleared")
}

func TestClient_IncomeAndSummary(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	in := core.Income{
		ID: "inc-1", Description: "Salário", Amount: core.Cents(500000),
		Date: core.NewDate(2025, 4, 1), ReceivedBy: core.Partner1, Category: "salário", IsRecurring: true,
	}
	require.NoError(t, c.UpsertIncome(ctx, in))
	rows := fake.rows(DefaultIncomesSheet)
	require.Len(t, rows, 2)
	assert.Equal(t, "yes", rows[1][6])

	month := core.MonthKey{Year: 2025, Month: 4}
	neg := core.NewDate(2025, 4, 5)
	require.NoError(t, c.WriteSummary(ctx, core.FinancialSummary{Month: month, Balance: core.Cents(-100), NegativeDate: &neg}))
	require.NoError(t, c.WriteSummary(ctx, core.FinancialSummary{Month: month, Balance: core.Cents(100)}))

	rows = fake.rows(DefaultSummarySheet)
	require.Len(t, rows, 2, "one row per month")
	assert.Equal(t, "2025-04", rows[1][0])
	assert.Equal(t, 1.0, rows[1][4])
	assert.Equal(t, "", rows[1][5])

	require.NoError(t, c.DeleteIncome(ctx, "inc-1"))
	assert.Empty(t, fake.rows(DefaultIncomesSheet)[1])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "x"})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test", expensesSheet: DefaultExpensesSheet}
	err := c.UpsertExpense(context.Background(), rent(1))
	assert.ErrorContains(t, err, "sheets service not initialized")
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	b, err := LoadCredentials(` {"type":"service_account"} `, "")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(b))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"k":1}`), 0o600))
	b, err = LoadCredentials("", path)
	require.NoError(t, err)
	assert.Equal(t, `{"k":1}`, string(b))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	_, err = LoadCredentials("", "")
	require.NoError(t, err)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = LoadCredentials("", "")
	assert.Error(t, err)

	_, err = LoadCredentials("", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read service account file")
}

func TestRows(t *testing.T) {
	row := expenseRow(rent(123456))
	assert.Equal(t, []any{"exp-1", "2025-04-05", "Aluguel", 1234.56, "shared", "upcoming", "moradia"}, row)

	tests := []struct {
		name   string
		values [][]any
		key    string
		want   int
	}{
		{"empty", nil, "a", 0},
		{"header only", [][]any{{"id"}}, "a", 0},
		{"found after gap", [][]any{{"id"}, {}, {" a "}}, "a", 3},
		{"first match", [][]any{{"id"}, {"a"}, {"a"}}, "a", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findRow(tt.values, tt.key))
		})
	}

	assert.Equal(t, "Expenses!A4:G4", rowRange("Expenses", 4, 7))
	assert.Equal(t, "Summary!A:F", tableRange("Summary", 6))
}
