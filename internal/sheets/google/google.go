package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"financas/internal/core"
	ports "financas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultExpensesSheet = "Expenses"
	DefaultIncomesSheet  = "Incomes"
	DefaultSummarySheet  = "Summary"
)

// Config selects the spreadsheet and the sheet names inside it.
type Config struct {
	SpreadsheetID string
	ExpensesSheet string
	IncomesSheet  string
	SummarySheet  string
	// CredentialsJSON is a service account key. It may be empty when the
	// caller passes its own client options.
	CredentialsJSON []byte
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	incomesSheet  string
	summarySheet  string
}

var _ ports.RecordMirror = (*Client)(nil)

// New creates a Sheets client. Service account credentials from cfg come
// first; opts are appended after them.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var all []goption.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		all = append(all,
			goption.WithCredentialsJSON(cfg.CredentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	} else if len(opts) == 0 {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	all = append(all, opts...)

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets client ready", "spreadsheet_id", spreadsheetID)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		expensesSheet: orDefault(cfg.ExpensesSheet, DefaultExpensesSheet),
		incomesSheet:  orDefault(cfg.IncomesSheet, DefaultIncomesSheet),
		summarySheet:  orDefault(cfg.SummarySheet, DefaultSummarySheet),
	}, nil
}

// LoadCredentials returns the inline service account JSON when set, otherwise
// the contents of file, otherwise of GOOGLE_APPLICATION_CREDENTIALS.
func LoadCredentials(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if file == "" {
		file = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if file == "" {
		return nil, errors.New("no service account credentials configured")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) UpsertExpense(ctx context.Context, e core.Expense) error {
	if err := c.upsert(ctx, c.expensesSheet, e.ID, expenseHeader, expenseRow(e)); err != nil {
		return fmt.Errorf("mirror expense %s: %w", e.ID, err)
	}
	return nil
}

func (c *Client) UpsertIncome(ctx context.Context, in core.Income) error {
	if err := c.upsert(ctx, c.incomesSheet, in.ID, incomeHeader, incomeRow(in)); err != nil {
		return fmt.Errorf("mirror income %s: %w", in.ID, err)
	}
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if err := c.clear(ctx, c.expensesSheet, id, len(expenseHeader)); err != nil {
		return fmt.Errorf("clear expense %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteIncome(ctx context.Context, id string) error {
	if err := c.clear(ctx, c.incomesSheet, id, len(incomeHeader)); err != nil {
		return fmt.Errorf("clear income %s: %w", id, err)
	}
	return nil
}

// WriteSummary keeps one row per month in the summary sheet.
func (c *Client) WriteSummary(ctx context.Context, s core.FinancialSummary) error {
	if err := c.upsert(ctx, c.summarySheet, s.Month.String(), summaryHeader, summaryRow(s)); err != nil {
		return fmt.Errorf("mirror summary %s: %w", s.Month, err)
	}
	return nil
}

func (c *Client) upsert(ctx context.Context, sheet, key string, header, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	keys, err := c.readKeys(ctx, sheet)
	if err != nil {
		return err
	}

	width := len(header)
	switch idx := findRow(keys, key); {
	case idx > 0:
		vr := &gsheet.ValueRange{Values: [][]any{row}}
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(sheet, idx, width), vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
	case len(keys) == 0:
		// Empty sheet: write the header together with the first record.
		vr := &gsheet.ValueRange{Values: [][]any{header, row}}
		rng := fmt.Sprintf("%s!A1:%s2", sheet, column(width))
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
	default:
		vr := &gsheet.ValueRange{Values: [][]any{row}}
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, tableRange(sheet, width), vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	}
	if err != nil {
		return fmt.Errorf("write %s row: %w", sheet, err)
	}

	slog.DebugContext(ctx, "Sheet row written", "sheet", sheet, "key", key)
	return nil
}

func (c *Client) clear(ctx context.Context, sheet, key string, width int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	keys, err := c.readKeys(ctx, sheet)
	if err != nil {
		return err
	}
	idx := findRow(keys, key)
	if idx == 0 {
		slog.DebugContext(ctx, "Sheet row already absent", "sheet", sheet, "key", key)
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rowRange(sheet, idx, width), &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear %s row %d: %w", sheet, idx, err)
	}
	return nil
}

func (c *Client) readKeys(ctx context.Context, sheet string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A:A", sheet)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s keys: %w", sheet, err)
	}
	return resp.Values, nil
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
