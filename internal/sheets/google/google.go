package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"daan/internal/core"
	"daan/internal/log"
	ports "daan/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options names the target spreadsheet and its tabs.
type Options struct {
	SpreadsheetID     string
	DonationsSheet    string
	InstallmentsSheet string
	ExpensesSheet     string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.DonationsSheet) == "" {
		o.DonationsSheet = "Donations"
	}
	if strings.TrimSpace(o.InstallmentsSheet) == "" {
		o.InstallmentsSheet = "Installments"
	}
	if strings.TrimSpace(o.ExpensesSheet) == "" {
		o.ExpensesSheet = "Expenses"
	}
	return o
}

type Client struct {
	svc  *gsheet.Service
	opts Options
}

var _ ports.LedgerMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentSheets).InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID)
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test
// endpoint.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	return &Client{svc: svc, opts: opts.withDefaults()}
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) MirrorDonation(ctx context.Context, d core.Donation, action ports.Action) (string, error) {
	return c.append(ctx, c.opts.DonationsSheet, ports.DonationRow(d, action))
}

func (c *Client) MirrorInstallment(ctx context.Context, i core.Installment) (string, error) {
	return c.append(ctx, c.opts.InstallmentsSheet, ports.InstallmentRow(i))
}

func (c *Client) MirrorExpense(ctx context.Context, e core.Expense, action ports.Action) (string, error) {
	return c.append(ctx, c.opts.ExpensesSheet, ports.ExpenseRow(e, action))
}

// append adds row after the last non-empty row of sheet and returns the
// range Sheets reports as written.
func (c *Client) append(ctx context.Context, sheet string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:A", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.opts.SpreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates == nil {
		return sheet, nil
	}
	return resp.Updates.UpdatedRange, nil
}
