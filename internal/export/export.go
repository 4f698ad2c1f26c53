// Package export renders ledger listings as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"daan/internal/core"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	donationsSheet = "Donations"
	expensesSheet  = "Expenses"
)

var (
	donationHeaders = []any{"ID", "Donor", "Date", "Category", "Amount", "Payment Method", "Transaction ID", "Pending", "Cleared Date"}
	expenseHeaders  = []any{"ID", "Date", "Title", "Amount", "Description", "Payment Method", "Transaction ID"}
)

// FileName builds a timestamped attachment name such as
// donations_20240101_120000.xlsx.
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, now.Format("20060102_150405"))
}

// WriteDonations writes one row per donation after a header row.
func WriteDonations(w io.Writer, donations []core.Donation) error {
	rows := make([][]any, 0, len(donations))
	for _, d := range donations {
		cleared := ""
		if d.ClearedDate != nil {
			cleared = d.ClearedDate.String()
		}
		rows = append(rows, []any{
			d.ID, d.DonorName, d.Date.String(), d.Category, d.Amount.Float(),
			string(d.PaymentMethod), d.TransactionID, d.Pending.Float(), cleared,
		})
	}
	return write(w, donationsSheet, donationHeaders, rows)
}

// WriteExpenses writes one row per expense after a header row.
func WriteExpenses(w io.Writer, expenses []core.Expense) error {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []any{
			e.ID, e.Date.String(), e.Title, e.Amount.Float(),
			e.Description, string(e.PaymentMethod), e.TransactionID,
		})
	}
	return write(w, expensesSheet, expenseHeaders, rows)
}

func write(w io.Writer, sheet string, headers []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
