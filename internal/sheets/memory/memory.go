package memory

import (
	"context"
	"fmt"
	"sync"

	"daan/internal/core"
	"daan/internal/sheets"
)

// Store is an in-process LedgerMirror. The worker falls back to it when no
// spreadsheet is configured, and tests use it to inspect mirrored rows.
type Store struct {
	mu   sync.Mutex
	rows map[string][][]any
}

var _ sheets.LedgerMirror = (*Store)(nil)

const (
	SheetDonations    = "Donations"
	SheetInstallments = "Installments"
	SheetExpenses     = "Expenses"
)

func New() *Store {
	return &Store{rows: make(map[string][][]any)}
}

func (s *Store) MirrorDonation(_ context.Context, d core.Donation, action sheets.Action) (string, error) {
	return s.append(SheetDonations, sheets.DonationRow(d, action)), nil
}

func (s *Store) MirrorInstallment(_ context.Context, i core.Installment) (string, error) {
	return s.append(SheetInstallments, sheets.InstallmentRow(i)), nil
}

func (s *Store) MirrorExpense(_ context.Context, e core.Expense, action sheets.Action) (string, error) {
	return s.append(SheetExpenses, sheets.ExpenseRow(e, action)), nil
}

func (s *Store) append(sheet string, row []any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sheet] = append(s.rows[sheet], row)
	return fmt.Sprintf("mem:%s:%d", sheet, len(s.rows[sheet]))
}

// Rows returns a copy of the rows appended to sheet.
func (s *Store) Rows(sheet string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.rows[sheet]...)
}
