package sheets

import (
	"context"

	"daan/internal/core"
)

// Action marks whether a mirrored row records a save or a delete.
type Action string

const (
	ActionSaved   Action = "saved"
	ActionDeleted Action = "deleted"
)

// LedgerMirror is the outbound port for the append-only spreadsheet copy of
// the ledger. Each call appends one row and returns a reference to it.
type LedgerMirror interface {
	MirrorDonation(ctx context.Context, d core.Donation, action Action) (rowRef string, err error)
	MirrorInstallment(ctx context.Context, i core.Installment) (rowRef string, err error)
	MirrorExpense(ctx context.Context, e core.Expense, action Action) (rowRef string, err error)
}
