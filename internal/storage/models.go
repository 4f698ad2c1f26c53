package storage

import "database/sql"

type Donor struct {
	ID        int64
	Name      string
	CreatedAt string
}

// DonationRow is a donation joined with its donor's name.
type DonationRow struct {
	ID            int64
	DonorID       int64
	DonorName     string
	Date          string
	Category      string
	AmountCents   int64
	PaymentMethod string
	TransactionID string
	PendingCents  int64
	ClearedDate   sql.NullString
}

type Expense struct {
	ID            int64
	Date          string
	Title         string
	AmountCents   int64
	Description   string
	PaymentMethod string
	TransactionID string
}

type PendingPayment struct {
	ID            int64
	DonationID    int64
	Date          string
	AmountCents   int64
	PaymentMethod string
	TransactionID string
}

type DonorPendingRow struct {
	Name         string
	PendingCents int64
}

type DateTotalRow struct {
	Date        string
	AmountCents int64
}
