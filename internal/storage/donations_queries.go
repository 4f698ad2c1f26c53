package storage

import (
	"context"
	"database/sql"
)

const getDonorByName = `SELECT id, name, created_at FROM donors WHERE name = ?`

func (q *Queries) GetDonorByName(ctx context.Context, name string) (Donor, error) {
	row := q.db.QueryRowContext(ctx, getDonorByName, name)
	var d Donor
	err := row.Scan(&d.ID, &d.Name, &d.CreatedAt)
	return d, err
}

const createDonor = `INSERT INTO donors (name) VALUES (?) RETURNING id, name, created_at`

func (q *Queries) CreateDonor(ctx context.Context, name string) (Donor, error) {
	row := q.db.QueryRowContext(ctx, createDonor, name)
	var d Donor
	err := row.Scan(&d.ID, &d.Name, &d.CreatedAt)
	return d, err
}

const searchDonorNames = `
SELECT name FROM donors
WHERE name LIKE ? ESCAPE '\'
ORDER BY name
LIMIT ?`

func (q *Queries) SearchDonorNames(ctx context.Context, pattern string, limit int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, searchDonorNames, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type CreateDonationParams struct {
	DonorID       int64
	Date          string
	Category      string
	AmountCents   int64
	PaymentMethod string
	TransactionID string
	PendingCents  int64
}

const createDonation = `
INSERT INTO donations (donor_id, date, category, amount_cents, payment_method, transaction_id, pending_cents)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateDonation(ctx context.Context, arg CreateDonationParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createDonation,
		arg.DonorID,
		arg.Date,
		arg.Category,
		arg.AmountCents,
		arg.PaymentMethod,
		arg.TransactionID,
		arg.PendingCents,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type UpdateDonationParams struct {
	ID            int64
	Date          string
	Category      string
	AmountCents   int64
	PaymentMethod string
	TransactionID string
	// PendingCents keeps the stored balance when not Valid.
	PendingCents sql.NullInt64
}

const updateDonation = `
UPDATE donations
SET date = ?,
    category = ?,
    amount_cents = ?,
    payment_method = ?,
    transaction_id = ?,
    pending_cents = COALESCE(?, pending_cents)
WHERE id = ?`

func (q *Queries) UpdateDonation(ctx context.Context, arg UpdateDonationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDonation,
		arg.Date,
		arg.Category,
		arg.AmountCents,
		arg.PaymentMethod,
		arg.TransactionID,
		arg.PendingCents,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const donationColumns = `
d.id, d.donor_id, dn.name, d.date, d.category, d.amount_cents,
d.payment_method, d.transaction_id, d.pending_cents, d.cleared_date`

func scanDonation(s interface{ Scan(...any) error }) (DonationRow, error) {
	var d DonationRow
	err := s.Scan(
		&d.ID,
		&d.DonorID,
		&d.DonorName,
		&d.Date,
		&d.Category,
		&d.AmountCents,
		&d.PaymentMethod,
		&d.TransactionID,
		&d.PendingCents,
		&d.ClearedDate,
	)
	return d, err
}

func (q *Queries) listDonations(ctx context.Context, query string, args ...interface{}) ([]DonationRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DonationRow
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDonation = `SELECT` + donationColumns + `
FROM donations d JOIN donors dn ON dn.id = d.donor_id
WHERE d.id = ?`

func (q *Queries) GetDonation(ctx context.Context, id int64) (DonationRow, error) {
	return scanDonation(q.db.QueryRowContext(ctx, getDonation, id))
}

const listDonationsByDonor = `SELECT` + donationColumns + `
FROM donations d JOIN donors dn ON dn.id = d.donor_id
WHERE dn.name = ?
ORDER BY d.date DESC, d.id DESC`

func (q *Queries) ListDonationsByDonor(ctx context.Context, name string) ([]DonationRow, error) {
	return q.listDonations(ctx, listDonationsByDonor, name)
}

const listOutstandingByDonor = `SELECT` + donationColumns + `
FROM donations d JOIN donors dn ON dn.id = d.donor_id
WHERE dn.name = ? AND d.pending_cents > 0
ORDER BY d.date ASC, d.id ASC`

// ListOutstandingByDonor returns the donor's unsettled donations, oldest first.
func (q *Queries) ListOutstandingByDonor(ctx context.Context, name string) ([]DonationRow, error) {
	return q.listDonations(ctx, listOutstandingByDonor, name)
}

const listAllDonations = `SELECT` + donationColumns + `
FROM donations d JOIN donors dn ON dn.id = d.donor_id
ORDER BY d.date DESC, d.id DESC`

func (q *Queries) ListAllDonations(ctx context.Context) ([]DonationRow, error) {
	return q.listDonations(ctx, listAllDonations)
}

const donationSearchFilter = `
FROM donations d JOIN donors dn ON dn.id = d.donor_id
WHERE dn.name LIKE ?1 ESCAPE '\'
   OR d.category LIKE ?1 ESCAPE '\'
   OR d.payment_method LIKE ?1 ESCAPE '\'
   OR printf('%.2f', d.amount_cents / 100.0) LIKE ?1 ESCAPE '\'`

const countDonations = `SELECT COUNT(*)` + donationSearchFilter

func (q *Queries) CountDonations(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countDonations, pattern).Scan(&n)
	return n, err
}

const listDonationsPage = `SELECT` + donationColumns + donationSearchFilter + `
ORDER BY d.date DESC, d.id DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListDonationsPage(ctx context.Context, pattern string, limit, offset int64) ([]DonationRow, error) {
	return q.listDonations(ctx, listDonationsPage, pattern, limit, offset)
}

const deleteDonation = `DELETE FROM donations WHERE id = ?`

func (q *Queries) DeleteDonation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDonation, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const applySettlement = `UPDATE donations SET pending_cents = ?, cleared_date = ? WHERE id = ?`

func (q *Queries) ApplySettlement(ctx context.Context, id, pendingCents int64, clearedDate string) error {
	_, err := q.db.ExecContext(ctx, applySettlement, pendingCents, clearedDate, id)
	return err
}

type CreatePendingPaymentParams struct {
	DonationID    int64
	Date          string
	AmountCents   int64
	PaymentMethod string
	TransactionID string
}

const createPendingPayment = `
INSERT INTO pending_payments (donation_id, date, amount_cents, payment_method, transaction_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreatePendingPayment(ctx context.Context, arg CreatePendingPaymentParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createPendingPayment,
		arg.DonationID,
		arg.Date,
		arg.AmountCents,
		arg.PaymentMethod,
		arg.TransactionID,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listPendingPayments = `
SELECT id, donation_id, date, amount_cents, payment_method, transaction_id
FROM pending_payments
WHERE donation_id = ?
ORDER BY date ASC, id ASC`

func (q *Queries) ListPendingPayments(ctx context.Context, donationID int64) ([]PendingPayment, error) {
	rows, err := q.db.QueryContext(ctx, listPendingPayments, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingPayment
	for rows.Next() {
		var p PendingPayment
		if err := rows.Scan(
			&p.ID,
			&p.DonationID,
			&p.Date,
			&p.AmountCents,
			&p.PaymentMethod,
			&p.TransactionID,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deletePendingPaymentsByDonation = `DELETE FROM pending_payments WHERE donation_id = ?`

func (q *Queries) DeletePendingPaymentsByDonation(ctx context.Context, donationID int64) error {
	_, err := q.db.ExecContext(ctx, deletePendingPaymentsByDonation, donationID)
	return err
}
