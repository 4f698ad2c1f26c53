package storage

import "context"

const sumDonationAmounts = `SELECT COALESCE(SUM(amount_cents), 0) FROM donations`

func (q *Queries) SumDonationAmounts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, sumDonationAmounts).Scan(&n)
	return n, err
}

const sumPending = `SELECT COALESCE(SUM(pending_cents), 0) FROM donations`

func (q *Queries) SumPending(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, sumPending).Scan(&n)
	return n, err
}

const sumExpenses = `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`

func (q *Queries) SumExpenses(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, sumExpenses).Scan(&n)
	return n, err
}

const pendingByDonor = `
SELECT dn.name, SUM(d.pending_cents) AS total
FROM donations d JOIN donors dn ON dn.id = d.donor_id
GROUP BY dn.id, dn.name
HAVING total > 0
ORDER BY total DESC, dn.name ASC`

func (q *Queries) PendingByDonor(ctx context.Context) ([]DonorPendingRow, error) {
	rows, err := q.db.QueryContext(ctx, pendingByDonor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DonorPendingRow
	for rows.Next() {
		var r DonorPendingRow
		if err := rows.Scan(&r.Name, &r.PendingCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const donationTotalsByDate = `
SELECT date, SUM(amount_cents)
FROM donations
GROUP BY date
ORDER BY date ASC`

func (q *Queries) DonationTotalsByDate(ctx context.Context) ([]DateTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, donationTotalsByDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DateTotalRow
	for rows.Next() {
		var r DateTotalRow
		if err := rows.Scan(&r.Date, &r.AmountCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
