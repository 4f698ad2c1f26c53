package storage

import "context"

type CreateExpenseParams struct {
	Date          string
	Title         string
	AmountCents   int64
	Description   string
	PaymentMethod string
	TransactionID string
}

const createExpense = `
INSERT INTO expenses (date, title, amount_cents, description, payment_method, transaction_id)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Date,
		arg.Title,
		arg.AmountCents,
		arg.Description,
		arg.PaymentMethod,
		arg.TransactionID,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type UpdateExpenseParams struct {
	ID int64
	CreateExpenseParams
}

const updateExpense = `
UPDATE expenses
SET date = ?, title = ?, amount_cents = ?, description = ?, payment_method = ?, transaction_id = ?
WHERE id = ?`

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateExpense,
		arg.Date,
		arg.Title,
		arg.AmountCents,
		arg.Description,
		arg.PaymentMethod,
		arg.TransactionID,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const expenseColumns = `id, date, title, amount_cents, description, payment_method, transaction_id`

func scanExpense(s interface{ Scan(...any) error }) (Expense, error) {
	var e Expense
	err := s.Scan(
		&e.ID,
		&e.Date,
		&e.Title,
		&e.AmountCents,
		&e.Description,
		&e.PaymentMethod,
		&e.TransactionID,
	)
	return e, err
}

func (q *Queries) listExpenses(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const listAllExpenses = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, id DESC`

func (q *Queries) ListAllExpenses(ctx context.Context) ([]Expense, error) {
	return q.listExpenses(ctx, listAllExpenses)
}

const expenseSearchFilter = `
FROM expenses
WHERE title LIKE ?1 ESCAPE '\'
   OR description LIKE ?1 ESCAPE '\'
   OR payment_method LIKE ?1 ESCAPE '\'
   OR printf('%.2f', amount_cents / 100.0) LIKE ?1 ESCAPE '\'`

const countExpenses = `SELECT COUNT(*)` + expenseSearchFilter

func (q *Queries) CountExpenses(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countExpenses, pattern).Scan(&n)
	return n, err
}

const listExpensesPage = `SELECT ` + expenseColumns + expenseSearchFilter + `
ORDER BY date DESC, id DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListExpensesPage(ctx context.Context, pattern string, limit, offset int64) ([]Expense, error) {
	return q.listExpenses(ctx, listExpensesPage, pattern, limit, offset)
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
