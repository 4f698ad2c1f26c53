package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"daan/internal/core"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN builds a modernc sqlite connection string with foreign keys, WAL and a
// busy timeout enabled on every pooled connection.
func DSN(dbPath string) string {
	v := url.Values{}
	v.Add("_pragma", "foreign_keys(1)")
	v.Add("_pragma", "busy_timeout(5000)")
	v.Add("_pragma", "journal_mode(WAL)")
	v.Set("_txlock", "immediate")
	return "file:" + dbPath + "?" + v.Encode()
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a small pool keeps readers concurrent under WAL.
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return classify("ping", r.db.PingContext(ctx))
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	if err := fn(&Tx{q: r.queries.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// Tx exposes the ledger operations that must run atomically.
type Tx struct {
	q *Queries
}

// FindOrCreateDonor returns the id of the donor with exactly this name,
// inserting it when missing. created reports whether a row was inserted.
func (t *Tx) FindOrCreateDonor(ctx context.Context, name string) (id int64, created bool, err error) {
	d, err := t.q.GetDonorByName(ctx, name)
	if err == nil {
		return d.ID, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, classify("find donor", err)
	}
	d, err = t.q.CreateDonor(ctx, name)
	if err != nil {
		return 0, false, classify("create donor", err)
	}
	return d.ID, true, nil
}

func (t *Tx) GetDonation(ctx context.Context, id int64) (core.Donation, error) {
	row, err := t.q.GetDonation(ctx, id)
	if err != nil {
		return core.Donation{}, classify(fmt.Sprintf("get donation %d", id), err)
	}
	return toDonation(row)
}

// OutstandingByDonor lists the donor's donations with a positive pending
// balance, oldest first with ties by ascending id.
func (t *Tx) OutstandingByDonor(ctx context.Context, name string) ([]core.Outstanding, error) {
	rows, err := t.q.ListOutstandingByDonor(ctx, name)
	if err != nil {
		return nil, classify("list outstanding donations", err)
	}
	out := make([]core.Outstanding, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, decodeErr("decode donation date", err)
		}
		out = append(out, core.Outstanding{
			DonationID: row.ID,
			Date:       d,
			Pending:    core.Cents(row.PendingCents),
		})
	}
	return out, nil
}

// RecordInstallment appends one installment and moves the donation's pending
// balance to newPending with the payment date as cleared date.
func (t *Tx) RecordInstallment(ctx context.Context, donationID int64, applied core.Money, p core.Payment, newPending core.Money) (core.Installment, error) {
	id, err := t.q.CreatePendingPayment(ctx, CreatePendingPaymentParams{
		DonationID:    donationID,
		Date:          p.Date.String(),
		AmountCents:   applied.Cents,
		PaymentMethod: string(p.PaymentMethod),
		TransactionID: p.TransactionID,
	})
	if err != nil {
		return core.Installment{}, classify("insert installment", err)
	}
	if err := t.q.ApplySettlement(ctx, donationID, newPending.Cents, p.Date.String()); err != nil {
		return core.Installment{}, classify("update pending balance", err)
	}
	return core.Installment{
		ID:            id,
		DonationID:    donationID,
		Date:          p.Date,
		AmountPaid:    applied,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
	}, nil
}

// CreateDonation records a donation, creating its donor on first use.
// donorCreated reports whether the donor was new.
func (r *SQLiteRepository) CreateDonation(ctx context.Context, in core.DonationInput) (d core.Donation, donorCreated bool, err error) {
	err = r.WithTx(ctx, func(tx *Tx) error {
		donorID, created, err := tx.FindOrCreateDonor(ctx, in.DonorName)
		if err != nil {
			return err
		}
		donorCreated = created
		pending := int64(0)
		if in.Pending != nil {
			pending = in.Pending.Cents
		}
		id, err := tx.q.CreateDonation(ctx, CreateDonationParams{
			DonorID:       donorID,
			Date:          in.Date.String(),
			Category:      in.Category,
			AmountCents:   in.Amount.Cents,
			PaymentMethod: string(in.PaymentMethod),
			TransactionID: in.TransactionID,
			PendingCents:  pending,
		})
		if err != nil {
			return classify("insert donation", err)
		}
		d, err = tx.GetDonation(ctx, id)
		return err
	})
	if err != nil {
		return core.Donation{}, false, err
	}

	slog.InfoContext(ctx, "Donation saved to SQLite",
		"id", d.ID,
		"donor", d.DonorName,
		"amount_cents", d.Amount.Cents,
		"pending_cents", d.Pending.Cents)
	return d, donorCreated, nil
}

// UpdateDonation overwrites the editable fields of donation id. The donor
// never changes; the pending balance changes only when in.Pending is set.
func (r *SQLiteRepository) UpdateDonation(ctx context.Context, id int64, in core.DonationInput) (core.Donation, error) {
	var d core.Donation
	err := r.WithTx(ctx, func(tx *Tx) error {
		params := UpdateDonationParams{
			ID:            id,
			Date:          in.Date.String(),
			Category:      in.Category,
			AmountCents:   in.Amount.Cents,
			PaymentMethod: string(in.PaymentMethod),
			TransactionID: in.TransactionID,
		}
		if in.Pending != nil {
			params.PendingCents = sql.NullInt64{Int64: in.Pending.Cents, Valid: true}
		}
		n, err := tx.q.UpdateDonation(ctx, params)
		if err != nil {
			return classify("update donation", err)
		}
		if n == 0 {
			return fmt.Errorf("update donation %d: %w", id, core.ErrNotFound)
		}
		d, err = tx.GetDonation(ctx, id)
		return err
	})
	if err != nil {
		return core.Donation{}, err
	}
	return d, nil
}

// DeleteDonation removes a donation and its installment history atomically.
func (r *SQLiteRepository) DeleteDonation(ctx context.Context, id int64) (core.Donation, error) {
	var d core.Donation
	err := r.WithTx(ctx, func(tx *Tx) error {
		var err error
		if d, err = tx.GetDonation(ctx, id); err != nil {
			return err
		}
		if err := tx.q.DeletePendingPaymentsByDonation(ctx, id); err != nil {
			return classify("delete installments", err)
		}
		if _, err := tx.q.DeleteDonation(ctx, id); err != nil {
			return classify("delete donation", err)
		}
		return nil
	})
	if err != nil {
		return core.Donation{}, err
	}
	slog.InfoContext(ctx, "Donation deleted", "id", id)
	return d, nil
}

func (r *SQLiteRepository) GetDonation(ctx context.Context, id int64) (core.Donation, error) {
	return (&Tx{q: r.queries}).GetDonation(ctx, id)
}

// SearchDonorNames returns up to limit donor names containing q.
func (r *SQLiteRepository) SearchDonorNames(ctx context.Context, q string, limit int) ([]string, error) {
	names, err := r.queries.SearchDonorNames(ctx, likePattern(q), int64(limit))
	if err != nil {
		return nil, classify("search donors", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *SQLiteRepository) DonationsByDonor(ctx context.Context, name string) ([]core.Donation, error) {
	rows, err := r.queries.ListDonationsByDonor(ctx, name)
	if err != nil {
		return nil, classify("list donor donations", err)
	}
	return toDonations(rows)
}

func (r *SQLiteRepository) AllDonations(ctx context.Context) ([]core.Donation, error) {
	rows, err := r.queries.ListAllDonations(ctx)
	if err != nil {
		return nil, classify("list donations", err)
	}
	return toDonations(rows)
}

// DonationsPage returns one page of donations matching req.Search, newest
// first. Pages past the end are empty.
func (r *SQLiteRepository) DonationsPage(ctx context.Context, req core.PageRequest) (core.Page[core.Donation], error) {
	pattern := likePattern(req.Search)
	total, err := r.queries.CountDonations(ctx, pattern)
	if err != nil {
		return core.Page[core.Donation]{}, classify("count donations", err)
	}
	rows, err := r.queries.ListDonationsPage(ctx, pattern, int64(req.Limit), int64(req.Offset()))
	if err != nil {
		return core.Page[core.Donation]{}, classify("list donations page", err)
	}
	items, err := toDonations(rows)
	if err != nil {
		return core.Page[core.Donation]{}, err
	}
	return core.NewPage(items, total, req), nil
}

// Installments lists the installments of a donation in payment order. An
// unknown donation yields an empty list.
func (r *SQLiteRepository) Installments(ctx context.Context, donationID int64) ([]core.Installment, error) {
	rows, err := r.queries.ListPendingPayments(ctx, donationID)
	if err != nil {
		return nil, classify("list installments", err)
	}
	out := make([]core.Installment, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, decodeErr("decode installment date", err)
		}
		out = append(out, core.Installment{
			ID:            row.ID,
			DonationID:    row.DonationID,
			Date:          d,
			AmountPaid:    core.Cents(row.AmountCents),
			PaymentMethod: core.PaymentMethod(row.PaymentMethod),
			TransactionID: row.TransactionID,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	id, err := r.queries.CreateExpense(ctx, expenseParams(e))
	if err != nil {
		return core.Expense{}, classify("insert expense", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, e core.Expense) (core.Expense, error) {
	n, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{ID: id, CreateExpenseParams: expenseParams(e)})
	if err != nil {
		return core.Expense{}, classify("update expense", err)
	}
	if n == 0 {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, core.ErrNotFound)
	}
	e.ID = id
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, classify(fmt.Sprintf("get expense %d", id), err)
	}
	return toExpense(row)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if _, err := r.queries.DeleteExpense(ctx, id); err != nil {
		return core.Expense{}, classify("delete expense", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return e, nil
}

func (r *SQLiteRepository) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListAllExpenses(ctx)
	if err != nil {
		return nil, classify("list expenses", err)
	}
	return toExpenses(rows)
}

func (r *SQLiteRepository) ExpensesPage(ctx context.Context, req core.PageRequest) (core.Page[core.Expense], error) {
	pattern := likePattern(req.Search)
	total, err := r.queries.CountExpenses(ctx, pattern)
	if err != nil {
		return core.Page[core.Expense]{}, classify("count expenses", err)
	}
	rows, err := r.queries.ListExpensesPage(ctx, pattern, int64(req.Limit), int64(req.Offset()))
	if err != nil {
		return core.Page[core.Expense]{}, classify("list expenses page", err)
	}
	items, err := toExpenses(rows)
	if err != nil {
		return core.Page[core.Expense]{}, err
	}
	return core.NewPage(items, total, req), nil
}

func (r *SQLiteRepository) TotalCashIn(ctx context.Context) (core.Money, error) {
	n, err := r.queries.SumDonationAmounts(ctx)
	return core.Cents(n), classify("sum donations", err)
}

func (r *SQLiteRepository) TotalPending(ctx context.Context) (core.Money, error) {
	n, err := r.queries.SumPending(ctx)
	return core.Cents(n), classify("sum pending", err)
}

func (r *SQLiteRepository) TotalExpenses(ctx context.Context) (core.Money, error) {
	n, err := r.queries.SumExpenses(ctx)
	return core.Cents(n), classify("sum expenses", err)
}

// PendingByDonor returns donors that still owe money, largest balance first.
func (r *SQLiteRepository) PendingByDonor(ctx context.Context) ([]core.DonorPending, error) {
	rows, err := r.queries.PendingByDonor(ctx)
	if err != nil {
		return nil, classify("pending by donor", err)
	}
	out := make([]core.DonorPending, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.DonorPending{Name: row.Name, TotalPending: core.Cents(row.PendingCents)})
	}
	return out, nil
}

func (r *SQLiteRepository) DonationTotalsByDate(ctx context.Context) ([]core.DateTotal, error) {
	rows, err := r.queries.DonationTotalsByDate(ctx)
	if err != nil {
		return nil, classify("donation totals by date", err)
	}
	out := make([]core.DateTotal, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, decodeErr("decode donation date", err)
		}
		out = append(out, core.DateTotal{Date: d, Total: core.Cents(row.AmountCents)})
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns free text into a substring LIKE pattern. Empty text
// matches every row.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}

func toDonation(row DonationRow) (core.Donation, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Donation{}, decodeErr("decode donation date", err)
	}
	d := core.Donation{
		ID:            row.ID,
		DonorID:       row.DonorID,
		DonorName:     row.DonorName,
		Date:          date,
		Category:      row.Category,
		Amount:        core.Cents(row.AmountCents),
		PaymentMethod: core.PaymentMethod(row.PaymentMethod),
		TransactionID: row.TransactionID,
		Pending:       core.Cents(row.PendingCents),
	}
	if row.ClearedDate.Valid && row.ClearedDate.String != "" {
		cleared, err := core.ParseDate(row.ClearedDate.String)
		if err != nil {
			return core.Donation{}, decodeErr("decode cleared date", err)
		}
		d.ClearedDate = &cleared
	}
	return d, nil
}

func toDonations(rows []DonationRow) ([]core.Donation, error) {
	out := make([]core.Donation, 0, len(rows))
	for _, row := range rows {
		d, err := toDonation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func expenseParams(e core.Expense) CreateExpenseParams {
	return CreateExpenseParams{
		Date:          e.Date.String(),
		Title:         e.Title,
		AmountCents:   e.Amount.Cents,
		Description:   e.Description,
		PaymentMethod: string(e.PaymentMethod),
		TransactionID: e.TransactionID,
	}
}

func toExpense(row Expense) (core.Expense, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Expense{}, decodeErr("decode expense date", err)
	}
	return core.Expense{
		ID:            row.ID,
		Date:          date,
		Title:         row.Title,
		Amount:        core.Cents(row.AmountCents),
		Description:   row.Description,
		PaymentMethod: core.PaymentMethod(row.PaymentMethod),
		TransactionID: row.TransactionID,
	}, nil
}

func toExpenses(rows []Expense) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toExpense(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeErr reports a stored value that no longer parses. Such rows are a
// storage fault, not caller input.
func decodeErr(what string, err error) error {
	return fmt.Errorf("%s: %w: %v", what, core.ErrStorage, err)
}
