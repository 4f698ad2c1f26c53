package worker

import (
	"context"
	"fmt"

	"daan/internal/amqp"
	"daan/internal/core"
	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/sheets"
	"daan/internal/storage"
)

// MirrorWorker copies ledger events into the spreadsheet mirror.
type MirrorWorker struct {
	mirror  sheets.LedgerMirror
	repo    *storage.SQLiteRepository
	metrics *metrics.Metrics
}

// NewMirrorWorker wires the worker. repo is only needed by Resync and may be
// nil otherwise.
func NewMirrorWorker(mirror sheets.LedgerMirror, repo *storage.SQLiteRepository, m *metrics.Metrics) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, repo: repo, metrics: m}
}

// HandleEvent appends the event's snapshot to the matching sheet. A returned
// error makes the consumer requeue the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	ref, err := w.mirrorEvent(ctx, ev)
	if err != nil {
		w.metrics.Mirrored(string(ev.Type), "error")
		logger.ErrorContext(ctx, "Failed to mirror ledger event",
			log.FieldOperation, log.OpMirror,
			log.FieldEventType, ev.Type,
			log.FieldEventID, ev.ID,
			log.FieldError, err)
		return fmt.Errorf("mirror %s: %w", ev.Type, err)
	}

	w.metrics.Mirrored(string(ev.Type), "ok")
	logger.InfoContext(ctx, "Mirrored ledger event",
		log.FieldOperation, log.OpMirror,
		log.FieldEventType, ev.Type,
		log.FieldEventID, ev.ID,
		log.FieldSheet, ref)
	return nil
}

func (w *MirrorWorker) mirrorEvent(ctx context.Context, ev *amqp.LedgerEvent) (string, error) {
	switch ev.Type {
	case amqp.DonationSaved:
		return w.mirror.MirrorDonation(ctx, *ev.Donation, sheets.ActionSaved)
	case amqp.DonationDeleted:
		return w.mirror.MirrorDonation(ctx, *ev.Donation, sheets.ActionDeleted)
	case amqp.InstallmentRecorded:
		return w.mirror.MirrorInstallment(ctx, *ev.Installment)
	case amqp.ExpenseSaved:
		return w.mirror.MirrorExpense(ctx, *ev.Expense, sheets.ActionSaved)
	case amqp.ExpenseDeleted:
		return w.mirror.MirrorExpense(ctx, *ev.Expense, sheets.ActionDeleted)
	default:
		return "", fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

// ResyncStats counts rows written by Resync.
type ResyncStats struct {
	Donations    int
	Installments int
	Expenses     int
}

// Resync appends the current state of every donation, installment and
// expense. It is meant for seeding an empty spreadsheet after the worker was
// down or the queue was purged.
func (w *MirrorWorker) Resync(ctx context.Context) (ResyncStats, error) {
	var stats ResyncStats
	if w.repo == nil {
		return stats, fmt.Errorf("resync: %w", core.ErrStorage)
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	donations, err := w.repo.AllDonations(ctx)
	if err != nil {
		return stats, fmt.Errorf("resync donations: %w", err)
	}
	for _, d := range donations {
		if _, err := w.mirror.MirrorDonation(ctx, d, sheets.ActionSaved); err != nil {
			return stats, fmt.Errorf("resync donation %d: %w", d.ID, err)
		}
		stats.Donations++

		items, err := w.repo.Installments(ctx, d.ID)
		if err != nil {
			return stats, fmt.Errorf("resync installments of %d: %w", d.ID, err)
		}
		for _, i := range items {
			if _, err := w.mirror.MirrorInstallment(ctx, i); err != nil {
				return stats, fmt.Errorf("resync installment %d: %w", i.ID, err)
			}
			stats.Installments++
		}
	}

	expenses, err := w.repo.AllExpenses(ctx)
	if err != nil {
		return stats, fmt.Errorf("resync expenses: %w", err)
	}
	for _, e := range expenses {
		if _, err := w.mirror.MirrorExpense(ctx, e, sheets.ActionSaved); err != nil {
			return stats, fmt.Errorf("resync expense %d: %w", e.ID, err)
		}
		stats.Expenses++
	}

	logger.InfoContext(ctx, "Resync completed",
		"donations", stats.Donations,
		"installments", stats.Installments,
		"expenses", stats.Expenses)
	return stats, nil
}
