package services

import (
	"context"
	"fmt"

	"daan/internal/amqp"
	"daan/internal/confirm"
	"daan/internal/core"
	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/storage"
)

// ExpenseService orchestrates expense operations across SQLite and AMQP.
type ExpenseService struct {
	repo      *storage.SQLiteRepository
	events    eventSink
	confirmer confirm.Confirmer
	paging    Paging
}

func NewExpenseService(repo *storage.SQLiteRepository, pub EventPublisher, m *metrics.Metrics, confirmer confirm.Confirmer, paging Paging) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		events:    eventSink{pub: pub, metrics: m},
		confirmer: confirmer,
		paging:    paging,
	}
}

// AddExpense saves an expense locally, then publishes it.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.events.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseSaved, saved))
	return saved, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, e core.Expense) (core.Expense, error) {
	if id <= 0 {
		return core.Expense{}, core.ErrInvalidID
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.repo.UpdateExpense(ctx, id, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentExpense).InfoContext(ctx, "Expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, id,
		log.FieldAmountCents, saved.Amount.Cents)
	s.events.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseSaved, saved))
	return saved, nil
}

// DeleteExpense removes an expense once token is confirmed.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64, token string) error {
	if id <= 0 {
		return core.ErrInvalidID
	}
	if s.confirmer == nil {
		return core.ErrConfirmationDisabled
	}
	if err := s.confirmer.Confirm(ctx, token); err != nil {
		return err
	}
	e, err := s.repo.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.events.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseDeleted, e))
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	if id <= 0 {
		return core.Expense{}, core.ErrInvalidID
	}
	return s.repo.GetExpense(ctx, id)
}

func (s *ExpenseService) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.repo.AllExpenses(ctx)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, req core.PageRequest) (core.Page[core.Expense], error) {
	return s.repo.ExpensesPage(ctx, s.paging.Normalize(req))
}
