package services

import (
	"context"
	"fmt"

	"daan/internal/amqp"
	"daan/internal/core"
	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/storage"
)

// SettlementResult describes how a payment was applied.
type SettlementResult struct {
	core.AllocationResult
	Installments []core.Installment `json:"installments"`
}

// SettlementService applies payments against pending donation balances.
// Every settlement runs in a single transaction: either all installments and
// balance updates are visible afterwards or none are.
type SettlementService struct {
	repo    *storage.SQLiteRepository
	events  eventSink
	metrics *metrics.Metrics
}

func NewSettlementService(repo *storage.SQLiteRepository, pub EventPublisher, m *metrics.Metrics) *SettlementService {
	return &SettlementService{
		repo:    repo,
		events:  eventSink{pub: pub, metrics: m},
		metrics: m,
	}
}

// SettleOne pays down a single donation. Amounts above the pending balance
// are clamped; the excess is reported as discarded.
func (s *SettlementService) SettleOne(ctx context.Context, donationID int64, p core.Payment) (SettlementResult, error) {
	if donationID <= 0 {
		return SettlementResult{}, core.ErrInvalidID
	}
	if err := p.Validate(); err != nil {
		return SettlementResult{}, err
	}

	var res SettlementResult
	err := s.repo.WithTx(ctx, func(tx *storage.Tx) error {
		d, err := tx.GetDonation(ctx, donationID)
		if err != nil {
			return err
		}
		if d.IsSettled() {
			return fmt.Errorf("donation %d: %w", donationID, core.ErrNoPendingBalance)
		}
		plan := core.AllocateSingle(p.Amount, core.Outstanding{
			DonationID: d.ID,
			Date:       d.Date,
			Pending:    d.Pending,
		})
		res, err = apply(ctx, tx, plan, p)
		return err
	})
	return s.finish(ctx, metrics.ScopeDonation, res, err)
}

// SettleByDonor spreads a payment over the donor's pending donations,
// oldest first. A donor with nothing outstanding, or no donor by that name,
// yields an empty result and no error.
func (s *SettlementService) SettleByDonor(ctx context.Context, donorName string, p core.Payment) (SettlementResult, error) {
	if donorName == "" {
		return SettlementResult{}, core.ErrEmptyDonorName
	}
	if err := p.Validate(); err != nil {
		return SettlementResult{}, err
	}

	var res SettlementResult
	err := s.repo.WithTx(ctx, func(tx *storage.Tx) error {
		outstanding, err := tx.OutstandingByDonor(ctx, donorName)
		if err != nil {
			return err
		}
		res, err = apply(ctx, tx, core.AllocateOldestFirst(p.Amount, outstanding), p)
		return err
	})
	return s.finish(ctx, metrics.ScopeDonor, res, err)
}

func apply(ctx context.Context, tx *storage.Tx, plan core.AllocationResult, p core.Payment) (SettlementResult, error) {
	res := SettlementResult{AllocationResult: plan, Installments: []core.Installment{}}
	if res.Allocations == nil {
		res.Allocations = []core.Allocation{}
	}
	for _, a := range plan.Allocations {
		inst, err := tx.RecordInstallment(ctx, a.DonationID, a.Applied, p, a.BalanceAfter)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("settle donation %d: %w", a.DonationID, err)
		}
		res.Installments = append(res.Installments, inst)
	}
	return res, nil
}

func (s *SettlementService) finish(ctx context.Context, scope string, res SettlementResult, err error) (SettlementResult, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentSettlement)
	if err != nil {
		s.metrics.ObserveSettlement(scope, core.Kind(err), 0, 0, 0)
		logger.WarnContext(ctx, "Settlement rejected",
			log.FieldOperation, log.OpSettle,
			"scope", scope,
			log.FieldErrorKind, core.Kind(err),
			log.FieldError, err)
		return SettlementResult{}, err
	}

	outcome := "applied"
	if len(res.Installments) == 0 {
		outcome = "nothing_owed"
	}
	s.metrics.ObserveSettlement(scope, outcome, res.Applied.Cents, res.Discarded.Cents, len(res.Installments))
	logger.InfoContext(ctx, "Settlement recorded",
		append([]any{log.FieldOperation, log.OpSettle, "scope", scope},
			log.NewFields().WithSettlement(res.Applied.Cents, res.Discarded.Cents, len(res.Installments)).ToSlice()...)...)

	events := make([]*amqp.LedgerEvent, 0, len(res.Installments))
	for _, inst := range res.Installments {
		events = append(events, amqp.NewInstallmentEvent(inst))
	}
	s.events.publish(ctx, events...)
	return res, nil
}
