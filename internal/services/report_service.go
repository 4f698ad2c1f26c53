package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"daan/internal/core"
	"daan/internal/storage"
)

// ReportService computes ledger aggregates on demand.
type ReportService struct {
	repo *storage.SQLiteRepository
}

func NewReportService(repo *storage.SQLiteRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Dashboard runs the independent aggregate queries concurrently. Totals over
// an empty ledger are zero.
func (s *ReportService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	var d core.Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.TotalCashIn, err = s.repo.TotalCashIn(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalPending, err = s.repo.TotalPending(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalExpense, err = s.repo.TotalExpenses(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.DateWiseDonations, err = s.repo.DonationTotalsByDate(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return core.Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}

// Pending lists donors with an outstanding balance, largest first.
func (s *ReportService) Pending(ctx context.Context) ([]core.DonorPending, error) {
	rows, err := s.repo.PendingByDonor(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending by donor: %w", err)
	}
	return rows, nil
}
