package services

import (
	"context"
	"fmt"
	"strings"

	"daan/internal/amqp"
	"daan/internal/cache"
	"daan/internal/confirm"
	"daan/internal/core"
	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/storage"
)

// DonorSearchLimit caps autocomplete results.
const DonorSearchLimit = 10

// DonationService orchestrates donation writes across SQLite and AMQP and
// serves the donation read paths.
type DonationService struct {
	repo      *storage.SQLiteRepository
	events    eventSink
	confirmer confirm.Confirmer
	donors    cache.Cache[[]string]
	paging    Paging
}

// NewDonationService wires the service. donors may be nil to disable the
// autocomplete cache.
func NewDonationService(repo *storage.SQLiteRepository, pub EventPublisher, m *metrics.Metrics, confirmer confirm.Confirmer, donors cache.Cache[[]string], paging Paging) *DonationService {
	return &DonationService{
		repo:      repo,
		events:    eventSink{pub: pub, metrics: m},
		confirmer: confirmer,
		donors:    donors,
		paging:    paging,
	}
}

func (s *DonationService) AddDonation(ctx context.Context, in core.DonationInput) (core.Donation, error) {
	if err := in.Validate(); err != nil {
		return core.Donation{}, err
	}
	d, donorCreated, err := s.repo.CreateDonation(ctx, in)
	if err != nil {
		return core.Donation{}, fmt.Errorf("save donation: %w", err)
	}
	if donorCreated {
		s.invalidateDonors()
	}
	s.events.publish(ctx, amqp.NewDonationEvent(amqp.DonationSaved, d))
	return d, nil
}

// UpdateDonation overwrites a donation's fields. The donor is fixed at
// creation and in.DonorName is ignored. The pending balance is kept unless
// in.Pending is set; amount and pending never derive from each other.
func (s *DonationService) UpdateDonation(ctx context.Context, id int64, in core.DonationInput) (core.Donation, error) {
	if id <= 0 {
		return core.Donation{}, core.ErrInvalidID
	}
	if err := in.ValidateFields(); err != nil {
		return core.Donation{}, err
	}
	d, err := s.repo.UpdateDonation(ctx, id, in)
	if err != nil {
		return core.Donation{}, fmt.Errorf("update donation: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentDonation).InfoContext(ctx, "Donation updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldDonationID, id,
		log.FieldPendingCents, d.Pending.Cents)
	s.events.publish(ctx, amqp.NewDonationEvent(amqp.DonationSaved, d))
	return d, nil
}

// DeleteDonation removes a donation and its installments once token is
// confirmed.
func (s *DonationService) DeleteDonation(ctx context.Context, id int64, token string) error {
	if id <= 0 {
		return core.ErrInvalidID
	}
	if err := s.confirm(ctx, token); err != nil {
		return err
	}
	d, err := s.repo.DeleteDonation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	s.events.publish(ctx, amqp.NewDonationEvent(amqp.DonationDeleted, d))
	return nil
}

func (s *DonationService) confirm(ctx context.Context, token string) error {
	if s.confirmer == nil {
		return core.ErrConfirmationDisabled
	}
	if err := s.confirmer.Confirm(ctx, token); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentConfirm).WarnContext(ctx, "Delete confirmation rejected",
			log.FieldError, err)
		return err
	}
	return nil
}

// SearchDonors returns up to DonorSearchLimit donor names containing q.
// Matching ignores case for ASCII letters only, so the cache is keyed on q
// as typed.
func (s *DonationService) SearchDonors(ctx context.Context, q string) ([]string, error) {
	key := strings.TrimSpace(q)
	if s.donors != nil {
		if names, ok := s.donors.Get(key); ok {
			return names, nil
		}
	}
	names, err := s.repo.SearchDonorNames(ctx, q, DonorSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search donors: %w", err)
	}
	if s.donors != nil {
		s.donors.Set(key, names)
	}
	return names, nil
}

func (s *DonationService) invalidateDonors() {
	if s.donors != nil {
		s.donors.Purge()
	}
}

// DonorHistory lists a donor's donations newest first with paid and pending
// totals. An unknown donor has an empty history.
func (s *DonationService) DonorHistory(ctx context.Context, name string) (core.DonorHistory, error) {
	if name == "" {
		return core.DonorHistory{}, core.ErrEmptyDonorName
	}
	donations, err := s.repo.DonationsByDonor(ctx, name)
	if err != nil {
		return core.DonorHistory{}, fmt.Errorf("donor history: %w", err)
	}
	h := core.DonorHistory{Name: name, Donations: donations}
	for _, d := range donations {
		h.TotalPaid = h.TotalPaid.Add(d.Amount)
		h.TotalPending = h.TotalPending.Add(d.Pending)
	}
	return h, nil
}

func (s *DonationService) GetDonation(ctx context.Context, id int64) (core.Donation, error) {
	if id <= 0 {
		return core.Donation{}, core.ErrInvalidID
	}
	return s.repo.GetDonation(ctx, id)
}

func (s *DonationService) AllDonations(ctx context.Context) ([]core.Donation, error) {
	return s.repo.AllDonations(ctx)
}

func (s *DonationService) ListDonations(ctx context.Context, req core.PageRequest) (core.Page[core.Donation], error) {
	return s.repo.DonationsPage(ctx, s.paging.Normalize(req))
}

// Installments returns a donation's payment history, oldest first. Deleted
// or unknown donations have none.
func (s *DonationService) Installments(ctx context.Context, donationID int64) ([]core.Installment, error) {
	if donationID <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.repo.Installments(ctx, donationID)
}
