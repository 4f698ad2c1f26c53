// Package backend builds the outbound integrations selected by
// configuration: the event publisher used by the API and the consumer and
// spreadsheet mirror used by the worker.
package backend

import (
	"context"
	"errors"
	"fmt"

	"daan/internal/amqp"
	"daan/internal/config"
	"daan/internal/log"
	"daan/internal/services"
	"daan/internal/sheets"
	gsheet "daan/internal/sheets/google"
	"daan/internal/sheets/memory"
)

// CleanupFunc releases a resource created by the factory.
type CleanupFunc func() error

// MirrorType names the spreadsheet mirror implementation.
type MirrorType string

const (
	GoogleMirror MirrorType = "google"
	MemoryMirror MirrorType = "memory"
)

// ErrAMQPNotConfigured is returned when a component requires the broker but
// AMQP_URL is empty.
var ErrAMQPNotConfigured = errors.New("AMQP_URL is not configured")

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentApp)}
}

// Publisher connects the ledger event publisher. Publishing is optional: a
// missing URL or an unreachable broker yields a nil publisher and the API
// runs without the mirror feed.
func (f *Factory) Publisher(cfg *config.Config) (services.EventPublisher, CleanupFunc) {
	if cfg.AMQPURL == "" {
		f.logger.Info("AMQP not configured, ledger events disabled")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		return nil, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, client.Close
}

// Consumer connects the client the worker consumes from. Unlike Publisher
// it fails when the broker is missing.
func (f *Factory) Consumer(cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, ErrAMQPNotConfigured
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	return client, nil
}

// Mirror returns the Google Sheets mirror when a spreadsheet is configured
// and an in-memory one otherwise.
func (f *Factory) Mirror(ctx context.Context, cfg *config.Config) (sheets.LedgerMirror, MirrorType, error) {
	if !cfg.MirrorEnabled() {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to memory only")
		return memory.New(), MemoryMirror, nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		DonationsSheet:    cfg.GoogleDonationsSheet,
		InstallmentsSheet: cfg.GoogleInstallmentsSheet,
		ExpensesSheet:     cfg.GoogleExpensesSheet,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return client, GoogleMirror, nil
}
