package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"daan/internal/backend"
	"daan/internal/cache"
	"daan/internal/cli"
	"daan/internal/confirm"
	apphttp "daan/internal/http"
	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(context.Background(), logger, cfg.SQLiteDBPath)

	m := metrics.New()

	donors := cache.NewLRUCache[[]string](cfg.DonorCacheSize, cfg.DonorCacheTTL)
	m.RegisterCache("donors", donors.Stats)
	caches := cache.NewManager()
	caches.Register(donors)
	caches.Start(context.Background(), cfg.DonorCacheTTL)

	confirmer, err := confirm.NewBcrypt(cfg.DeleteSecretHash)
	if err != nil {
		logger.Error("Invalid DELETE_SECRET_HASH", log.FieldError, err)
		os.Exit(1)
	}
	if !confirmer.Enabled() {
		logger.Warn("DELETE_SECRET_HASH not set, deletes are disabled")
	}

	publisher, closePublisher := backend.NewFactory(logger).Publisher(cfg)

	paging := services.Paging{Default: cfg.PageSizeDefault, Max: cfg.PageSizeMax}
	srv := apphttp.NewServer(apphttp.Options{
		Addr: ":" + cfg.Port,
		Services: apphttp.Services{
			Donations:  services.NewDonationService(repo, publisher, m, confirmer, donors, paging),
			Settlement: services.NewSettlementService(repo, publisher, m),
			Expenses:   services.NewExpenseService(repo, publisher, m, confirmer, paging),
			Reports:    services.NewReportService(repo),
		},
		Ready:              repo.Ping,
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMin,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if closePublisher != nil {
			if err := closePublisher(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", log.FieldError, err)
		}
	})

	logger.Info("Starting daan server",
		"port", cfg.Port,
		"ledger_events", publisher != nil,
		"rate_limit_per_minute", cfg.RateLimitPerMin)
	start := time.Now()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", "uptime", time.Since(start).Round(time.Second).String())
}
