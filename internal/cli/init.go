// Package cli holds the bootstrap steps shared by cmd/daan and
// cmd/daan-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"daan/internal/config"
	"daan/internal/log"
	"daan/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default. An unknown level falls back to info.
func SetupLogger(component string) *log.Logger {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown LOG_LEVEL, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the ledger database, running pending migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(ctx context.Context, logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	if version, dirty, err := storage.SchemaVersion(storage.DSN(dbPath)); err == nil {
		logger.InfoContext(ctx, "SQLite ready",
			"path", dbPath,
			log.FieldSchemaVersion, version,
			"dirty", dirty)
	}
	return repo
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup bounded by timeout. done is closed once cleanup has returned
// or the timeout expired.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
