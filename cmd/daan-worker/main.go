package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"daan/internal/backend"
	"daan/internal/cli"
	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/worker"
)

func main() {
	resync := flag.Bool("resync", false, "append every stored donation, installment and expense to the mirror, then exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	factory := backend.NewFactory(logger)

	mirror, mirrorType, err := factory.Mirror(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Mirror initialized", "type", mirrorType, log.FieldSheet, cfg.GoogleSpreadsheetID)

	repo := cli.InitSQLite(context.Background(), logger, cfg.SQLiteDBPath)
	w := worker.NewMirrorWorker(mirror, repo, metrics.New())

	if *resync {
		ctx := log.NewContext(context.Background(), logger)
		stats, err := w.Resync(ctx)
		repo.Close()
		if err != nil {
			logger.Error("Resync failed", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Resync complete",
			"donations", stats.Donations,
			"installments", stats.Installments,
			"expenses", stats.Expenses)
		return
	}

	client, err := factory.Consumer(cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", log.FieldError, err)
		}
	})
	ctx = log.NewContext(ctx, logger)

	logger.Info("Starting daan-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	if err := client.Consume(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
