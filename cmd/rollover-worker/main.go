package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"duoledger/internal/amqp"
	"duoledger/internal/config"
	"duoledger/internal/services"
	"duoledger/internal/storage"
	"duoledger/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting rollover-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the rollover worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRolloverQueue, cfg.AMQPEventsQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledgerService := services.NewLedgerService(repo, amqpClient)
	rolloverWorker := worker.NewRolloverWorker(ledgerService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeRolloverRequests(ctx, func(msg *amqp.RolloverRequestMessage) error {
			return rolloverWorker.HandleRolloverRequest(ctx, msg)
		})
	})

	// Periodic safety net for months where no rollover request arrived.
	logger.Info("Pending rollover check configured", "interval", cfg.RolloverCheckInterval)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RolloverCheckInterval)
		defer ticker.Stop()

		if err := rolloverWorker.CheckPendingRollover(ctx, time.Now()); err != nil {
			logger.Error("Initial pending rollover check failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				if err := rolloverWorker.CheckPendingRollover(ctx, now); err != nil {
					logger.Error("Pending rollover check failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
