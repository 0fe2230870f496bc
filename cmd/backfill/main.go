// Command backfill runs a one-shot catalog backfill: it re-evaluates
// every user's full attendance history against the current badge catalog.
// Run it after shipping new badge definitions. Interrupting and rerunning
// is safe; awards already in the ledger are never duplicated.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/concert-badges/internal/catalog"
	"github.com/concert-badges/internal/config"
	"github.com/concert-badges/internal/engine"
	"github.com/concert-badges/internal/postgres"
	"github.com/concert-badges/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	cat, err := catalog.Default()
	if err != nil {
		logger.Error("failed to load badge catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("badge catalog loaded", "version", cat.Version(), "badges", cat.Len())

	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(context.Background()); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// No emitter: backfilled awards are historical catch-ups, not live
	// notifications.
	eng := engine.New(repo, repo, engine.NopEmitter{}, cat, logger)
	backfiller := worker.NewBackfiller(repo, eng, &cfg.Backfill, logger)

	// Cancel between users on SIGINT/SIGTERM; rerunning resumes safely.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status, err := backfiller.Run(ctx)
	if err != nil {
		logger.Error("backfill did not complete",
			"processed", status.Processed,
			"total", status.Total,
			"error", err,
		)
		os.Exit(1)
	}

	logger.Info("backfill finished",
		"processed", status.Processed,
		"total", status.Total,
		"awarded", status.Awarded,
		"failed", status.Failed,
	)
}
