package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concert-badges/internal/catalog"
	"github.com/concert-badges/internal/config"
	"github.com/concert-badges/internal/engine"
	"github.com/concert-badges/internal/handler"
	"github.com/concert-badges/internal/kafka"
	"github.com/concert-badges/internal/postgres"
	"github.com/concert-badges/internal/redis"
	"github.com/concert-badges/internal/service"
	"github.com/concert-badges/internal/websocket"
	"github.com/concert-badges/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the badge catalog
	cat, err := catalog.Default()
	if err != nil {
		logger.Error("failed to load badge catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("badge catalog loaded", "version", cat.Version(), "badges", cat.Len())

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize the badge summary cache
	var cache *redis.Cache
	if cfg.Cache.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		cache, err = redis.NewCache(&cfg.Redis, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			logger.Info("connected to Redis")
		}
	}

	// Initialize WebSocket hub (the default award notification emitter)
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize the evaluation engine and service
	eng := engine.New(repo, repo, wsHub, cat, logger)
	badgeService := service.NewBadgeService(repo, eng, cache, logger)

	// Initialize the backfill worker
	backfiller := worker.NewBackfiller(repo, eng, &cfg.Backfill, logger)

	// Optional scheduled backfill sweep (catalog rollouts)
	var scheduler *worker.Scheduler
	if cfg.Backfill.Schedule != "" {
		scheduler, err = worker.NewScheduler(backfiller, cfg.Backfill.Schedule, logger)
		if err != nil {
			logger.Error("invalid backfill schedule", "schedule", cfg.Backfill.Schedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	// Initialize Kafka consumer for attendance event ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, badgeService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(badgeService, backfiller, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the backfill scheduler
	if scheduler != nil {
		scheduler.Stop()
	}

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
