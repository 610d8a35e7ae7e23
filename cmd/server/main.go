// Command server runs the HTTP gateway for event ingestion.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"

	"github.com/beacon-telemetry/beacon/internal/dedup"
	"github.com/beacon-telemetry/beacon/internal/gateway"
	"github.com/beacon-telemetry/beacon/internal/nats"
	"github.com/beacon-telemetry/beacon/internal/observability"
	"github.com/beacon-telemetry/beacon/internal/pipeline"
	"github.com/beacon-telemetry/beacon/internal/projects"
	"github.com/beacon-telemetry/beacon/internal/redis"
)

// Config holds all server configuration.
type Config struct {
	// LogLevel is the log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFormat is the log format (json, text)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP gateway configuration
	Gateway gateway.Config `envPrefix:""`

	// NATS configuration
	NATS nats.Config `envPrefix:""`

	// Redis configuration (dedup cache)
	Redis redis.Config `envPrefix:""`

	// Duplicate suppression configuration
	Dedup dedup.Config `envPrefix:""`

	// PostgreSQL configuration (project registry)
	DB projects.DBConfig `envPrefix:"DB_"`
}

func main() {
	// Load configuration from environment
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting beacon server",
		"log_level", cfg.LogLevel,
		"http_addr", cfg.Gateway.Addr,
		"nats_url", cfg.NATS.URL,
		"redis_addr", cfg.Redis.Addr,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Setup observability
	obs, err := observability.New("beacon-server")
	if err != nil {
		logger.Error("failed to setup observability", "error", err)
		os.Exit(1)
	}
	metrics, err := observability.NewMetrics(obs.Meter())
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	// Connect to NATS
	natsClient, err := nats.NewClient(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	// Setup stream
	streamMgr := nats.NewStreamManager(natsClient.JetStream(), cfg.NATS.Stream, logger)
	if _, err := streamMgr.EnsureStream(ctx); err != nil {
		logger.Error("failed to ensure stream", "error", err)
		os.Exit(1)
	}

	// Connect to Redis (dedup cache)
	redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	// Connect to PostgreSQL (project registry)
	dbClient, err := projects.NewDBClient(ctx, cfg.DB, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = dbClient.Close() }()

	projectsMod := projects.New(dbClient.DB(), logger)
	dedupMod := dedup.New(cfg.Dedup, redis.NewMarkerCache(redisClient), metrics, logger)

	// Assemble the plugin chain: validation runs first, then duplicate
	// suppression, then enrichment.
	runner := pipeline.NewRunner([]pipeline.Plugin{
		gateway.NewValidationPlugin(),
		dedupMod.Plugin(),
		gateway.NewEnrichmentPlugin(),
	}, metrics, logger)

	publisher := nats.NewPublisher(natsClient.JetStream(), cfg.NATS.Stream.Name, logger)
	service := gateway.NewEventService(runner, publisher, metrics, logger)

	readiness := map[string]gateway.HealthChecker{
		"nats":     natsClient,
		"redis":    redisClient,
		"postgres": dbClient,
	}

	server := gateway.NewServer(cfg.Gateway, service, projectsMod, obs, metrics, readiness, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	// Graceful shutdown
	logger.Info("initiating graceful shutdown")
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := natsClient.Drain(); err != nil {
		logger.Error("NATS drain error", "error", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		logger.Error("observability shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// setupLogger creates a logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
