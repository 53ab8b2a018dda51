package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solmint/launchpad/service/config"
	"github.com/solmint/launchpad/service/db"
	"github.com/solmint/launchpad/service/market"
	"github.com/solmint/launchpad/service/metrics"
	natspkg "github.com/solmint/launchpad/service/nats"
	"github.com/solmint/launchpad/service/pump"
	"github.com/solmint/launchpad/service/solana"
	"github.com/solmint/launchpad/service/temporal"
)

func main() {
	// Load and validate configuration from environment
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting temporal worker",
		"temporal_host", cfg.TemporalHost,
		"namespace", cfg.TemporalNamespace,
		"task_queue", cfg.TemporalTaskQueue,
		"log_level", cfg.LogLevel,
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// Verify database connection
	if err := dbPool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize database store
	store := db.NewStore(dbPool)

	// Initialize Prometheus metrics collector
	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry
	logger.Info("Prometheus metrics collector initialized")

	// Start metrics HTTP server
	metricsAddr := getEnv("METRICS_ADDR", ":9091")
	metricsServer := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("starting metrics HTTP server", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", "error", err)
		}
	}()

	// Parse wallet keys. The agent key funds generated wallets; the buy-back
	// key is optional and only used when buy-back is enabled.
	agentKey, err := solanago.PrivateKeyFromBase58(cfg.AgentWalletKey)
	if err != nil {
		logger.Error("invalid agent wallet private key", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded agent wallet", "public_key", agentKey.PublicKey().String())

	var buybackKey solanago.PrivateKey
	if cfg.BuybackWalletKey != "" {
		buybackKey, err = solanago.PrivateKeyFromBase58(cfg.BuybackWalletKey)
		if err != nil {
			logger.Error("invalid buy-back wallet private key", "error", err)
			os.Exit(1)
		}
		logger.Info("loaded buy-back wallet", "public_key", buybackKey.PublicKey().String())
	}

	// Initialize Solana RPC client for funding transfers
	solanaRPC := solana.NewRPCClient(cfg.SolanaRPCURL)
	solanaClient := solana.NewClient(solanaRPC, cfg.SolanaRPCURL, cfg.ConfirmationTimeout, metricsCollector, logger)
	logger.Info("initialized solana RPC client", "url", cfg.SolanaRPCURL)

	// Initialize the pump.fun launch service
	launcher := pump.NewSDKLauncher(cfg.SolanaRPCURL, logger)
	launchService := pump.NewService(launcher, metricsCollector, logger)
	logger.Info("initialized pump.fun launch service")

	// Initialize the market price prober
	prober := market.NewProbe(market.DefaultBaseURL, logger)
	logger.Info("initialized market price prober", "base_url", market.DefaultBaseURL)

	// Initialize NATS publisher for launch events
	natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
	if err != nil {
		logger.Error("failed to create NATS publisher", "error", err)
		os.Exit(1)
	}
	defer natsPublisher.Close()
	logger.Info("connected to NATS", "url", cfg.NATSURL)

	// Initialize Temporal worker
	workerConfig := temporal.WorkerConfig{
		TemporalHost:      cfg.TemporalHost,
		TemporalNamespace: cfg.TemporalNamespace,
		TaskQueue:         cfg.TemporalTaskQueue,
		Store:             store,
		Funder:            solanaClient,
		LaunchService:     launchService,
		PriceProber:       prober,
		Publisher:         natsPublisher,
		AgentKey:          agentKey,
		BuybackKey:        buybackKey,
		Metrics:           metricsCollector,
		Logger:            logger,
	}

	worker, err := temporal.NewWorker(workerConfig)
	if err != nil {
		logger.Error("failed to create temporal worker", "error", err)
		os.Exit(1)
	}

	logger.Info("temporal worker initialized, all dependencies ready",
		"temporal_host", cfg.TemporalHost,
		"temporal_namespace", cfg.TemporalNamespace,
		"task_queue", cfg.TemporalTaskQueue,
		"buyback_enabled", cfg.BuybackEnabled,
	)

	// Start worker in background
	workerErrors := make(chan error, 1)
	go func() {
		logger.Info("starting temporal worker")
		workerErrors <- worker.Start()
	}()

	// Wait for shutdown signal or worker error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-workerErrors:
		logger.Error("temporal worker error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Stop worker gracefully
		logger.Info("stopping temporal worker")
		worker.Stop()
		logger.Info("temporal worker stopped")

		logger.Info("shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// getEnv returns the value of an environment variable or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
