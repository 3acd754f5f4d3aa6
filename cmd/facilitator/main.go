// The facilitator binary runs the x402 payment facilitator for the Miden
// ZK rollup: it verifies client-proven P2ID payments and relays them to a
// Miden node.
//
// Configuration comes from environment variables (a .env file is honored
// when present): BIND_ADDR (or HOST/PORT, default 0.0.0.0:4020),
// MIDEN_RPC_URL, MIDEN_NETWORK, FAUCET_ID, LOG_LEVEL.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"midenpay/internal/config"
	"midenpay/internal/handlers"
	"midenpay/internal/metrics"
	"midenpay/internal/monitoring"
	"midenpay/internal/protocol"
	"midenpay/internal/server"
	x402miden "midenpay/internal/x402/miden"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logging - JSON for production, text for development
	setupLogging(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	reference, err := x402miden.ParseChainReference(cfg.Miden.Network)
	if err != nil {
		slog.Error("invalid network", "error", err)
		os.Exit(1)
	}

	metricsCollector := metrics.New()
	provider := x402miden.NewProvider(
		cfg.Miden.RPCURL,
		reference,
		cfg.Miden.RPCTimeout,
		x402miden.WithMetrics(metricsCollector),
	)

	var txVerifier protocol.TransactionVerifier = protocol.NewStarkVerifier(cfg.Miden.VerifierLevel)
	if cfg.Miden.ProofsDisabled {
		slog.Error("proof verification disabled: every payment will be rejected")
		txVerifier = protocol.UnavailableVerifier{}
	}

	verifier := x402miden.NewVerifier(txVerifier, provider)
	settler := x402miden.NewSettler(verifier, provider)

	srv := server.New(cfg, verifier, settler, provider, metricsCollector)

	// Create a context that will be cancelled on shutdown signal
	ctx, cancel := context.WithCancel(context.Background())

	// Background balance monitor
	monitor := monitoring.NewBalanceMonitor(&cfg.Monitoring, cfg.Miden.FaucetID, provider)
	monitor.Start(ctx)

	slog.Info("facilitator starting",
		"version", handlers.Version,
		"addr", cfg.Server.Address,
		"network", reference.ChainID(),
		"faucet_id", cfg.Miden.FaucetID)

	// Start server in a goroutine
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	// Cancel context to signal workers to stop
	cancel()
	monitor.Stop()

	// Graceful shutdown with timeout: stop accepting, drain in-flight
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}

// setupLogging configures the global slog logger. LOG_LEVEL overrides the
// environment-based default.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		// JSON output for production - easy to parse by log aggregators
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		// Text output for development - human readable
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
