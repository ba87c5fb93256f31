package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bankify-ledger/internal/config"
	"bankify-ledger/internal/server"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger := server.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverInstance, err := server.NewServer(cfg, logger)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	if err := serverInstance.Run(ctx, cfg.ServerPort, cfg.ShutdownTimeout); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
