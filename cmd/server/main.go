// Package main is the entry point for the messaging API server.
//
// MAIN PACKAGE IN GO:
// main() should stay minimal. Its job is to:
//  1. Read configuration
//  2. Create dependencies (logger, store)
//  3. Start the application
//
// All actual logic lives in internal/ packages so it can be tested without
// running a process.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/messaging-api/internal/config"
	"github.com/sakif/messaging-api/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Load fails with every problem listed at once. There is no point
	// starting half-configured, so exit before anything else happens.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// slog.NewTextHandler writes human-readable key=value lines to stdout.
	// Level comes from LOG_LEVEL (debug, info, warn, error).
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// === 3. OPEN THE STORE ===
	// Connecting and migrating get a bounded window so an unreachable
	// database fails the deploy instead of hanging it.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := server.OpenStore(ctx, cfg.DB)
	cancel()
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.DB.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
