// Package main is the entry point for the user service.
//
// main only reads configuration, builds the logger and hands both to
// internal/server; everything else lives in internal packages.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/user-service/internal/config"
	"github.com/sakif/user-service/internal/logger"
	"github.com/sakif/user-service/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// Environment variables, optionally preloaded from a .env file.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// === 2. LOGGING ===
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	log.Info("configuration loaded",
		slog.Int("port", cfg.Port),
		slog.String("db_path", cfg.DBPath),
		slog.Int("users_number", cfg.UsersNumber),
		slog.Bool("churn_enabled", cfg.Churn.Enabled),
		slog.Duration("churn_interval", cfg.Churn.Interval),
	)

	// === 3. SERVER ===
	// New opens the database and runs migrations; Start seeds, starts
	// churn and blocks until SIGINT/SIGTERM.
	srv, err := server.New(cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
