// Package cli provides common initialization for the caixa binaries.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"caixa/internal/config"
	applog "caixa/internal/log"
	"caixa/internal/session"
)

// SetupLogger initializes structured logging and installs it as the
// default logger.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(component, slog.LevelInfo)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored; the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSessionStore builds the configured session store. The sqlite
// backend lets reconciliation decisions survive process restarts.
func InitSessionStore(logger *applog.Logger, cfg *config.Config) session.Store {
	if cfg.SessionBackend != "sqlite" {
		logger.Info("Using in-memory session store")
		return session.NewMemoryStore()
	}
	store, err := session.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite session store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Info("Using SQLite session store", "path", cfg.SQLiteDBPath)
	return store
}
