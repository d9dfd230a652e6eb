// Package main implements the entry point for the worklog API server,
// which turns a repository's recent GitHub activity into a structured
// task list via a pluggable analysis backend.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkessler/worklog-api/internal/config"
	"github.com/mkessler/worklog-api/internal/platform/logger"
	"github.com/mkessler/worklog-api/internal/platform/postgres"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	if err := run(context.Background(), cfg, appLogger); err != nil {
		appLogger.Error("Server exited with error", slog.String("error", err.Error()))
		log.Fatalf("Server exited with error: %v", err)
	}
}

// run wires the application and drives it until shutdown. Split from main
// so every failure path flows through a single error return.
func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
