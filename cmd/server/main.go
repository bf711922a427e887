// Package main implements the cart tracker API server. It accepts item
// events on POST /api/v1/item and hands them to the persistence queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/cart-tracker/internal/config"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "", "run a schema migration command (up, down, status, version) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrate); err != nil {
		log.Printf("cart tracker server failed: %v", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration and either applies a migration command or serves
// HTTP until ctx is cancelled.
func run(ctx context.Context, migrateCommand string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := postgres.OpenDB(ctx, cfg.Database.URL, appLogger)
	if err != nil {
		return err
	}

	if migrateCommand != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, migrateCommand, appLogger)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadAppConfig loads the application configuration from environment variables or config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"queue_transport", cfg.Queue.Transport)
	return cfg, nil
}
