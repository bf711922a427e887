// Package main implements the cart tracker worker. It consumes item jobs
// from the Redis queue written by the server and persists them to Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/cart-tracker/internal/config"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
	"github.com/phrazzld/cart-tracker/internal/platform/postgres"
	"github.com/phrazzld/cart-tracker/internal/service"
	"github.com/phrazzld/cart-tracker/internal/task"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("cart tracker worker failed: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := requireRedisTransport(cfg.Queue); err != nil {
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
	defer func() { _ = db.Close() }()

	client, err := task.OpenRedis(ctx, cfg.Queue.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() { _ = client.Close() }()

	persister, err := service.NewItemPersister(
		db,
		postgres.NewPostgresCartStore(db, appLogger),
		postgres.NewPostgresItemStore(db, appLogger),
		appLogger,
	)
	if err != nil {
		return fmt.Errorf("failed to create item persister: %w", err)
	}

	consumer := task.NewRedisConsumer(client, persister, task.RedisConsumerConfig{
		Queue:       cfg.Queue.Name,
		DeadLetter:  cfg.Queue.DeadLetterName,
		WorkerCount: cfg.Queue.WorkerCount,
		PollTimeout: cfg.Queue.PollTimeout(),
	}, appLogger)

	monitor := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Queue.WorkerMetricsPort),
		Handler:           monitorRouter(appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		appLogger.Info("Starting worker monitor", "port", cfg.Queue.WorkerMetricsPort)
		if err := monitor.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker monitor failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		return monitor.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	appLogger.Info("Worker shutdown completed")
	return err
}

// requireRedisTransport rejects configurations the worker cannot serve. The
// memory transport is drained inside the server process.
func requireRedisTransport(cfg config.QueueConfig) error {
	if cfg.Transport != config.TransportRedis {
		return fmt.Errorf("worker requires queue.transport=%s, got %q", config.TransportRedis, cfg.Transport)
	}
	return nil
}

func monitorRouter(logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}
