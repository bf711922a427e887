package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/cart-tracker/internal/config"
	"github.com/phrazzld/cart-tracker/internal/platform/postgres"
	"github.com/phrazzld/cart-tracker/internal/service"
	"github.com/phrazzld/cart-tracker/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	intakeService service.IntakeService
	dispatcher    task.Dispatcher

	// Set for the memory transport only: the queue and the pool draining it.
	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool

	// Set for the redis transport only.
	redisClient *redis.Client
}

// newApplication wires the stores, the persistence dispatcher and the intake
// service. With the memory transport it also starts the in-process worker pool.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	switch cfg.Queue.Transport {
	case config.TransportMemory:
		persister, err := service.NewItemPersister(
			db,
			postgres.NewPostgresCartStore(db, logger),
			postgres.NewPostgresItemStore(db, logger),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create item persister: %w", err)
		}

		app.taskQueue = task.NewTaskQueue(cfg.Queue.Size, logger)
		app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
			WorkerCount: cfg.Queue.WorkerCount,
		}, logger)
		app.workerPool.SetErrorHandler(task.DeadLetterHandler(logger))
		app.workerPool.Start()

		app.dispatcher = task.NewMemoryDispatcher(app.taskQueue, persister, logger)

	case config.TransportRedis:
		client, err := task.OpenRedis(ctx, cfg.Queue.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redisClient = client
		app.dispatcher = task.NewRedisDispatcher(client, cfg.Queue.Name, logger)
		logger.Info("items will be persisted by cmd/worker", "queue", cfg.Queue.Name)

	default:
		return nil, fmt.Errorf("unsupported queue transport %q", cfg.Queue.Transport)
	}

	var err error
	app.intakeService, err = service.NewIntakeService(app.dispatcher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create intake service: %w", err)
	}

	logger.Info("application initialized", "queue_transport", cfg.Queue.Transport)
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains the in-memory queue and releases connections. It runs
// after the HTTP server has stopped accepting requests.
func (app *application) cleanup(ctx context.Context) error {
	var errs []error

	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		if err := app.workerPool.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("worker pool did not drain: %w", err))
		}
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
