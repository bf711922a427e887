package task

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
)

// Common errors
var (
	ErrNilPersister = errors.New("item persister cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// PersistItemTask implements the Task interface for writing one tracked item.
// It owns a copy of the item, so later changes by the caller are not observed.
type PersistItemTask struct {
	id        uuid.UUID
	item      domain.Item
	persister ItemPersister
	transport string
	logger    *slog.Logger
}

// NewPersistItemTask creates a task that stores item through persister.
func NewPersistItemTask(
	item domain.Item,
	persister ItemPersister,
	transport string,
	logger *slog.Logger,
) (*PersistItemTask, error) {
	if persister == nil {
		return nil, ErrNilPersister
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	id := uuid.New()
	return &PersistItemTask{
		id:        id,
		item:      item,
		persister: persister,
		transport: transport,
		logger: logger.With(
			"task_id", id,
			"task_type", TaskTypePersistItem,
			"cart_id", item.CartID,
			"external_id", item.ExternalID),
	}, nil
}

// ID returns the task's unique identifier
func (t *PersistItemTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *PersistItemTask) Type() string {
	return TaskTypePersistItem
}

// Payload returns the item in its job wire form.
func (t *PersistItemTask) Payload() []byte {
	data, err := json.Marshal(t.item)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Execute stores the item. Failures are returned unchanged; the task is
// never retried.
func (t *PersistItemTask) Execute(ctx context.Context) error {
	start := time.Now()
	item := t.item
	err := t.persister.Persist(ctx, &item)
	metrics.RecordJob(t.transport, time.Since(start), err)
	if err != nil {
		return err
	}

	t.logger.Info("item persisted", "new_cart", item.NewCart)
	return nil
}
