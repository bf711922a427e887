package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
)

// MemoryDispatcher queues persistence tasks on an in-process TaskQueue that
// a WorkerPool drains. Jobs do not survive a process restart.
type MemoryDispatcher struct {
	queue     TaskQueueWriter
	persister ItemPersister
	logger    *slog.Logger
}

var _ Dispatcher = (*MemoryDispatcher)(nil)

// NewMemoryDispatcher creates a dispatcher that wraps each item in a
// PersistItemTask bound to persister.
func NewMemoryDispatcher(queue TaskQueueWriter, persister ItemPersister, logger *slog.Logger) *MemoryDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryDispatcher{
		queue:     queue,
		persister: persister,
		logger:    logger.With("component", "memory_dispatcher"),
	}
}

// Enqueue implements Dispatcher. It fails with ErrQueueFull or
// ErrQueueClosed rather than blocking or dropping the item.
func (d *MemoryDispatcher) Enqueue(_ context.Context, item domain.Item) error {
	t, err := NewPersistItemTask(item, d.persister, TransportMemory, d.logger)
	if err != nil {
		return fmt.Errorf("failed to create persist task: %w", err)
	}

	if err := d.queue.Enqueue(t); err != nil {
		metrics.RecordEnqueueFailure(TransportMemory)
		return err
	}
	return nil
}

// DeadLetterHandler returns a WorkerPool error handler that records every
// failed persistence task as a dead letter.
func DeadLetterHandler(logger *slog.Logger) func(Task, error) {
	return func(t Task, err error) {
		RecordDeadLetter(logger, TransportMemory, t.Payload(), err)
	}
}
