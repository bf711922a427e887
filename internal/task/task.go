package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/cart-tracker/internal/domain"
)

// Task type constants
const (
	// TaskTypePersistItem writes one tracked item (and possibly its new cart).
	TaskTypePersistItem = "persist_item"
)

// Transport names, used as log attributes and metric labels.
const (
	TransportMemory = "memory"
	TransportRedis  = "redis"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskQueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue
// allowing services to enqueue tasks for processing
type TaskQueueWriter interface {
	// Enqueue adds a task to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission
	Close()
}

// ItemPersister is the worker-side entry point that stores one item.
// Implementations must be safe for concurrent use.
type ItemPersister interface {
	Persist(ctx context.Context, item *domain.Item) error
}

// Dispatcher hands a finalized item to the deferred persistence worker.
//
// Enqueue never touches storage and never blocks on the worker. There is no
// ordering and no completion signal. An error means the job was not queued.
//
// Delivery guarantees depend on the transport. RedisDispatcher is
// at-least-once. MemoryDispatcher is at-most-once: queued jobs are drained
// on graceful shutdown but lost if the process dies.
type Dispatcher interface {
	Enqueue(ctx context.Context, item domain.Item) error
}
