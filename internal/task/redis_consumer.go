package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
	"github.com/phrazzld/cart-tracker/internal/redact"
	"golang.org/x/sync/errgroup"
)

// RedisConsumerConfig configures a RedisConsumer.
type RedisConsumerConfig struct {
	// Queue is the list the dispatcher pushes to.
	Queue string

	// DeadLetter receives failed jobs wrapped in a DeadLetterRecord.
	DeadLetter string

	// ConsumerID names this consumer's processing list and heartbeat key.
	// Defaults to a random UUID, so every process gets its own.
	ConsumerID string

	// WorkerCount is the number of concurrent poll loops. Defaults to 1.
	WorkerCount int

	// PollTimeout bounds each blocking pop, and therefore how long shutdown
	// may wait for an idle worker. Defaults to 5s.
	PollTimeout time.Duration

	// RetryDelay is the pause after a Redis error. Defaults to 1s.
	RetryDelay time.Duration

	// HeartbeatInterval is how often the consumer refreshes its heartbeat
	// and looks for jobs orphaned by dead consumers. Defaults to 5s.
	HeartbeatInterval time.Duration

	// HeartbeatTTL is how long a consumer counts as alive after its last
	// heartbeat. Defaults to three heartbeat intervals.
	HeartbeatTTL time.Duration
}

// ProcessingList is the list holding jobs this consumer popped but has not
// yet acknowledged.
func (c RedisConsumerConfig) ProcessingList() string {
	return c.processingListFor(c.ConsumerID)
}

// ConsumerSet is the set of consumer IDs that may own a processing list.
func (c RedisConsumerConfig) ConsumerSet() string {
	return c.Queue + ":consumers"
}

// HeartbeatKey is the expiring key that marks consumer id as alive.
func (c RedisConsumerConfig) HeartbeatKey(id string) string {
	return c.Queue + ":consumer:" + id
}

func (c RedisConsumerConfig) processingListFor(id string) string {
	return c.Queue + ":processing:" + id
}

// DeadLetterRecord is the JSON document pushed to the dead-letter list.
type DeadLetterRecord struct {
	Payload  string    `json:"payload"`
	Reason   string    `json:"reason"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// RedisConsumer drains the Redis job list and stores each item through an
// ItemPersister. Popped jobs are parked on the consumer's own processing
// list until handled. Consumers keep an expiring heartbeat key; when one
// stops heartbeating, any live consumer moves its parked jobs back onto
// the queue.
type RedisConsumer struct {
	client    RedisQueueClient
	persister ItemPersister
	config    RedisConsumerConfig
	logger    *slog.Logger
}

// NewRedisConsumer creates a consumer for config.Queue.
func NewRedisConsumer(
	client RedisQueueClient,
	persister ItemPersister,
	config RedisConsumerConfig,
	logger *slog.Logger,
) *RedisConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ConsumerID == "" {
		config.ConsumerID = uuid.NewString()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 5 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 5 * time.Second
	}
	if config.HeartbeatTTL <= config.HeartbeatInterval {
		config.HeartbeatTTL = 3 * config.HeartbeatInterval
	}

	return &RedisConsumer{
		client:    client,
		persister: persister,
		config:    config,
		logger: logger.With(
			"component", "redis_consumer",
			"queue", config.Queue,
			"consumer_id", config.ConsumerID),
	}
}

// Run registers the consumer, requeues jobs orphaned by dead consumers,
// then polls until ctx is cancelled. Jobs already popped are finished
// before Run returns.
func (c *RedisConsumer) Run(ctx context.Context) error {
	if err := c.beat(ctx); err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	defer c.deregister()

	if err := c.recoverOrphans(ctx); err != nil {
		return err
	}

	c.logger.Info("starting redis consumer", "worker_count", c.config.WorkerCount)

	// Heartbeats stop only after every worker has finished its current job.
	workersDone := make(chan struct{})
	var hb errgroup.Group
	hb.Go(func() error {
		c.heartbeat(workersDone)
		return nil
	})

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.config.WorkerCount; i++ {
		workerID := i
		g.Go(func() error {
			c.worker(gctx, workerID)
			return nil
		})
	}
	err := g.Wait()
	close(workersDone)
	_ = hb.Wait()

	c.logger.Info("redis consumer stopped")
	return err
}

// beat marks the consumer alive. The heartbeat key is written before the
// set entry so no other consumer sees a registered ID without a heartbeat.
func (c *RedisConsumer) beat(ctx context.Context) error {
	key := c.config.HeartbeatKey(c.config.ConsumerID)
	if err := c.client.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), c.config.HeartbeatTTL).Err(); err != nil {
		return err
	}
	return c.client.SAdd(ctx, c.config.ConsumerSet(), c.config.ConsumerID).Err()
}

func (c *RedisConsumer) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx := context.Background()
			if err := c.beat(ctx); err != nil {
				c.logger.Warn("failed to refresh heartbeat", "error", redact.Error(err))
				continue
			}
			if err := c.recoverOrphans(ctx); err != nil {
				c.logger.Warn("failed to recover orphaned jobs", "error", redact.Error(err))
			}
		}
	}
}

// deregister drops the heartbeat. The set entry is left for the next
// recovery pass, which requeues anything still parked (an ack that failed)
// and then removes it.
func (c *RedisConsumer) deregister() {
	key := c.config.HeartbeatKey(c.config.ConsumerID)
	if err := c.client.Del(context.Background(), key).Err(); err != nil {
		c.logger.Warn("failed to remove heartbeat", "error", redact.Error(err))
	}
}

// recoverOrphans moves the parked jobs of every registered consumer whose
// heartbeat has expired back onto the queue. Live consumers, including
// this one, are never touched.
func (c *RedisConsumer) recoverOrphans(ctx context.Context) error {
	ids, err := c.client.SMembers(ctx, c.config.ConsumerSet()).Result()
	if err != nil {
		return fmt.Errorf("failed to list consumers: %w", err)
	}

	for _, id := range ids {
		if id == c.config.ConsumerID {
			continue
		}
		alive, err := c.client.Exists(ctx, c.config.HeartbeatKey(id)).Result()
		if err != nil {
			return fmt.Errorf("failed to check consumer %s: %w", id, err)
		}
		if alive > 0 {
			continue
		}

		if err := c.requeueFrom(ctx, id); err != nil {
			return err
		}
		if err := c.client.SRem(ctx, c.config.ConsumerSet(), id).Err(); err != nil {
			return fmt.Errorf("failed to unregister consumer %s: %w", id, err)
		}
	}
	return nil
}

func (c *RedisConsumer) requeueFrom(ctx context.Context, id string) error {
	processing := c.config.processingListFor(id)
	requeued := 0
	for {
		err := c.client.RPopLPush(ctx, processing, c.config.Queue).Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to requeue jobs of consumer %s: %w", id, err)
		}
		requeued++
	}

	if requeued > 0 {
		c.logger.Warn("requeued unacknowledged jobs", "dead_consumer_id", id, "count", requeued)
	}
	return nil
}

func (c *RedisConsumer) worker(ctx context.Context, id int) {
	logger := c.logger.With("worker_id", id)
	logger.Debug("starting worker")

	for ctx.Err() == nil {
		payload, err := c.client.BRPopLPush(ctx, c.config.Queue, c.config.ProcessingList(), c.config.PollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("failed to poll job queue", "error", redact.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(c.config.RetryDelay):
			}
			continue
		}

		c.handle(payload, logger)
	}

	logger.Debug("stopping worker")
}

// handle runs one job to completion under a background context so that
// shutdown never interrupts a transaction, then acknowledges it.
func (c *RedisConsumer) handle(payload string, logger *slog.Logger) {
	ctx := context.Background()

	if err := c.process(ctx, payload); err != nil {
		c.deadLetter(ctx, payload, err, logger)
	}

	if err := c.client.LRem(ctx, c.config.ProcessingList(), 1, payload).Err(); err != nil {
		logger.Error("failed to acknowledge job", "error", redact.Error(err))
	}
}

func (c *RedisConsumer) process(ctx context.Context, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()

	var item domain.Item
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return fmt.Errorf("%w: %w", ErrUndecodableJob, err)
	}

	start := time.Now()
	err = c.persister.Persist(ctx, &item)
	metrics.RecordJob(TransportRedis, time.Since(start), err)
	return err
}

func (c *RedisConsumer) deadLetter(ctx context.Context, payload string, cause error, logger *slog.Logger) {
	RecordDeadLetter(logger, TransportRedis, []byte(payload), cause)

	if c.config.DeadLetter == "" {
		return
	}

	record, err := json.Marshal(DeadLetterRecord{
		Payload:  payload,
		Reason:   DeadLetterReason(cause),
		Error:    redact.Error(cause),
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("failed to encode dead letter", "error", err)
		return
	}
	if err := c.client.LPush(ctx, c.config.DeadLetter, record).Err(); err != nil {
		logger.Error("failed to push dead letter",
			"dead_letter_list", c.config.DeadLetter,
			"error", redact.Error(err))
	}
}
