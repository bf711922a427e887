package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
)

// RedisQueueClient is the subset of *redis.Client used by the Redis
// transport. Jobs are pushed on the left and popped from the right of a list.
// The set and key commands track which consumers are alive.
type RedisQueueClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPopLPush(ctx context.Context, source, destination string, timeout time.Duration) *redis.StringCmd
	RPopLPush(ctx context.Context, source, destination string) *redis.StringCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd

	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisQueueClient = (*redis.Client)(nil)

// OpenRedis parses a redis:// URL and verifies the server is reachable.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	return client, nil
}

// RedisDispatcher pushes JSON-encoded items onto a Redis list consumed by
// a RedisConsumer, usually in a separate worker process.
type RedisDispatcher struct {
	client RedisQueueClient
	queue  string
	logger *slog.Logger
}

var _ Dispatcher = (*RedisDispatcher)(nil)

// NewRedisDispatcher creates a dispatcher publishing to the named list.
func NewRedisDispatcher(client RedisQueueClient, queue string, logger *slog.Logger) *RedisDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisDispatcher{
		client: client,
		queue:  queue,
		logger: logger.With("component", "redis_dispatcher", "queue", queue),
	}
}

// Enqueue implements Dispatcher. Any Redis failure is reported as
// ErrQueueUnavailable; the item is then not queued.
func (d *RedisDispatcher) Enqueue(ctx context.Context, item domain.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}

	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		metrics.RecordEnqueueFailure(TransportRedis)
		return fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	d.logger.Debug("item enqueued",
		"cart_id", item.CartID,
		"external_id", item.ExternalID)
	return nil
}
