package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/cart-tracker/internal/domain"
	"github.com/phrazzld/cart-tracker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory stand-in for the list commands of *redis.Client.
// Index 0 is the head (left) of each list.
type fakeRedis struct {
	mu      sync.Mutex
	lists   map[string][]string
	sets    map[string]map[string]struct{}
	keys    map[string]time.Time // expiry; zero means no expiry
	pushErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		lists: make(map[string][]string),
		sets:  make(map[string]map[string]struct{}),
		keys:  make(map[string]time.Time),
	}
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		var s string
		switch val := v.(type) {
		case []byte:
			s = string(val)
		case string:
			s = val
		default:
			return redis.NewIntResult(0, errors.New("unsupported value type"))
		}
		f.lists[key] = append([]string{s}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) RPopLPush(ctx context.Context, source, destination string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.move(source, destination)
}

func (f *fakeRedis) BRPopLPush(ctx context.Context, source, destination string, timeout time.Duration) *redis.StringCmd {
	f.mu.Lock()
	cmd := f.move(source, destination)
	f.mu.Unlock()

	if errors.Is(cmd.Err(), redis.Nil) {
		// Emulate a short block so idle workers do not spin.
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
	}
	return cmd
}

func (f *fakeRedis) LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	target, _ := value.(string)
	list := f.lists[key]
	for i, v := range list {
		if v == target {
			f.lists[key] = append(list[:i:i], list[i+1:]...)
			return redis.NewIntResult(1, nil)
		}
	}
	return redis.NewIntResult(0, nil)
}

func (f *fakeRedis) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sets[key] == nil {
		f.sets[key] = make(map[string]struct{})
	}
	var added int64
	for _, m := range members {
		s, _ := m.(string)
		if _, ok := f.sets[key][s]; !ok {
			f.sets[key][s] = struct{}{}
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	for _, m := range members {
		s, _ := m.(string)
		if _, ok := f.sets[key][s]; ok {
			delete(f.sets[key], s)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	members := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		members = append(members, m)
	}
	return redis.NewStringSliceResult(members, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expiry time.Time
	if expiration > 0 {
		expiry = time.Now().Add(expiration)
	}
	f.keys[key] = expiry
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, k := range keys {
		expiry, ok := f.keys[k]
		if ok && (expiry.IsZero() || time.Now().Before(expiry)) {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
		if _, ok := f.lists[k]; ok {
			delete(f.lists, k)
			n++
		}
		if _, ok := f.sets[k]; ok {
			delete(f.sets, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) move(source, destination string) *redis.StringCmd {
	list := f.lists[source]
	if len(list) == 0 {
		return redis.NewStringResult("", redis.Nil)
	}
	v := list[len(list)-1]
	f.lists[source] = list[:len(list)-1]
	f.lists[destination] = append([]string{v}, f.lists[destination]...)
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) list(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

func (f *fakeRedis) members(key string) []string {
	return f.SMembers(context.Background(), key).Val()
}

func (f *fakeRedis) alive(key string) bool {
	return f.Exists(context.Background(), key).Val() == 1
}

var _ RedisQueueClient = (*fakeRedis)(nil)

func testConsumerConfig() RedisConsumerConfig {
	return RedisConsumerConfig{
		Queue:             "tracker:items",
		DeadLetter:        "tracker:items:dead",
		ConsumerID:        "worker-a",
		WorkerCount:       2,
		PollTimeout:       10 * time.Millisecond,
		RetryDelay:        10 * time.Millisecond,
		HeartbeatInterval: 10 * time.Millisecond,
		HeartbeatTTL:      time.Second,
	}
}

func TestRedisDispatcher_Enqueue(t *testing.T) {
	client := newFakeRedis()
	dispatcher := NewRedisDispatcher(client, "tracker:items", setupTestLogger())

	require.NoError(t, dispatcher.Enqueue(context.Background(), sampleItem()))

	queued := client.list("tracker:items")
	require.Len(t, queued, 1)

	var decoded domain.Item
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &decoded))
	assert.Equal(t, sampleItem(), decoded)
}

func TestRedisDispatcher_Unavailable(t *testing.T) {
	client := newFakeRedis()
	client.pushErr = errors.New("dial tcp 127.0.0.1:6379: connection refused")
	dispatcher := NewRedisDispatcher(client, "tracker:items", setupTestLogger())

	err := dispatcher.Enqueue(context.Background(), sampleItem())
	assert.ErrorIs(t, err, ErrQueueUnavailable)
	assert.Empty(t, client.list("tracker:items"))
}

func runConsumer(t *testing.T, consumer *RedisConsumer) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop")
		}
	}
}

func TestRedisConsumer_PersistsAndAcknowledges(t *testing.T) {
	client := newFakeRedis()
	persister := newFakePersister(nil)
	cfg := testConsumerConfig()

	dispatcher := NewRedisDispatcher(client, cfg.Queue, setupTestLogger())
	require.NoError(t, dispatcher.Enqueue(context.Background(), sampleItem()))
	require.NoError(t, dispatcher.Enqueue(context.Background(), sampleItem()))

	stop := runConsumer(t, NewRedisConsumer(client, persister, cfg, setupTestLogger()))
	persister.wait(t, 2)
	stop()

	assert.Len(t, persister.persisted(), 2)
	assert.Empty(t, client.list(cfg.Queue))
	assert.Empty(t, client.list(cfg.ProcessingList()))
	assert.Empty(t, client.list(cfg.DeadLetter))
}

func TestRedisConsumer_DeadLettersFailedJob(t *testing.T) {
	client := newFakeRedis()
	persister := newFakePersister(store.ErrDuplicateItem)
	cfg := testConsumerConfig()
	cfg.WorkerCount = 1

	require.NoError(t, NewRedisDispatcher(client, cfg.Queue, setupTestLogger()).
		Enqueue(context.Background(), sampleItem()))

	stop := runConsumer(t, NewRedisConsumer(client, persister, cfg, setupTestLogger()))
	persister.wait(t, 1)

	require.Eventually(t, func() bool {
		return len(client.list(cfg.DeadLetter)) == 1
	}, time.Second, 5*time.Millisecond)
	stop()

	var record DeadLetterRecord
	require.NoError(t, json.Unmarshal([]byte(client.list(cfg.DeadLetter)[0]), &record))
	assert.Equal(t, ReasonDuplicate, record.Reason)
	assert.Contains(t, record.Payload, `"external_id":"sku-1"`)
	assert.False(t, record.FailedAt.IsZero())

	// No retry: the job is acknowledged and gone from both lists
	assert.Empty(t, client.list(cfg.Queue))
	assert.Eventually(t, func() bool {
		return len(client.list(cfg.ProcessingList())) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRedisConsumer_UndecodablePayload(t *testing.T) {
	client := newFakeRedis()
	persister := newFakePersister(nil)
	cfg := testConsumerConfig()

	client.LPush(context.Background(), cfg.Queue, "not json")

	stop := runConsumer(t, NewRedisConsumer(client, persister, cfg, setupTestLogger()))
	require.Eventually(t, func() bool {
		return len(client.list(cfg.DeadLetter)) == 1
	}, time.Second, 5*time.Millisecond)
	stop()

	var record DeadLetterRecord
	require.NoError(t, json.Unmarshal([]byte(client.list(cfg.DeadLetter)[0]), &record))
	assert.Equal(t, ReasonDecode, record.Reason)
	assert.Equal(t, "not json", record.Payload)
	assert.Empty(t, persister.persisted())
}

// parkJob leaves a job on consumer id's processing list, as if it had been
// popped and not yet acknowledged.
func parkJob(t *testing.T, client *fakeRedis, cfg RedisConsumerConfig, id string) string {
	t.Helper()
	payload, err := json.Marshal(sampleItem())
	require.NoError(t, err)
	client.LPush(context.Background(), cfg.processingListFor(id), payload)
	client.SAdd(context.Background(), cfg.ConsumerSet(), id)
	return string(payload)
}

func TestRedisConsumer_RequeuesJobsOfDeadConsumer(t *testing.T) {
	client := newFakeRedis()
	persister := newFakePersister(nil)
	cfg := testConsumerConfig()

	// worker-dead crashed: registered, job parked, no heartbeat
	parkJob(t, client, cfg, "worker-dead")

	stop := runConsumer(t, NewRedisConsumer(client, persister, cfg, setupTestLogger()))
	persister.wait(t, 1)
	stop()

	assert.Equal(t, []domain.Item{sampleItem()}, persister.persisted())
	assert.Empty(t, client.list(cfg.processingListFor("worker-dead")))
	assert.NotContains(t, client.members(cfg.ConsumerSet()), "worker-dead")
}

func TestRedisConsumer_LeavesJobsOfLiveConsumer(t *testing.T) {
	client := newFakeRedis()
	cfg := testConsumerConfig()

	// worker-b is mid-job and still heartbeating
	payload := parkJob(t, client, cfg, "worker-b")
	client.Set(context.Background(), cfg.HeartbeatKey("worker-b"), "now", time.Minute)

	consumer := NewRedisConsumer(client, newFakePersister(nil), cfg, setupTestLogger())
	require.NoError(t, consumer.beat(context.Background()))
	require.NoError(t, consumer.recoverOrphans(context.Background()))

	assert.Equal(t, []string{payload}, client.list(cfg.processingListFor("worker-b")))
	assert.Empty(t, client.list(cfg.Queue))
	assert.ElementsMatch(t, []string{"worker-a", "worker-b"}, client.members(cfg.ConsumerSet()))
}

func TestRedisConsumer_TwoConsumersShareQueue(t *testing.T) {
	client := newFakeRedis()
	persister := newFakePersister(nil)

	cfgA := testConsumerConfig()
	cfgB := testConsumerConfig()
	cfgB.ConsumerID = "worker-b"

	stopA := runConsumer(t, NewRedisConsumer(client, persister, cfgA, setupTestLogger()))
	stopB := runConsumer(t, NewRedisConsumer(client, persister, cfgB, setupTestLogger()))

	dispatcher := NewRedisDispatcher(client, cfgA.Queue, setupTestLogger())
	const jobs = 10
	for i := 0; i < jobs; i++ {
		require.NoError(t, dispatcher.Enqueue(context.Background(), sampleItem()))
	}
	persister.wait(t, jobs)

	// Let a few heartbeat rounds run with both consumers alive.
	time.Sleep(5 * cfgA.HeartbeatInterval)
	stopA()
	stopB()

	assert.Len(t, persister.persisted(), jobs)
	assert.Empty(t, client.list(cfgA.DeadLetter))
	assert.Empty(t, client.list(cfgA.ProcessingList()))
	assert.Empty(t, client.list(cfgB.ProcessingList()))
}

func TestRedisConsumer_DropsHeartbeatOnStop(t *testing.T) {
	client := newFakeRedis()
	cfg := testConsumerConfig()

	stop := runConsumer(t, NewRedisConsumer(client, newFakePersister(nil), cfg, setupTestLogger()))
	require.Eventually(t, func() bool {
		return client.alive(cfg.HeartbeatKey(cfg.ConsumerID))
	}, time.Second, 5*time.Millisecond)
	stop()

	assert.False(t, client.alive(cfg.HeartbeatKey(cfg.ConsumerID)))
}

func TestRedisConsumerConfig_Defaults(t *testing.T) {
	consumer := NewRedisConsumer(newFakeRedis(), newFakePersister(nil), RedisConsumerConfig{Queue: "q"}, nil)

	assert.Equal(t, 1, consumer.config.WorkerCount)
	assert.Equal(t, 5*time.Second, consumer.config.PollTimeout)
	assert.Equal(t, time.Second, consumer.config.RetryDelay)
	assert.Equal(t, 5*time.Second, consumer.config.HeartbeatInterval)
	assert.Equal(t, 15*time.Second, consumer.config.HeartbeatTTL)
	assert.NotEmpty(t, consumer.config.ConsumerID)
	assert.Equal(t, "q:processing:"+consumer.config.ConsumerID, consumer.config.ProcessingList())
	assert.Equal(t, "q:consumers", consumer.config.ConsumerSet())

	other := NewRedisConsumer(newFakeRedis(), newFakePersister(nil), RedisConsumerConfig{Queue: "q"}, nil)
	assert.NotEqual(t, consumer.config.ProcessingList(), other.config.ProcessingList())
}
