// Package task moves accepted items from the request path to the deferred
// persistence worker. A Dispatcher performs the one-way hand-off; the
// in-memory transport is drained by a WorkerPool in the same process, the
// Redis transport by a RedisConsumer running in cmd/worker.
package task
