// Package queue carries scan requests between processes through Redis and
// guards each project path with a lock so two workers never scan the same
// path at once.
package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/locallore/pkg/errors"
)

// Request asks a worker to scan one path.
type Request struct {
	Path       string    `json:"path"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RedisQueue is a reliable list queue: Lease moves an item to a processing
// list and Ack removes it from there.
type RedisQueue struct {
	client   redis.UniversalClient
	queueKey string
	procKey  string
}

// NewRedisQueue returns a queue stored under key.
func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	return &RedisQueue{client: client, queueKey: key, procKey: key + ":processing"}
}

// Enqueue appends a scan request for path.
func (q *RedisQueue) Enqueue(ctx context.Context, path string) error {
	b, err := json.Marshal(Request{Path: path, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.queueKey, b).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "enqueue %s", path)
	}
	return nil
}

// Lease waits up to timeout for a request. It returns nil when none
// arrived. The returned ack must be called once the request is handled.
func (q *RedisQueue) Lease(ctx context.Context, timeout time.Duration) (*Request, func(context.Context) error, error) {
	raw, err := q.client.BRPopLPush(ctx, q.queueKey, q.procKey, timeout).Result()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeStore, err, "lease scan request")
	}

	ack := func(ctx context.Context) error {
		return q.client.LRem(ctx, q.procKey, 1, raw).Err()
	}
	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		// Drop poison messages so they are not leased forever.
		_ = ack(ctx)
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode scan request")
	}
	return &req, ack, nil
}

// Len returns the number of pending requests.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueKey).Result()
}

// Recover moves requests left in the processing list by a crashed worker
// back to the queue. It returns how many were moved.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	var n int
	for {
		err := q.client.RPopLPush(ctx, q.procKey, q.queueKey).Err()
		if stderrors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, errors.Wrap(errors.ErrCodeStore, err, "recover scan requests")
		}
		n++
	}
}
