// Package redisq provides the Redis-backed intake queue and idempotency
// lock store shared between the ingestion gateway and the ticket worker.
// They are the only cross-process shared resources in the engine.
package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	terrors "github.com/smartsupport/triage-engine/pkg/errors"
	"github.com/smartsupport/triage-engine/pkg/triage"
)

// DefaultQueueKey is the Redis list holding raw ticket payloads.
const DefaultQueueKey = "tickets_queue"

// Queue is a Redis list used as an at-least-once intake queue. Producers
// LPUSH raw JSON records; the worker pops from the tail with a blocking
// timeout. Duplicate deliveries are possible and are handled downstream by
// the idempotency lock.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue creates a queue over the given client and list key.
func NewQueue(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Queue{client: client, key: key}
}

// Push serializes the raw ticket and appends it to the queue.
func (q *Queue) Push(ctx context.Context, raw triage.RawTicket) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal raw ticket: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return classifyErr(err, "push ticket")
	}
	return nil
}

// Pop blocks for up to timeout waiting for a raw payload. It returns
// (nil, nil) when the timeout elapses with an empty queue. Payloads are
// returned unparsed so that malformed records are handled per-ticket by
// the caller rather than poisoning the intake loop.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyErr(err, "pop ticket")
	}
	// BRPOP returns [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("pop ticket: unexpected reply length %d", len(result))
	}
	return []byte(result[1]), nil
}

// Depth returns the number of queued payloads.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, classifyErr(err, "queue depth")
	}
	return depth, nil
}

// Ping verifies connectivity to Redis.
func (q *Queue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return classifyErr(err, "ping")
	}
	return nil
}

// classifyErr wraps network-class failures with ErrConnectivity so the
// intake loop can pick its backoff path with errors.Is.
func classifyErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%s: %w: %w", op, terrors.ErrConnectivity, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
