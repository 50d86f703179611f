package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notice is an operator-facing toast.
type Notice struct {
	Kind   string    `json:"kind"`
	Title  string    `json:"title"`
	Detail string    `json:"detail,omitempty"`
	Level  string    `json:"level"`
	At     time.Time `json:"at"`
}

// Kinds and titles used across the kiosk.
const (
	KindScanned    = "scanned"
	KindLoadFailed = "load-failed"

	TitleScanned    = "QR Code Scanned"
	TitleLoadFailed = "Failed to load"
)

// Queue carries notices from producers to whoever displays them.
type Queue interface {
	Publish(ctx context.Context, n Notice) error
	Consume(ctx context.Context) (<-chan Notice, error)
}

// InMemory is a bounded channel-backed queue for a single process.
type InMemory struct {
	ch chan Notice
}

// NewInMemory creates a queue holding up to size undelivered notices.
func NewInMemory(size int) *InMemory {
	if size <= 0 {
		size = 64
	}
	return &InMemory{ch: make(chan Notice, size)}
}

// Publish enqueues n, waiting for room until ctx is done.
func (q *InMemory) Publish(ctx context.Context, n Notice) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel closed when ctx ends.
func (q *InMemory) Consume(ctx context.Context) (<-chan Notice, error) {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for {
			select {
			case n := <-q.ch:
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list queue with LPUSH/BRPOP semantics, so a
// separate notifier process can show toasts.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue on key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "eventdesk:notices"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues n as JSON.
func (q *RedisQueue) Publish(ctx context.Context, n Notice) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

// Consume streams notices using BRPOP until ctx ends. Undecodable entries are skipped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Notice, error) {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					time.Sleep(time.Second)
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var n Notice
			if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
