package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the session across restarts.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process.
type MemoryStore struct {
	mu sync.Mutex
	s  Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = Session{}
	return nil
}

// RedisStore keeps the session in a single Redis hash so token and role are
// written and removed in one transaction.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a store under key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "eventdesk:session"
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	s := Session{Token: fields["token"], Role: fields["role"]}
	if v := fields["expiresAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.ExpiresAt = t
		}
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	exp := ""
	if !s.ExpiresAt.IsZero() {
		exp = s.ExpiresAt.UTC().Format(time.RFC3339)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, "token", s.Token, "role", s.Role, "expiresAt", exp)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
