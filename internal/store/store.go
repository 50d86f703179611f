package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// OpenPostgres opens the scan journal database through the pgx driver and
// checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// OpenRedis builds a client with short timeouts. It does not dial until first use.
func OpenRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  6 * time.Second,
		WriteTimeout: time.Second,
	})
}

// Health reports the reachability of whichever stores are configured.
type Health struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Check returns a component -> healthy map. Unconfigured stores are omitted.
func (h Health) Check(ctx context.Context) map[string]bool {
	out := map[string]bool{}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if h.DB != nil {
		out["db"] = h.DB.PingContext(ctx) == nil
	}
	if h.Redis != nil {
		out["redis"] = h.Redis.Ping(ctx).Err() == nil
	}
	return out
}

// Healthy reports whether every configured store answered.
func (h Health) Healthy(ctx context.Context) (bool, map[string]bool) {
	status := h.Check(ctx)
	for _, ok := range status {
		if !ok {
			return false, status
		}
	}
	return true, status
}
