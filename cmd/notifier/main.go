package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"eventdesk/internal/config"
	"eventdesk/internal/notify"
	"eventdesk/internal/store"
)

// Notifier shows the kiosk's toasts from the shared Redis queue.
func main() {
	cfg := config.Load()
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		log.Fatalf("notifier needs QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
	}
	redisClient := store.OpenRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: redis not reachable yet: %v", err)
	}

	notices, err := notify.NewRedisQueue(redisClient, "").Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("notifier started, waiting for notices...")
	for n := range notices {
		entry := log.WithFields(log.Fields{"kind": n.Kind, "detail": n.Detail, "at": n.At})
		switch n.Level {
		case "error":
			entry.Error(n.Title)
		case "warning":
			entry.Warn(n.Title)
		default:
			entry.Info(n.Title)
		}
	}

	log.Println("notifier stopped")
}
