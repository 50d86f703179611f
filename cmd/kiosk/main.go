package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/config"
	"eventdesk/internal/journal"
	"eventdesk/internal/kiosk"
	"eventdesk/internal/metrics"
	"eventdesk/internal/notify"
	"eventdesk/internal/scanner"
	"eventdesk/internal/session"
	"eventdesk/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&log.JSONFormatter{})
	}

	if err := run(cfg); err != nil {
		log.Fatalf("kiosk failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.SessionBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.OpenRedis(cfg.RedisAddr)
		defer redisClient.Close()
	}

	var db *sql.DB
	var scans journal.Journal = journal.NewMemory(0)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("warning: scan journal db not reachable, keeping history in memory: %v", err)
		} else {
			defer db.Close()
			repo := journal.NewRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}
			scans = repo
		}
	}

	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.SessionBackend == "redis" {
		sessionStore = session.NewRedisStore(redisClient, "")
	}

	var notices notify.Queue
	if cfg.QueueBackend == "redis" {
		notices = notify.NewRedisQueue(redisClient, "")
	} else {
		mem := notify.NewInMemory(64)
		notices = mem
		go logNotices(ctx, mem)
	}

	// The navigator fires from whichever goroutine saw the 401, so the
	// controller is referenced lazily.
	var ctrl *scanner.Controller
	nav := session.NavigatorFunc(func(path string) {
		metrics.LoginRedirects.Inc()
		log.WithField("login", path).Warn("session ended, operator must sign in again")
		if ctrl != nil {
			go ctrl.Stop()
		}
	})
	sessions := session.NewManager(sessionStore, nav, cfg.LoginPath)
	if err := sessions.Restore(ctx); err != nil {
		log.Printf("warning: could not restore session: %v", err)
	}
	if cfg.AdminToken != "" && sessions.Current().Empty() {
		if err := sessions.SetSession(ctx, session.Session{Token: cfg.AdminToken, Role: cfg.AdminRole}); err != nil {
			log.Printf("warning: ADMIN_TOKEN ignored: %v", err)
		}
	}

	api := backend.New(cfg.BackendURL, cfg.BackendTimeout, sessions)

	var camera scanner.Camera
	var frames *scanner.PushCamera
	if cfg.CameraDir != "" {
		camera = scanner.DirCamera{Root: cfg.CameraDir, Poll: cfg.FramePoll}
		log.Println("reading frames from", cfg.CameraDir)
	} else {
		frames = scanner.NewPushCamera()
		camera = frames
		log.Println("accepting frames on POST /v1/frames")
	}

	ctrl = scanner.NewController(camera, scanner.QRDecoder{MaxWidth: cfg.FrameMaxWidth}, api, scanner.Options{
		Debounce:    cfg.ScanDebounce,
		SubmitDedup: cfg.ScanSubmitDedup,
		Notifier:    notices,
		Recorder:    scans,
		Auth:        sessions,
	})

	h := kiosk.New(kiosk.Deps{
		API:             api,
		Sessions:        sessions,
		Scanner:         ctrl,
		Frames:          frames,
		Journal:         scans,
		Notices:         notices,
		Health:          store.Health{DB: db, Redis: redisClient},
		Location:        cfg.Location(),
		AllowedRoles:    cfg.AllowedRoles,
		PaymentInterval: cfg.PaymentInterval,
		PaymentAttempts: cfg.PaymentAttempts,
		BaseContext:     ctx,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     kiosk.Router(h, cfg),
		ReadTimeout: 15 * time.Second,
		// Payment status requests hold the connection for the whole poll.
		WriteTimeout: cfg.PaymentInterval*time.Duration(cfg.PaymentAttempts) + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting kiosk on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down kiosk...")

	ctrl.Stop()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Kiosk exited")
	return nil
}

// logNotices drains the in-process notice queue when no notifier process runs.
func logNotices(ctx context.Context, q notify.Queue) {
	ch, err := q.Consume(ctx)
	if err != nil {
		log.WithError(err).Error("notice consumer failed")
		return
	}
	for n := range ch {
		log.WithFields(log.Fields{"kind": n.Kind, "level": n.Level, "detail": n.Detail}).Info(n.Title)
	}
}
