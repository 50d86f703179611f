package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	BackendURL      string
	BackendTimeout  time.Duration
	LoginPath       string
	AdminToken      string
	AdminRole       string
	AllowedRoles    []string
	CORSOrigins     []string
	SessionBackend  string
	RedisAddr       string
	DatabaseURL     string
	QueueBackend    string
	CameraDir       string
	FramePoll       time.Duration
	FrameMaxWidth   int
	ScanDebounce    time.Duration
	ScanSubmitDedup bool
	PaymentInterval time.Duration
	PaymentAttempts int
	Timezone        string
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with sensible defaults.
// A .env file in the working directory is read first when present; real environment wins.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:3300"),
		BackendTimeout:  durationEnv("BACKEND_TIMEOUT", 15*time.Second),
		LoginPath:       getEnv("LOGIN_PATH", "/admin/login"),
		AdminToken:      getEnv("ADMIN_TOKEN", ""),
		AdminRole:       getEnv("ADMIN_ROLE", ""),
		AllowedRoles:    listEnv("ALLOWED_ROLES", []string{"admin"}),
		CORSOrigins:     listEnv("CORS_ORIGINS", []string{"*"}),
		SessionBackend:  getEnv("SESSION_BACKEND", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		CameraDir:       getEnv("CAMERA_DIR", ""),
		FramePoll:       durationEnv("FRAME_POLL", 100*time.Millisecond),
		FrameMaxWidth:   intEnv("FRAME_MAX_WIDTH", 1024),
		ScanDebounce:    durationEnv("SCAN_DEBOUNCE", 1500*time.Millisecond),
		ScanSubmitDedup: boolEnv("SCAN_SUBMIT_DEDUP", false),
		PaymentInterval: durationEnv("PAYMENT_POLL_INTERVAL", 3*time.Second),
		PaymentAttempts: intEnv("PAYMENT_MAX_ATTEMPTS", 12),
		Timezone:        getEnv("TIMEZONE", "Local"),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 600),
	}
}

// Location resolves Timezone, falling back to time.Local.
func (a App) Location() *time.Location {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Printf("invalid TIMEZONE %q: %v, using local time", a.Timezone, err)
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
