package kiosk

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventdesk/internal/config"
	"eventdesk/internal/httpmiddleware"
)

// Router builds the kiosk HTTP surface.
func Router(h *Handler, cfg config.App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(securityHeaders())
	if cfg.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, httpmiddleware.ClientIP).Middleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")

	// Reachable without a session.
	v1.POST("/session", h.Login)
	v1.GET("/session", h.ValidateSession)
	v1.POST("/qr-codes", h.QRCodes)
	v1.GET("/payments/:id/status", h.PaymentStatus)

	admin := v1.Group("", h.requireSession())
	admin.DELETE("/session", h.Logout)

	admin.GET("/scan", h.ScanView)
	admin.POST("/scan/start", h.StartScan)
	admin.POST("/scan/stop", h.StopScan)
	admin.POST("/scan/token", h.SubmitToken)
	admin.GET("/scan/history", h.ScanHistory)
	admin.POST("/frames", h.PushFrame)

	admin.GET("/candidates", h.Candidates)
	admin.GET("/pickups", h.Pickups)

	admin.GET("/colleges", h.ListColleges)
	admin.POST("/colleges", h.CreateCollege)
	admin.PUT("/colleges/:id", h.UpdateCollege)
	admin.DELETE("/colleges/:id", h.DeleteCollege)

	admin.GET("/certificates/eligible", h.EligibleCandidates)
	admin.POST("/certificates/send", h.SendCertificates)
	admin.POST("/certificates/:id/send", h.SendCertificate)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// requireSession admits requests while a session is active and its role is
// allowed.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := h.sessions.Active(c.Request.Context())
		if err != nil {
			h.redirect(c)
			return
		}
		if !h.roleAllowed(s.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	ok, status := h.health.Healthy(c.Request.Context())
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": "ok", "stores": status, "scanner": h.scanner.Running()})
}
