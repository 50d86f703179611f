package kiosk

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/session"
)

// ---------- Session ----------

type loginRequest struct {
	Token string `json:"token" binding:"required"`
}

type sessionResponse struct {
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Allowed   bool       `json:"allowed"`
}

func (h *Handler) sessionBody(s session.Session) sessionResponse {
	out := sessionResponse{Role: s.Role, Allowed: h.roleAllowed(s.Role)}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		out.ExpiresAt = &exp
	}
	return out
}

// Login validates a token with the backend and makes it the kiosk session.
// The role comes from the backend's answer.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	role, err := h.api.WithToken(req.Token).ValidateToken(ctx)
	if err != nil {
		if backend.IsAuth(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		h.fail(c, err, "Token validation failed")
		return
	}
	if err := h.sessions.SetSession(ctx, session.Session{Token: req.Token, Role: role}); err != nil {
		log.WithError(err).Error("session save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store session"})
		return
	}
	log.WithField("role", role).Info("operator signed in")
	c.JSON(http.StatusOK, h.sessionBody(h.sessions.Current()))
}

// ValidateSession re-checks the stored token with the backend. Any failure
// ends the session.
func (h *Handler) ValidateSession(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.sessions.Active(ctx)
	if err != nil {
		h.redirect(c)
		return
	}
	role, err := h.api.ValidateToken(ctx)
	if err != nil {
		log.WithError(err).Info("session validation failed")
		h.sessions.ExpireToken(ctx, s.Token)
		h.redirect(c)
		return
	}
	if role != s.Role {
		if err := h.sessions.SetSession(ctx, session.Session{Token: s.Token, Role: role, ExpiresAt: s.ExpiresAt}); err != nil {
			log.WithError(err).Warn("session role refresh failed")
		}
		s.Role = role
	}
	body := h.sessionBody(s)
	if !body.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied", "role": s.Role})
		return
	}
	c.JSON(http.StatusOK, body)
}

// Logout stops the scanner and drops the session.
func (h *Handler) Logout(c *gin.Context) {
	h.scanner.Stop()
	if err := h.sessions.ClearSession(c.Request.Context()); err != nil {
		log.WithError(err).Warn("session clear failed")
	}
	c.Status(http.StatusNoContent)
}
