package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
)

// ErrLoginRequired is returned when an operation needs a session and none is held.
var ErrLoginRequired = errors.New("login required")

// Session is the admin's bearer token and the role it was issued for.
// The two are always written together.
type Session struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Empty reports whether no token is held.
func (s Session) Empty() bool { return s.Token == "" }

// Expired reports whether the token carried an exp claim that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Claims reads role and expiry from a JWT without verifying it. The backend
// owns the signing key; these values only drive local UI decisions.
// Tokens that are not JWTs yield zero values.
func Claims(token string) (role string, expiresAt time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}
	if r, ok := claims["role"].(string); ok {
		role = r
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return role, expiresAt
}

// Navigator moves the operator to the login route.
type Navigator interface {
	RedirectToLogin(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) RedirectToLogin(path string) { f(path) }

// Manager is the single writer of the session. It satisfies
// backend.TokenSource so every backend call picks up the current token.
type Manager struct {
	mu        sync.RWMutex
	cur       Session
	store     Store
	nav       Navigator
	loginPath string
	now       func() time.Time
}

// NewManager builds a manager over store. nav may be nil.
func NewManager(store Store, nav Navigator, loginPath string) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Manager{store: store, nav: nav, loginPath: loginPath, now: time.Now}
}

// LoginPath is where the operator is sent after a session ends.
func (m *Manager) LoginPath() string { return m.loginPath }

// Restore loads a previously saved session from the store.
func (m *Manager) Restore(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cur = s
	m.mu.Unlock()
	return nil
}

// SetSession stores token and role. Missing role or expiry are filled from
// the token's claims when it is a JWT.
func (m *Manager) SetSession(ctx context.Context, s Session) error {
	if s.Token == "" {
		return ErrLoginRequired
	}
	role, exp := Claims(s.Token)
	if s.Role == "" {
		s.Role = role
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = exp
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.cur = s
	return nil
}

// ClearSession drops token and role together.
func (m *Manager) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = Session{}
	return m.store.Clear(ctx)
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Token implements backend.TokenSource.
func (m *Manager) Token() string {
	return m.Current().Token
}

// Active returns the session when it is present and not locally expired.
// A locally expired token is expired the same way a backend 401 would.
func (m *Manager) Active(ctx context.Context) (Session, error) {
	s := m.Current()
	if s.Empty() {
		return Session{}, ErrLoginRequired
	}
	if s.Expired(m.now()) {
		m.ExpireToken(ctx, s.Token)
		return Session{}, ErrLoginRequired
	}
	return s, nil
}

// ExpireToken ends the session if it still holds token and redirects to the
// login route. Only the first caller for a given token does anything, so any
// number of concurrent 401s produce one redirect. It reports whether this
// call ended the session.
func (m *Manager) ExpireToken(ctx context.Context, token string) bool {
	m.mu.Lock()
	if m.cur.Empty() || m.cur.Token != token {
		m.mu.Unlock()
		return false
	}
	m.cur = Session{}
	err := m.store.Clear(ctx)
	m.mu.Unlock()

	if err != nil {
		log.WithError(err).Warn("session store clear failed")
	}
	log.WithField("login", m.loginPath).Info("session expired, redirecting to login")
	m.nav.RedirectToLogin(m.loginPath)
	return true
}

// HandleError expires the session when err is a backend auth failure.
// It reports whether err was an auth failure, in which case the caller
// should not show it.
func (m *Manager) HandleError(ctx context.Context, err error) bool {
	token, ok := backend.RejectedToken(err)
	if !ok {
		return false
	}
	m.ExpireToken(ctx, token)
	return true
}
