package kiosk

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/journal"
	"eventdesk/internal/notify"
	"eventdesk/internal/query"
	"eventdesk/internal/scanner"
	"eventdesk/internal/session"
	"eventdesk/internal/store"
)

// Deps is everything the kiosk handlers talk to.
type Deps struct {
	API      *backend.Client
	Sessions *session.Manager
	Scanner  *scanner.Controller
	// Frames is nil when frames come from a camera directory.
	Frames  *scanner.PushCamera
	Journal journal.Journal
	Notices notify.Queue
	Health  store.Health

	Location        *time.Location
	AllowedRoles    []string
	PaymentInterval time.Duration
	PaymentAttempts int
	// BaseContext outlives requests. The scanner and its submissions run on it.
	BaseContext context.Context
}

type Handler struct {
	api      *backend.Client
	sessions *session.Manager
	scanner  *scanner.Controller
	frames   *scanner.PushCamera
	journal  journal.Journal
	notices  notify.Queue
	health   store.Health

	loc             *time.Location
	roles           map[string]bool
	paymentInterval time.Duration
	paymentAttempts int
	base            context.Context

	lists   *listCache
	pickups *query.PagedView
}

func New(d Deps) *Handler {
	h := &Handler{
		api:             d.API,
		sessions:        d.Sessions,
		scanner:         d.Scanner,
		frames:          d.Frames,
		journal:         d.Journal,
		notices:         d.Notices,
		health:          d.Health,
		loc:             d.Location,
		roles:           map[string]bool{},
		paymentInterval: d.PaymentInterval,
		paymentAttempts: d.PaymentAttempts,
		base:            d.BaseContext,
		lists:           newListCache(),
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.base == nil {
		h.base = context.Background()
	}
	for _, r := range d.AllowedRoles {
		h.roles[r] = true
	}
	h.pickups = query.NewPagedView(h.api.PickupList)
	return h
}

// roleAllowed reports whether role may use the protected routes. An empty
// allow list admits every role.
func (h *Handler) roleAllowed(role string) bool {
	return len(h.roles) == 0 || h.roles[role]
}

// ---------- Responses ----------

// redirect answers an ended session with the login route and no error.
func (h *Handler) redirect(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"redirect": h.sessions.LoginPath()})
}

// fail turns a backend error into a response. Auth failures end the session
// and become a login redirect.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	if h.sessions.HandleError(c.Request.Context(), err) {
		h.redirect(c)
		return
	}
	code := http.StatusBadGateway
	var se *backend.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		code = se.Code
	}
	log.WithError(err).WithField("route", c.FullPath()).Warn("backend call failed")
	c.JSON(code, gin.H{"error": backend.UserMessage(err, fallback)})
}

func (h *Handler) publish(n notify.Notice) {
	if h.notices == nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.base, 2*time.Second)
	defer cancel()
	if err := h.notices.Publish(ctx, n); err != nil {
		log.WithError(err).WithField("kind", n.Kind).Debug("notice dropped")
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
