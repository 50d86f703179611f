package kiosk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/metrics"
	"eventdesk/internal/notify"
	"eventdesk/internal/query"
)

const (
	viewAll     = "all"
	viewScanned = "scanned"
	viewExport  = "export"

	defaultPageSize = 50
)

// listCache keeps the last successfully loaded records of each view.
type listCache struct {
	mu   sync.Mutex
	data map[string][]query.Candidate
}

func newListCache() *listCache {
	return &listCache{data: map[string][]query.Candidate{}}
}

// load fetches view. On failure the previously loaded records are returned
// with stale set, or err when nothing was ever loaded.
func (l *listCache) load(ctx context.Context, view string, fetch func(context.Context) (query.ListPage, error)) ([]query.Candidate, bool, error) {
	page, err := fetch(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		prev, ok := l.data[view]
		if !ok {
			return nil, false, err
		}
		return prev, true, err
	}
	l.data[view] = page.List
	return page.List, false, nil
}

// ---------- Candidates ----------

type candidateParams struct {
	View    string `form:"view" binding:"omitempty,oneof=all scanned export"`
	Q       string `form:"q"`
	College string `form:"college"`
	Payment string `form:"payment"`
	From    string `form:"from"`
	To      string `form:"to"`
	Time    string `form:"time" binding:"omitempty,oneof=morning evening"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (h *Handler) fetcher(view string) (func(context.Context) (query.ListPage, error), query.DateField) {
	switch view {
	case viewScanned:
		return h.api.ScannedList, query.DateAdminAttendance
	case viewExport:
		return h.api.Candidates, query.DateRegistration
	default:
		return h.api.Candidates, query.DateAttendanceOrRegistration
	}
}

func (h *Handler) parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// Candidates serves the client-side filtered list views. The full collection
// is loaded from the backend and filtered, counted and paged here.
func (h *Handler) Candidates(c *gin.Context) {
	var p candidateParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	if p.View == "" {
		p.View = viewAll
	}
	from, err := h.parseDay(p.From)
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := h.parseDay(p.To)
	if err != nil {
		badRequest(c, err)
		return
	}

	fetch, dateField := h.fetcher(p.View)
	records, stale, err := h.lists.load(c.Request.Context(), p.View, fetch)
	if err != nil {
		if h.sessions.HandleError(c.Request.Context(), err) {
			h.redirect(c)
			return
		}
		metrics.ListLoadFailures.WithLabelValues(p.View).Inc()
		msg := backend.UserMessage(err, "Failed to load candidates")
		log.WithError(err).WithField("view", p.View).Warn("candidate list load failed")
		h.publish(notify.Notice{Kind: notify.KindLoadFailed, Title: notify.TitleLoadFailed, Detail: msg, Level: "error", At: time.Now()})
		if !stale {
			c.JSON(http.StatusBadGateway, gin.H{"error": msg})
			return
		}
	}

	ordered := records
	if p.View == viewAll {
		ordered = query.SortByPhoneThenName(records)
	}
	filtered := query.Apply(ordered, query.FilterState{
		Text:          p.Q,
		College:       p.College,
		PaymentStatus: p.Payment,
		From:          from,
		To:            to,
		Bucket:        query.Bucket(p.Time),
		DateField:     dateField,
		SearchCompany: p.View == viewExport,
		Location:      h.loc,
	})

	page, limit := p.Page, p.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	items, total := query.Paginate(filtered, page, limit)

	body := gin.H{
		"view":     p.View,
		"list":     items,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"hasNext":  query.HasNext(page, limit, total),
		"summary":  query.Summarize(filtered),
		"colleges": query.DistinctValues(records, query.FieldCollege),
		"stale":    stale,
	}
	if p.View == viewExport {
		body["payments"] = paymentCounts(filtered)
	}
	c.JSON(http.StatusOK, body)
}

// paymentCounts tallies the payment states shown on the export view.
func paymentCounts(records []query.Candidate) map[string]int {
	out := map[string]int{"Paid": 0, "Pending": 0, "Failed": 0, "Refunded": 0}
	for _, rec := range records {
		if _, ok := out[rec.PaymentStatus]; ok {
			out[rec.PaymentStatus]++
		}
	}
	return out
}

// ---------- Pickups ----------

type pickupParams struct {
	Location string `form:"location"`
	Mode     string `form:"mode" binding:"omitempty,oneof=pickup drop both"`
	Q        string `form:"q"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Pickups serves the server-side paged transport list. A failed load keeps
// the previously displayed page.
func (h *Handler) Pickups(c *gin.Context) {
	var p pickupParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	req := query.PageRequest{Location: p.Location, Mode: p.Mode, Query: p.Q, Page: p.Page, Limit: p.Limit}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = defaultPageSize
	}

	page, err := h.pickups.Load(c.Request.Context(), req)
	stale := false
	if err != nil {
		if h.sessions.HandleError(c.Request.Context(), err) {
			h.redirect(c)
			return
		}
		metrics.ListLoadFailures.WithLabelValues("pickups").Inc()
		msg := backend.UserMessage(err, "Failed to load pickup list")
		log.WithError(err).Warn("pickup list load failed")
		h.publish(notify.Notice{Kind: notify.KindLoadFailed, Title: notify.TitleLoadFailed, Detail: msg, Level: "error", At: time.Now()})
		prev, loaded := h.pickups.Request()
		if !loaded {
			c.JSON(http.StatusBadGateway, gin.H{"error": msg})
			return
		}
		req, stale = prev, true
	}

	c.JSON(http.StatusOK, gin.H{
		"list":    page.List,
		"total":   page.Total,
		"page":    req.Page,
		"limit":   req.Limit,
		"hasNext": query.HasNext(req.Page, req.Limit, page.Total),
		"stale":   stale,
	})
}
