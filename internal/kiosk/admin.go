package kiosk

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/query"
)

// ---------- Colleges ----------

type collegeRequest struct {
	Name         string `json:"name" binding:"required"`
	DisplayOrder *int   `json:"displayOrder" binding:"omitempty,min=1"`
	OrderID      *int   `json:"orderId" binding:"omitempty,min=1"`
}

func bindCollege(c *gin.Context) (backend.College, bool) {
	var req collegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required; displayOrder and orderId must be positive integers"})
		return backend.College{}, false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "College name is required"})
		return backend.College{}, false
	}
	return backend.College{Name: name, DisplayOrder: req.DisplayOrder, OrderID: req.OrderID}, true
}

func (h *Handler) ListColleges(c *gin.Context) {
	colleges, err := h.api.Colleges(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch colleges")
		return
	}
	c.JSON(http.StatusOK, gin.H{"colleges": colleges})
}

func (h *Handler) CreateCollege(c *gin.Context) {
	college, ok := bindCollege(c)
	if !ok {
		return
	}
	if err := h.api.CreateCollege(c.Request.Context(), college); err != nil {
		h.fail(c, err, "Failed to add college")
		return
	}
	log.WithField("college", college.Name).Info("college added")
	c.JSON(http.StatusCreated, gin.H{"message": "College added successfully"})
}

func (h *Handler) UpdateCollege(c *gin.Context) {
	college, ok := bindCollege(c)
	if !ok {
		return
	}
	if err := h.api.UpdateCollege(c.Request.Context(), c.Param("id"), college); err != nil {
		h.fail(c, err, "Failed to update college")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "College updated successfully"})
}

func (h *Handler) DeleteCollege(c *gin.Context) {
	if err := h.api.DeleteCollege(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete college")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "College deleted successfully"})
}

// ---------- Certificates ----------

type eligibleParams struct {
	Q     string `form:"q"`
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// EligibleCandidates lists certificate recipients, searched and paged here.
func (h *Handler) EligibleCandidates(c *gin.Context) {
	var p eligibleParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	records, err := h.api.Eligible(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch eligible candidates")
		return
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = defaultPageSize
	}
	filtered := query.Apply(records, query.FilterState{Text: p.Q, Location: h.loc})
	items, total := query.Paginate(filtered, p.Page, p.Limit)
	c.JSON(http.StatusOK, gin.H{
		"list":    items,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
		"hasNext": query.HasNext(p.Page, p.Limit, total),
	})
}

type sendRequest struct {
	CandidateIDs []string `json:"candidateIds"`
}

// SendCertificates mails the listed candidates, or everyone eligible when the
// list is empty or the body is absent.
func (h *Handler) SendCertificates(c *gin.Context) {
	var req sendRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	summary, err := h.api.SendCertificates(c.Request.Context(), req.CandidateIDs)
	if err != nil {
		h.fail(c, err, "Failed to send certificates")
		return
	}
	log.WithFields(log.Fields{"total": summary.Total, "successful": summary.Successful, "failed": summary.Failed}).Info("certificates sent")
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *Handler) SendCertificate(c *gin.Context) {
	res, err := h.api.SendCertificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to send certificate")
		return
	}
	c.JSON(http.StatusOK, res)
}
