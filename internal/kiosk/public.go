package kiosk

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"eventdesk/internal/payment"
)

// ---------- QR codes ----------

type qrRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// digitsOnly drops every non-digit rune.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// QRCodes looks up the attendance passes registered to a phone number.
func (h *Handler) QRCodes(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid 10-digit phone number."})
		return
	}
	phone := digitsOnly(req.Phone)
	if len(phone) != 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid 10-digit phone number."})
		return
	}
	codes, total, err := h.api.QRCodes(c.Request.Context(), phone)
	if err != nil {
		h.fail(c, err, "Failed to fetch QR codes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": codes, "total": total})
}

// ---------- Payments ----------

// PaymentStatus waits for a registration's payment to settle. The poll ends
// with the request.
func (h *Handler) PaymentStatus(c *gin.Context) {
	p := &payment.Poller{
		API:         h.api,
		Interval:    h.paymentInterval,
		MaxAttempts: h.paymentAttempts,
	}
	st, err := p.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, st)
		return
	}
	c.JSON(http.StatusOK, st)
}
