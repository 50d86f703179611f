package kiosk

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"eventdesk/internal/journal"
	"eventdesk/internal/scanner"
)

// maxFrameBytes bounds an uploaded frame.
const maxFrameBytes = 8 << 20

// ---------- Scanner ----------

func (h *Handler) ScanView(c *gin.Context) {
	c.JSON(http.StatusOK, h.scanner.View())
}

// StartScan acquires the camera. The scanner keeps running after the request
// returns, until it is stopped or the server shuts down.
func (h *Handler) StartScan(c *gin.Context) {
	if err := h.scanner.Start(h.base); err != nil {
		if errors.Is(err, scanner.ErrNoCamera) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": h.scanner.View().Error})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.scanner.View())
}

func (h *Handler) StopScan(c *gin.Context) {
	h.scanner.Stop()
	c.JSON(http.StatusOK, h.scanner.View())
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// SubmitToken feeds an already decoded token through the same path a camera
// decode takes, for hardware scanners that type the payload.
func (h *Handler) SubmitToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.scanner.HandleDecoded(h.base, req.Token)
	c.JSON(http.StatusAccepted, h.scanner.View())
}

type historyParams struct {
	Kind   string `form:"kind" binding:"omitempty,oneof=family single status error auth"`
	Token  string `form:"token"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

func (h *Handler) ScanHistory(c *gin.Context) {
	var p historyParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	entries, err := h.journal.Recent(c.Request.Context(), journal.Query{
		Kind: p.Kind, Token: p.Token, Limit: p.Limit, Offset: p.Offset,
	})
	if err != nil {
		log.WithError(err).Error("journal read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read scan history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ---------- Frames ----------

// PushFrame accepts a camera frame as a multipart "frame" file or as a JSON
// {"data": "<base64 data URL>"} body.
func (h *Handler) PushFrame(c *gin.Context) {
	if h.frames == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "frames are read from the camera directory"})
		return
	}

	var data []byte
	switch {
	case strings.Contains(c.ContentType(), "multipart/form-data"):
		file, _, err := c.Request.FormFile("frame")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "frame file required"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(io.LimitReader(file, maxFrameBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read frame failed"})
			return
		}
	default:
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		// base64 inflates by 4/3; the rest is the JSON envelope and data URL prefix.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes*4/3+1024)
		if err := c.ShouldBindJSON(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "frame too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		var err error
		data, err = decodeDataURL(body.Data)
		if err != nil {
			badRequest(c, err)
			return
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported image: " + err.Error()})
		return
	}
	if err := h.frames.Push(img); err != nil {
		if errors.Is(err, scanner.ErrNotStreaming) {
			c.JSON(http.StatusConflict, gin.H{"error": "scanner is not running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// decodeDataURL accepts "data:<mime>;base64,<payload>" or a bare base64 payload.
func decodeDataURL(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 || !strings.Contains(s[:i], ";base64") {
			return nil, errors.New("data URL must be base64 encoded")
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("invalid base64 frame")
	}
	return data, nil
}
