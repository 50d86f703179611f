package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"eventdesk/internal/query"
)

// ValidateToken asks the backend whether the current bearer token is still
// good and returns the role it belongs to.
func (c *Client) ValidateToken(ctx context.Context) (string, error) {
	var out struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/admin/users/validate-token", nil, struct{}{}, &out); err != nil {
		return "", err
	}
	return out.User.Role, nil
}

// QRCode is one registration's attendance pass.
type QRCode struct {
	ID                  FlexString `json:"id"`
	Name                string     `json:"name"`
	College             string     `json:"college,omitempty"`
	Course              string     `json:"course,omitempty"`
	Year                FlexString `json:"year,omitempty"`
	AttendanceToken     string     `json:"attendanceToken"`
	IsAttended          bool       `json:"isAttended"`
	AttendanceDate      query.Time `json:"attendanceDate"`
	AdminAttendanceDate query.Time `json:"adminAttendanceDate"`
}

// QRCodes lists the passes registered under a WhatsApp number.
func (c *Client) QRCodes(ctx context.Context, whatsappNumber string) ([]QRCode, int, error) {
	var out struct {
		Candidates      []QRCode `json:"candidates"`
		TotalCandidates int      `json:"totalCandidates"`
	}
	payload := map[string]string{"whatsappNumber": whatsappNumber}
	if err := c.doJSON(ctx, http.MethodPost, "/users/get-qr-codes", nil, payload, &out); err != nil {
		return nil, 0, err
	}
	total := out.TotalCandidates
	if total == 0 {
		total = len(out.Candidates)
	}
	return out.Candidates, total, nil
}

// College is an entry of the registration form's college list.
type College struct {
	ID           FlexString `json:"_id,omitempty"`
	Name         string     `json:"name"`
	DisplayOrder *int       `json:"displayOrder,omitempty"`
	OrderID      *int       `json:"orderId,omitempty"`
}

const collegesPath = "/users/college"

// Colleges lists colleges in the order the backend returns them.
func (c *Client) Colleges(ctx context.Context) ([]College, error) {
	var out []College
	if err := c.doJSON(ctx, http.MethodGet, collegesPath, nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []College{}
	}
	return out, nil
}

// CreateCollege adds a college.
func (c *Client) CreateCollege(ctx context.Context, college College) error {
	return c.doJSON(ctx, http.MethodPost, collegesPath, nil, college, nil)
}

// UpdateCollege replaces the college with the given id.
func (c *Client) UpdateCollege(ctx context.Context, id string, college College) error {
	return c.doJSON(ctx, http.MethodPut, collegesPath+"/"+url.PathEscape(id), nil, college, nil)
}

// DeleteCollege removes the college with the given id.
func (c *Client) DeleteCollege(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, collegesPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// Eligible lists candidates who can receive a certificate.
func (c *Client) Eligible(ctx context.Context) ([]query.Candidate, error) {
	var out struct {
		Status     string            `json:"status"`
		Message    string            `json:"message"`
		Candidates []query.Candidate `json:"candidates"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/eligible-for-certificate", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("eligible candidates: %s", fallback(out.Message, "unexpected status "+out.Status))
	}
	if out.Candidates == nil {
		out.Candidates = []query.Candidate{}
	}
	return out.Candidates, nil
}

// SendSummary reports a bulk certificate run.
type SendSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// SendCertificates mails certificates to the given candidates, or to every
// eligible candidate when ids is empty.
func (c *Client) SendCertificates(ctx context.Context, ids []string) (SendSummary, error) {
	payload := map[string]any{}
	if len(ids) > 0 {
		payload["candidateIds"] = ids
	}
	var out struct {
		Status  string      `json:"status"`
		Message string      `json:"message"`
		Summary SendSummary `json:"summary"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/users/send-certificates", nil, payload, &out); err != nil {
		return SendSummary{}, err
	}
	if out.Status != "completed" {
		return SendSummary{}, fmt.Errorf("send certificates: %s", fallback(out.Message, "Failed to send certificates"))
	}
	return out.Summary, nil
}

// SendResult is the outcome of a single certificate send. Status is one of
// "success", "success-with-warning" or "already-sent".
type SendResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendCertificate mails one candidate's certificate.
func (c *Client) SendCertificate(ctx context.Context, candidateID string) (SendResult, error) {
	var out SendResult
	payload := map[string]string{"candidateId": candidateID}
	if err := c.doJSON(ctx, http.MethodPost, "/users/send-single-certificate", nil, payload, &out); err != nil {
		return SendResult{}, err
	}
	switch out.Status {
	case "success", "success-with-warning", "already-sent":
		return out, nil
	}
	return SendResult{}, fmt.Errorf("send certificate: %s", fallback(out.Message, "Failed to send certificate"))
}

func fallback(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
