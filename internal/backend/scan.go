package backend

import (
	"context"
	"net/http"

	"eventdesk/internal/query"
)

// FlexString decodes a JSON string, number or bool as text; null becomes "".
type FlexString = query.FlexString

// Registrant is one person in a scan verification response.
type Registrant struct {
	ID                FlexString `json:"id,omitempty"`
	MongoID           FlexString `json:"_id,omitempty"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	Gender            string     `json:"gender,omitempty"`
	College           string     `json:"college,omitempty"`
	Course            string     `json:"course,omitempty"`
	Year              FlexString `json:"year,omitempty"`
	WasAlreadyScanned bool       `json:"wasAlreadyScanned"`
}

// Key returns the registrant id whichever field carried it.
func (r Registrant) Key() string {
	if r.ID != "" {
		return string(r.ID)
	}
	return string(r.MongoID)
}

// YearLabel renders the study year as "1st Year", "2nd Year" and so on.
// It is empty when course or year is missing.
func (r Registrant) YearLabel() string {
	if r.Course == "" || r.Year == "" {
		return ""
	}
	suffix := "th"
	switch r.Year {
	case "1":
		suffix = "st"
	case "2":
		suffix = "nd"
	case "3":
		suffix = "rd"
	}
	return r.Course + " - " + string(r.Year) + suffix + " Year"
}

// ScanResponse is the body of the attendance-scan endpoint. Newer backends
// send the family shape; older ones send a single record under data.
type ScanResponse struct {
	FamilyMembers []Registrant `json:"familyMembers"`
	TotalMembers  int          `json:"totalMembers"`
	ScannedPerson string       `json:"scannedPerson"`
	Data          *Registrant  `json:"data"`
	Status        string       `json:"status"`
	Message       string       `json:"message"`
}

// ScanAttendance submits a decoded QR token for verification.
func (c *Client) ScanAttendance(ctx context.Context, token string) (*ScanResponse, error) {
	var out ScanResponse
	payload := map[string]string{"token": token}
	if err := c.doJSON(ctx, http.MethodPost, "/users/admin/attendance-scan", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
