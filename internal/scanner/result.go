package scanner

import "eventdesk/internal/backend"

// Result is the interpreted outcome of one verification.
type Result interface {
	Kind() string
}

// FamilyResult lists every registration sharing the scanned pass.
type FamilyResult struct {
	Members      []backend.Registrant
	TotalMembers int
	ScannedBy    string
	Status       string
	Message      string
}

// SingleResult is the older single-record response shape.
type SingleResult struct {
	Member  backend.Registrant
	Status  string
	Message string
}

// StatusResult is a successful response carrying neither family nor data.
type StatusResult struct {
	Status  string
	Message string
}

// ErrorResult is a failed verification. Auth errors carry no message; the
// session layer handles them.
type ErrorResult struct {
	Message     string
	IsAuthError bool
}

func (FamilyResult) Kind() string { return "family" }
func (SingleResult) Kind() string { return "single" }
func (StatusResult) Kind() string { return "status" }

func (e ErrorResult) Kind() string {
	if e.IsAuthError {
		return "auth"
	}
	return "error"
}

// Interpret maps a verification response to a Result. A non-empty family
// list wins over data; status and message pass through untouched.
func Interpret(resp *backend.ScanResponse) Result {
	if resp == nil {
		return StatusResult{}
	}
	if len(resp.FamilyMembers) > 0 {
		total := resp.TotalMembers
		if total == 0 {
			total = len(resp.FamilyMembers)
		}
		return FamilyResult{
			Members:      resp.FamilyMembers,
			TotalMembers: total,
			ScannedBy:    resp.ScannedPerson,
			Status:       resp.Status,
			Message:      resp.Message,
		}
	}
	if resp.Data != nil {
		return SingleResult{Member: *resp.Data, Status: resp.Status, Message: resp.Message}
	}
	return StatusResult{Status: resp.Status, Message: resp.Message}
}

// Card is the display line of one scanned member.
type Card struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Year           string `json:"year,omitempty"`
	AlreadyScanned bool   `json:"alreadyScanned"`
}

func cards(members []backend.Registrant) []Card {
	out := make([]Card, 0, len(members))
	for _, m := range members {
		out = append(out, Card{ID: m.Key(), Name: m.Name, Year: m.YearLabel(), AlreadyScanned: m.WasAlreadyScanned})
	}
	return out
}

// View is a snapshot of what the scanner screen shows.
type View struct {
	Running      bool                 `json:"running"`
	Device       string               `json:"device,omitempty"`
	Token        string               `json:"token"`
	Kind         string               `json:"kind,omitempty"`
	Members      []backend.Registrant `json:"members"`
	Cards        []Card               `json:"cards"`
	TotalMembers int                  `json:"totalMembers"`
	ScannedBy    string               `json:"scannedBy,omitempty"`
	Status       string               `json:"status,omitempty"`
	Message      string               `json:"message,omitempty"`
	Error        string               `json:"error,omitempty"`
	Result       Result               `json:"-"`
}

func (v *View) clearResult() {
	v.Kind = ""
	v.Members = []backend.Registrant{}
	v.Cards = []Card{}
	v.TotalMembers = 0
	v.ScannedBy = ""
	v.Status = ""
	v.Message = ""
	v.Error = ""
	v.Result = nil
}

func (v *View) apply(r Result) {
	v.clearResult()
	v.Result = r
	v.Kind = r.Kind()
	switch r := r.(type) {
	case FamilyResult:
		v.Members = r.Members
		v.TotalMembers = r.TotalMembers
		v.ScannedBy = r.ScannedBy
		v.Status = r.Status
		v.Message = r.Message
	case SingleResult:
		v.Members = []backend.Registrant{r.Member}
		v.TotalMembers = 1
		v.ScannedBy = r.Member.Name
		v.Status = r.Status
		v.Message = r.Message
	case StatusResult:
		v.Status = r.Status
		v.Message = r.Message
	case ErrorResult:
		v.Error = r.Message
	}
	v.Cards = cards(v.Members)
}
