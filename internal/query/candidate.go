package query

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Candidate is the projection of a backend registration record the list
// views work with. Every field may be absent.
type Candidate struct {
	ID                 string `json:"_id,omitempty"`
	Name               string `json:"name,omitempty"`
	Email              string `json:"email,omitempty"`
	WhatsappNumber     string `json:"whatsappNumber,omitempty"`
	Phone              string `json:"phone,omitempty"`
	College            string `json:"college,omitempty"`
	CompanyName        string `json:"companyName,omitempty"`
	Branch             string `json:"branch,omitempty"`
	Course             string `json:"course,omitempty"`
	Gender             string `json:"gender,omitempty"`
	PaymentStatus      string `json:"paymentStatus,omitempty"`
	PickupDropLocation string `json:"pickupDropLocation,omitempty"`
	PickupStatus       string `json:"pickupStatus,omitempty"`
	DropStatus         string `json:"dropStatus,omitempty"`
	AdminAction        string `json:"adminAction,omitempty"`
	TransportRequired  bool   `json:"transportRequired,omitempty"`
	Attendance         bool   `json:"attendance,omitempty"`
	AdminAttendance    bool   `json:"adminAttendance,omitempty"`

	AdminAttendanceDate Time `json:"adminAttendanceDate,omitempty"`
	AttendanceDate      Time `json:"attendanceDate,omitempty"`
	RegistrationDate    Time `json:"registrationDate,omitempty"`
}

// candidateJSON is the wire form of Candidate. Backends send phone numbers
// as numbers and flags as "Yes" or 1, so every field decodes leniently.
type candidateJSON struct {
	ID                 FlexString `json:"_id"`
	Name               FlexString `json:"name"`
	Email              FlexString `json:"email"`
	WhatsappNumber     FlexString `json:"whatsappNumber"`
	Phone              FlexString `json:"phone"`
	College            FlexString `json:"college"`
	CompanyName        FlexString `json:"companyName"`
	Branch             FlexString `json:"branch"`
	Course             FlexString `json:"course"`
	Gender             FlexString `json:"gender"`
	PaymentStatus      FlexString `json:"paymentStatus"`
	PickupDropLocation FlexString `json:"pickupDropLocation"`
	PickupStatus       FlexString `json:"pickupStatus"`
	DropStatus         FlexString `json:"dropStatus"`
	AdminAction        FlexString `json:"adminAction"`
	TransportRequired  Truthy     `json:"transportRequired"`
	Attendance         Truthy     `json:"attendance"`
	AdminAttendance    Truthy     `json:"adminAttendance"`

	AdminAttendanceDate Time `json:"adminAttendanceDate"`
	AttendanceDate      Time `json:"attendanceDate"`
	RegistrationDate    Time `json:"registrationDate"`
}

func (c *Candidate) UnmarshalJSON(b []byte) error {
	var w candidateJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Candidate{
		ID:                  string(w.ID),
		Name:                string(w.Name),
		Email:               string(w.Email),
		WhatsappNumber:      string(w.WhatsappNumber),
		Phone:               string(w.Phone),
		College:             string(w.College),
		CompanyName:         string(w.CompanyName),
		Branch:              string(w.Branch),
		Course:              string(w.Course),
		Gender:              string(w.Gender),
		PaymentStatus:       string(w.PaymentStatus),
		PickupDropLocation:  string(w.PickupDropLocation),
		PickupStatus:        string(w.PickupStatus),
		DropStatus:          string(w.DropStatus),
		AdminAction:         string(w.AdminAction),
		TransportRequired:   bool(w.TransportRequired),
		Attendance:          bool(w.Attendance),
		AdminAttendance:     bool(w.AdminAttendance),
		AdminAttendanceDate: w.AdminAttendanceDate,
		AttendanceDate:      w.AttendanceDate,
		RegistrationDate:    w.RegistrationDate,
	}
	return nil
}

// PhoneNumber resolves the whatsappNumber/phone alias.
func (c Candidate) PhoneNumber() string {
	if c.WhatsappNumber != "" {
		return c.WhatsappNumber
	}
	return c.Phone
}

// BranchName resolves the branch/course alias.
func (c Candidate) BranchName() string {
	if c.Branch != "" {
		return c.Branch
	}
	return c.Course
}

// Attended reports whether either attendance flag is set.
func (c Candidate) Attended() bool {
	return c.Attendance || c.AdminAttendance
}

// Time is a timestamp that decodes leniently: null, "", and unparseable
// values all become the zero time instead of failing the whole record.
// Date-times written without a zone are wall-clock readings; At places them
// in the viewer's location.
type Time struct {
	time.Time
	wall bool
}

// NewTime wraps t.
func NewTime(t time.Time) Time { return Time{Time: t} }

// WallTime records a zone-less reading. Only its clock fields are kept.
func WallTime(t time.Time) Time {
	return Time{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), wall: true}
}

const wallLayout = "2006-01-02T15:04:05.000"

// wallLayouts carry no zone and read as local wall-clock time.
var wallLayouts = []string{
	wallLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// A bare date is midnight UTC.
const dateLayout = "2006-01-02"

// At returns the instant t denotes for a viewer in loc.
func (t Time) At(loc *time.Location) time.Time {
	if !t.wall || t.IsZero() {
		return t.Time
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func (t *Time) UnmarshalJSON(b []byte) error {
	*t = Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] != '"' {
		// epoch milliseconds
		if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range wallLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = WallTime(parsed)
			return nil
		}
	}
	if parsed, err := time.Parse(dateLayout, s); err == nil {
		t.Time = parsed
	}
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	if t.wall {
		return json.Marshal(t.Time.Format(wallLayout))
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Field names a string attribute of Candidate for DistinctValues and sorting.
type Field string

const (
	FieldName               Field = "name"
	FieldEmail              Field = "email"
	FieldPhone              Field = "phone"
	FieldCollege            Field = "college"
	FieldBranch             Field = "branch"
	FieldGender             Field = "gender"
	FieldPaymentStatus      Field = "paymentStatus"
	FieldPickupDropLocation Field = "pickupDropLocation"
)

// Value returns the field's value on c, "" when absent or unknown.
func (f Field) Value(c Candidate) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.PhoneNumber()
	case FieldCollege:
		return c.College
	case FieldBranch:
		return c.BranchName()
	case FieldGender:
		return c.Gender
	case FieldPaymentStatus:
		return c.PaymentStatus
	case FieldPickupDropLocation:
		return c.PickupDropLocation
	}
	return ""
}
