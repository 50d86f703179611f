package query

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DateField selects which timestamp a view's date range filters on.
type DateField int

const (
	// DateAttendanceOrRegistration uses the attendance date, falling back to
	// the registration date (the all-registrations view).
	DateAttendanceOrRegistration DateField = iota
	// DateAdminAttendance uses the admin scan timestamp only (scanned list).
	DateAdminAttendance
	// DateRegistration uses the registration date only (export view).
	DateRegistration
)

// Bucket is a time-of-day filter.
type Bucket string

const (
	BucketNone    Bucket = ""
	BucketMorning Bucket = "morning"
	BucketEvening Bucket = "evening"
)

// MinQueryLength is the shortest text query that filters anything.
const MinQueryLength = 2

// FilterState is the active predicate set of a list view. The zero value
// filters nothing.
type FilterState struct {
	Text          string
	College       string
	PaymentStatus string
	// From and To are calendar days; only their date part in Location matters.
	From      time.Time
	To        time.Time
	Bucket    Bucket
	DateField DateField
	// SearchCompany adds companyName to the searched fields.
	SearchCompany bool
	Location      *time.Location
}

func (f FilterState) location() *time.Location {
	if f.Location != nil {
		return f.Location
	}
	return time.Local
}

// Predicate reports whether a record stays in the view.
type Predicate func(Candidate) bool

// Compile turns f into its predicate list. Filters that are unset contribute
// nothing, so an empty FilterState compiles to an empty list.
func Compile(f FilterState) []Predicate {
	var preds []Predicate
	if p := TextPredicate(f.Text, f.SearchCompany); p != nil {
		preds = append(preds, p)
	}
	if f.College != "" {
		preds = append(preds, EqualsPredicate(FieldCollege, f.College))
	}
	if f.PaymentStatus != "" {
		preds = append(preds, EqualsPredicate(FieldPaymentStatus, f.PaymentStatus))
	}
	if p := DateRangePredicate(f.DateField, f.From, f.To, f.location()); p != nil {
		preds = append(preds, p)
	}
	if p := BucketPredicate(f.Bucket, f.From, f.location()); p != nil {
		preds = append(preds, p)
	}
	return preds
}

// Apply returns the records matching every predicate of f, in their original
// order. records is never modified.
func Apply(records []Candidate, f FilterState) []Candidate {
	return Filter(records, Compile(f)...)
}

// Filter keeps the records for which all preds hold.
func Filter(records []Candidate, preds ...Predicate) []Candidate {
	out := make([]Candidate, 0, len(records))
	for _, rec := range records {
		if matchAll(rec, preds) {
			out = append(out, rec)
		}
	}
	return out
}

func matchAll(rec Candidate, preds []Predicate) bool {
	for _, p := range preds {
		if !p(rec) {
			return false
		}
	}
	return true
}

// TextPredicate matches a case-insensitive substring of the record's name,
// email, phone, college and branch. Queries shorter than MinQueryLength
// return nil (no filtering).
func TextPredicate(q string, withCompany bool) Predicate {
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil
	}
	needle := strings.ToLower(q)
	return func(c Candidate) bool {
		fields := []string{c.Name, c.Email, c.PhoneNumber(), c.College, c.BranchName()}
		if withCompany {
			fields = append(fields, c.CompanyName)
		}
		for i, v := range fields {
			if v == "-" {
				fields[i] = ""
			}
		}
		return strings.Contains(strings.ToLower(strings.Join(fields, " ")), needle)
	}
}

// EqualsPredicate matches records whose field equals want exactly.
func EqualsPredicate(field Field, want string) Predicate {
	return func(c Candidate) bool {
		return field.Value(c) == want
	}
}

// RelevantDate returns the timestamp field selects as seen from loc, or the
// zero time.
func RelevantDate(c Candidate, field DateField, loc *time.Location) time.Time {
	switch field {
	case DateAdminAttendance:
		return c.AdminAttendanceDate.At(loc)
	case DateRegistration:
		return c.RegistrationDate.At(loc)
	default:
		if !c.AttendanceDate.IsZero() {
			return c.AttendanceDate.At(loc)
		}
		return c.RegistrationDate.At(loc)
	}
}

// StartOfDay is 00:00:00 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay is 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// DateRangePredicate bounds the relevant date to [from 00:00, to 23:59:59.999].
// Either bound may be zero. Records lacking the date fail once any bound is set.
func DateRangePredicate(field DateField, from, to time.Time, loc *time.Location) Predicate {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	var start, end time.Time
	if !from.IsZero() {
		start = StartOfDay(from, loc)
	}
	if !to.IsZero() {
		end = EndOfDay(to, loc)
	}
	return func(c Candidate) bool {
		at := RelevantDate(c, field, loc)
		if at.IsZero() {
			return false
		}
		if !start.IsZero() && at.Before(start) {
			return false
		}
		if !end.IsZero() && at.After(end) {
			return false
		}
		return true
	}
}

// BucketPredicate restricts the admin scan hour to the bucket. It only
// constrains records scanned on the selected day; records from any other day
// pass. With no selected day every scanned record is constrained. Records
// without a scan timestamp always pass.
func BucketPredicate(b Bucket, day time.Time, loc *time.Location) Predicate {
	if b != BucketMorning && b != BucketEvening {
		return nil
	}
	return func(c Candidate) bool {
		at := c.AdminAttendanceDate.At(loc)
		if at.IsZero() {
			return true
		}
		local := at.In(loc)
		if !day.IsZero() && !sameDay(local, day.In(loc)) {
			return true
		}
		hour := local.Hour()
		if b == BucketMorning {
			return hour >= 8 && hour < 16
		}
		return hour >= 16
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
