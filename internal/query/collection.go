package query

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DistinctValues lists the non-empty values of field in first-seen order.
func DistinctValues(records []Candidate, field Field) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, rec := range records {
		v := field.Value(rec)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SortByPhoneThenName returns a copy of records ordered by phone number and,
// within one number, by name, so family registrations sit together. The sort
// is stable and uses locale collation.
func SortByPhoneThenName(records []Candidate) []Candidate {
	out := make([]Candidate, len(records))
	copy(out, records)
	// Collators are not safe for concurrent use; one per call.
	col := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].PhoneNumber(), out[j].PhoneNumber()
		if pi == pj {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		}
		return col.CompareString(pi, pj) < 0
	})
	return out
}

// Paginate returns the 1-based page of items and the total count. Pages past
// the end are empty; page and size below 1 are clamped to 1.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	total := len(items)
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	start := (page - 1) * size
	if start >= total {
		return []T{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], total
}

// Summary counts a filtered view the way the list headers show it.
type Summary struct {
	Total       int `json:"total"`
	Attended    int `json:"attended"`
	NotAttended int `json:"notAttended"`
}

// Summarize counts records and how many of them attended.
func Summarize(records []Candidate) Summary {
	s := Summary{Total: len(records)}
	for _, rec := range records {
		if rec.Attended() {
			s.Attended++
		}
	}
	s.NotAttended = s.Total - s.Attended
	return s
}
