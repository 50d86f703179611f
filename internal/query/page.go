package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// ListPage is a normalized list response.
type ListPage struct {
	List  []Candidate `json:"list"`
	Total int         `json:"total"`
}

// ErrMalformed is returned for list bodies that are not JSON arrays or objects.
var ErrMalformed = errors.New("query: malformed list response")

// listKeys are probed in order for the wrapped array.
var listKeys = []string{"candidates", "records", "scannedList", "docs"}

// totalKeys are probed in order for an explicit count.
var totalKeys = []string{"total", "totalDocs", "totalCount"}

// NormalizeList accepts every list shape the backend produces: a bare array,
// {candidates:[]}, {records:[]}, {scannedList:[]}, {docs:[]} or
// {candidates:{docs:[]}}. Total comes from total/totalDocs/totalCount when
// one is a number, otherwise it is the list length. An object with none of
// the known keys yields an empty page.
func NormalizeList(body []byte) (ListPage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ListPage{}, ErrMalformed
	}

	switch body[0] {
	case '[':
		var list []Candidate
		if err := json.Unmarshal(body, &list); err != nil {
			return ListPage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return ListPage{List: list, Total: len(list)}, nil
	case '{':
	default:
		return ListPage{}, ErrMalformed
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ListPage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	list, err := findList(obj)
	if err != nil {
		return ListPage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if list == nil {
		list = []Candidate{}
	}
	page := ListPage{List: list, Total: len(list)}
	for _, key := range totalKeys {
		if n, ok := number(obj[key]); ok {
			page.Total = n
			break
		}
	}
	return page, nil
}

func findList(obj map[string]json.RawMessage) ([]Candidate, error) {
	for _, key := range listKeys {
		if list, ok, err := array(obj[key]); ok || err != nil {
			return list, err
		}
	}
	// {candidates: {docs: [...]}}
	if raw, ok := obj["candidates"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			if list, ok, err := array(nested["docs"]); ok || err != nil {
				return list, err
			}
		}
	}
	return nil, nil
}

// array decodes raw when it holds a JSON array. ok is false for anything else.
func array(raw json.RawMessage) ([]Candidate, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false, nil
	}
	list := []Candidate{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}

func number(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int(f), true
}

// PageRequest holds the server-side pagination parameters of the pickup list.
type PageRequest struct {
	Location string
	Mode     string
	Query    string
	Page     int
	Limit    int
}

// Values encodes r as the backend's query parameters.
func (r PageRequest) Values() url.Values {
	page, limit := r.Page, r.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	mode := r.Mode
	if mode == "" {
		mode = "both"
	}
	v := url.Values{}
	v.Set("pickupDropLocation", r.Location)
	v.Set("mode", mode)
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	v.Set("q", r.Query)
	return v
}

// PageLoader fetches one server-side page.
type PageLoader func(ctx context.Context, req PageRequest) (ListPage, error)

// PagedView holds the last successfully loaded page. A failed load leaves
// the previous page in place.
type PagedView struct {
	load PageLoader

	mu      sync.RWMutex
	current ListPage
	request PageRequest
	loaded  bool
}

// NewPagedView creates an empty view backed by load.
func NewPagedView(load PageLoader) *PagedView {
	return &PagedView{load: load}
}

// Load fetches req. On error the displayed page is unchanged and the error
// is returned for the caller to surface.
func (v *PagedView) Load(ctx context.Context, req PageRequest) (ListPage, error) {
	page, err := v.load(ctx, req)
	if err != nil {
		return v.Current(), err
	}
	v.mu.Lock()
	v.current = page
	v.request = req
	v.loaded = true
	v.mu.Unlock()
	return page, nil
}

// Current returns the displayed page.
func (v *PagedView) Current() ListPage {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Request returns the parameters of the displayed page and whether any page
// has loaded yet.
func (v *PagedView) Request() (PageRequest, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.request, v.loaded
}

// HasNext reports whether another page follows the displayed one.
func HasNext(page, limit, total int) bool {
	return page*limit < total
}
