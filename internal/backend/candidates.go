package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"eventdesk/internal/query"
)

// Candidates returns every registration, attended or not.
func (c *Client) Candidates(ctx context.Context) (query.ListPage, error) {
	return c.list(ctx, "/users/", nil)
}

// ScannedList returns registrations the admin scanner has marked present.
// phone and branch aliases are resolved by query.Candidate itself.
func (c *Client) ScannedList(ctx context.Context) (query.ListPage, error) {
	return c.list(ctx, "/users/admin/scanned-list", nil)
}

// PickupList returns one server-side page of the pickup/drop list.
func (c *Client) PickupList(ctx context.Context, req query.PageRequest) (query.ListPage, error) {
	return c.list(ctx, "/users/admin/pickup-list", req.Values())
}

func (c *Client) list(ctx context.Context, path string, params url.Values) (query.ListPage, error) {
	data, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return query.ListPage{}, err
	}
	page, err := query.NormalizeList(data)
	if err != nil {
		return query.ListPage{}, fmt.Errorf("GET %s: %w", path, err)
	}
	return page, nil
}
