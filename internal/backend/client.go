package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies the current bearer token. An empty token means the
// request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Client calls the registration backend's REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

// New creates a client with the given request timeout.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tokens:  tokens,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of c that authenticates with token instead of
// the shared token source.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Tokens = StaticToken(token)
	return &cp
}

// buildURL joins path onto the base URL and encodes query.
func (c *Client) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("backend: bad url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// do sends one request and returns the raw body of a 2xx response.
// Non-2xx responses become *StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	full, err := c.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("backend: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	token := c.Tokens.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:  method,
			Path:    path,
			Code:    resp.StatusCode,
			Message: errorMessage(data),
			Token:   token,
		}
	}
	return data, nil
}

// doJSON is do plus decoding into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	data, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of an error body, falling back
// to the trimmed body text.
func errorMessage(body []byte) string {
	var out struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err == nil {
		if out.Message != "" {
			return out.Message
		}
		if out.Error != "" {
			return out.Error
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
