package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuth marks a request the backend rejected with 401 or 403.
var ErrAuth = errors.New("backend: session rejected")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
	// Token is the bearer token the request was sent with, so callers can
	// expire exactly the session that was rejected.
	Token string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed (%d): %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s failed (%d)", e.Method, e.Path, e.Code)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrAuth
	}
	return nil
}

// IsAuth reports whether err is a 401/403 from the backend.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// RejectedToken returns the token carried by an auth failure, if any.
func RejectedToken(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && IsAuth(se) {
		return se.Token, true
	}
	return "", false
}

// UserMessage picks the text a person should see for err: the backend's own
// message when it sent one, otherwise the error string.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
