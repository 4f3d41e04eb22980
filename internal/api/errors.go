package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoTokens is returned when a request needs a session and there are no
// stored tokens and no credentials to log in with.
var ErrNoTokens = errors.New("not logged in: no stored tokens and no credentials")

// APIError is an unexpected response from the API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error: status=%d path=%s", e.StatusCode, e.Path)
	if e.RequestID != "" {
		msg += " request_id=" + e.RequestID
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += " body=" + truncate(body, 200)
	}
	return msg
}

// BadRequestError is a 400 response. Fields holds the decoded validation
// messages, keyed by field name, when the body is a JSON object.
type BadRequestError struct {
	APIError
	Fields map[string]any
}

func (e *BadRequestError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.APIError.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, e.Fields[k])
	}
	return fmt.Sprintf("validation failed (status=%d path=%s): %s", e.StatusCode, e.Path, strings.Join(parts, "; "))
}

// Unwrap exposes the embedded APIError to errors.As.
func (e *BadRequestError) Unwrap() error {
	return &e.APIError
}

// AuthError means the session could not be established or renewed. Stored
// tokens have been cleared when it is returned.
type AuthError struct {
	Op         string
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("authentication failed during %s", e.Op)
	}
	return fmt.Sprintf("authentication failed during %s: status=%d", e.Op, e.StatusCode)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
