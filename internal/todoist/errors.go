package todoist

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx response. Callers branch on
// StatusCode with errors.As.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("todoist: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("todoist: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, body)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCode extracts the HTTP status from err, or 0 if err did not come
// from an API response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrStale is returned by TokenValidator when a newer validation superseded
// the one the caller was waiting on.
var ErrStale = errors.New("todoist: validation superseded by a newer request")
