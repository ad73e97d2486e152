package jira

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from Jira.
type APIError struct {
	StatusCode int
	Endpoint   string
	// RetryAfter is the raw Retry-After header of a 429 response.
	RetryAfter string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("Jira authentication failed (%d) for %s. Please check your token or session cookies.", e.StatusCode, e.Endpoint)
	case http.StatusNotFound:
		return fmt.Sprintf("Jira resource not found: %s", e.Endpoint)
	case http.StatusTooManyRequests:
		if e.RetryAfter != "" {
			return fmt.Sprintf("Jira rate limit exceeded (429). Retry after %s seconds.", e.RetryAfter)
		}
		return "Jira rate limit exceeded (429)."
	default:
		return fmt.Sprintf("Jira API returned status %d for %s. Please check Jira availability.", e.StatusCode, e.Endpoint)
	}
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404 from Jira.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuthError reports whether err is a 401 or 403 from Jira.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}
