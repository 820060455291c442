package forumclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidConfig = errors.New("invalid client config")

	// ErrNetworkError is returned when the server could not be reached
	ErrNetworkError = errors.New("network error")

	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate limited")
	ErrServer         = errors.New("server error")
)

// Error codes the client reacts to
const (
	CodeReplyNotFound = "REPLY_NOT_FOUND"
	CodePostNotFound  = "POST_NOT_FOUND"
)

// APIError is a non-2xx answer from the server. Error returns the server's
// human-readable message so it can be shown as is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Is maps the status code onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// Message extracts the text to show for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, ErrNetworkError) {
		return "Network error, please try again"
	}
	return err.Error()
}
