package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrTestNotFound    = errors.New("placement test not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAttemptExpired  = errors.New("attempt expired")
	ErrConflict        = errors.New("request conflicts with attempt state")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadRequest      = errors.New("request rejected by validation")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    []string

	kind error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
}

// Unwrap exposes the sentinel matching the status code, so callers can use
// errors.Is(err, ErrAttemptExpired) and still reach the details with errors.As.
func (e *APIError) Unwrap() error { return e.kind }

func newAPIError(status int, message string, details []string, notFound error) *APIError {
	e := &APIError{StatusCode: status, Message: message, Details: details}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.kind = ErrBadRequest
	case http.StatusNotFound:
		e.kind = notFound
	case http.StatusGone:
		e.kind = ErrAttemptExpired
	case http.StatusConflict:
		e.kind = ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		e.kind = ErrUnauthorized
	}
	return e
}
