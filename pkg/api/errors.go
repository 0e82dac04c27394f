package api

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindNetwork means no response arrived: dial, TLS, timeout, reset.
	KindNetwork Kind = iota + 1
	// KindAPI means the server answered with a non-2xx status.
	KindAPI
	// KindMalformed means a 2xx response whose body could not be decoded.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		return fmt.Sprintf("%s: API Error: %d %s", e.Op, e.Status, e.Message)
	case KindMalformed:
		return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: network error", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether repeating the request may succeed: transport
// failures, 429 and 5xx.
func IsRetryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindNetwork:
		return true
	case KindAPI:
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	return false
}

// StatusCode returns the HTTP status of an API error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindAPI {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// Message renders err for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case KindNetwork:
		return "Network Error: Please check your connection"
	case KindAPI:
		return fmt.Sprintf("API Error: %d %s", apiErr.Status, apiErr.Message)
	default:
		return apiErr.Message
	}
}
