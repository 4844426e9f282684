package api

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed    = errors.New("api: request failed")
	ErrUnexpectedStatus = errors.New("api: unexpected status")
	ErrCircuitOpen      = errors.New("api: circuit breaker is open")
	ErrInvalidURL       = errors.New("api: invalid base url")
	ErrDecode           = errors.New("api: cannot decode response")
	ErrEmptyArgument    = errors.New("api: empty argument")
)

// StatusError carries a non-2xx response. It matches ErrUnexpectedStatus
// with errors.Is.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api: %s %s returned %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
