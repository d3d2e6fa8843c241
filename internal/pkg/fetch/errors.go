package fetch

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when an attempt exceeds its deadline.
var ErrTimeout = errors.New("provider request timed out")

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

// ClientError reports whether the status is a 4xx, which is never retried.
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
