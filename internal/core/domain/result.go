package domain

import "errors"

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// Status is the outcome of a resolver call.
type Status string

const (
	// StatusFound means the resolver produced a value.
	StatusFound Status = "found"
	// StatusEmpty means providers answered but nothing applies here.
	StatusEmpty Status = "empty"
	// StatusUnavailable means the providers could not be reached or parsed.
	StatusUnavailable Status = "unavailable"
)

// Result carries a resolver value together with how it was obtained.
// Resolvers return a Result instead of an error so "nothing nearby" and
// "provider down" can be told apart without either being fatal.
type Result[T any] struct {
	Value  T      `json:"value"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Found wraps a resolved value.
func Found[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusFound}
}

// Empty is a successful lookup with nothing to report.
func Empty[T any]() Result[T] {
	return Result[T]{Status: StatusEmpty}
}

// Unavailable records why a lookup could not complete.
func Unavailable[T any](err error) Result[T] {
	r := Result[T]{Status: StatusUnavailable}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// OK reports whether a value was found.
func (r Result[T]) OK() bool { return r.Status == StatusFound }
