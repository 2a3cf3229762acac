// Package runtimeerr defines the distinguishable error kinds the Runtime
// Adapter (C1) returns, so callers branch on kind via errors.Is instead
// of matching error strings.
package runtimeerr

import "errors"

var (
	ErrUnavailable = errors.New("runtime unavailable")
	ErrNotFound    = errors.New("container not found")
	ErrConflict    = errors.New("operation conflicts with another in progress")
	ErrTimeout     = errors.New("operation timed out")
	ErrPermission  = errors.New("permission denied")
)

// Kind classifies an error returned by the Runtime Adapter.
type Kind string

const (
	KindUnavailable Kind = "runtime-unavailable"
	KindNotFound    Kind = "not-found"
	KindConflict    Kind = "conflict"
	KindTimeout     Kind = "timeout"
	KindPermission  Kind = "permission"
	KindUnknown     Kind = "unknown"
)

// ClassifyKind maps a sentinel error to its Kind for logging/events.
func ClassifyKind(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrPermission):
		return KindPermission
	default:
		return KindUnknown
	}
}
