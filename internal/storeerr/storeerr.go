// Package storeerr defines the distinguishable error kinds the Durable
// Store (C3) returns.
package storeerr

import "errors"

var (
	// ErrIO wraps any disk write/read failure. Per the spec, a write
	// failure is fatal to that operation and the in-memory state is
	// rolled back to match what's on disk.
	ErrIO = errors.New("store i/o error")

	// ErrPolicyViolation indicates a configuration write that would
	// make quarantine unreachable; rejected at the write boundary.
	ErrPolicyViolation = errors.New("policy violation")
)

// IsPolicyViolation reports whether err is or wraps ErrPolicyViolation.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPolicyViolation)
}
