// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across store/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a client-correctable input error.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyRestored indicates an archive entry whose restoration was
	// already consumed. Matches ErrValidation for callers that only care
	// about the coarse taxonomy.
	ErrAlreadyRestored = fmt.Errorf("already restored: %w", ErrValidation)

	// ErrConflict indicates a conditional write whose expectation did not hold.
	ErrConflict = errors.New("conditional write conflict")

	// ErrUnavailable indicates a store I/O failure; callers may retry with backoff.
	ErrUnavailable = errors.New("service unavailable")
)

// Unavailable wraps a store failure at an operation boundary. Both
// ErrUnavailable and the original cause stay matchable via errors.Is.
func Unavailable(op string, cause error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, cause))
}
