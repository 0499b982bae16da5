package apperrors

import "errors"

var (
	// ErrInvalidInput is a caller mistake (empty batch, malformed item).
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced table or session does not exist.
	// Never retried.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a concurrent writer changed a document between our
	// read and conditional write. Retried internally; surfaced only after
	// the retry budget is exhausted.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable means the underlying store could not be reached.
	// Retried with backoff before surfacing.
	ErrUnavailable = errors.New("store unavailable")

	ErrNoPermission = errors.New("permission denied")
)

// Retryable reports whether an error is transient and worth re-running the
// whole read-compute-write cycle for.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}
