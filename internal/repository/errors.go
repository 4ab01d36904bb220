package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is a unique constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrSerialization is a retryable concurrency failure (serialization,
	// deadlock, busy database).
	ErrSerialization = errors.New("serialization failure")
)

// IsStorageConflict reports whether err is worth retrying as a whole transaction.
func IsStorageConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrSerialization)
}
