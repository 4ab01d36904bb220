package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrDuplicateHold     = errors.New("duplicate hold")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrStorageConflict   = errors.New("storage conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("rate limited")
)

// Error carries a kind and a human-readable reason.
type Error struct {
	Kind       error
	Reason     string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func RateLimited(retryAfter time.Duration) error {
	return &Error{
		Kind:       ErrRateLimited,
		Reason:     fmt.Sprintf("retry in %s", retryAfter),
		RetryAfter: retryAfter,
	}
}

// Reason returns the human-readable part of err, falling back to err.Error().
func Reason(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Reason != "" {
		return de.Reason
	}
	return err.Error()
}

// Code returns a stable machine code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDuplicateHold):
		return "duplicate_hold"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrStorageConflict):
		return "storage_conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}
