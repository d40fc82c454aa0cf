// Package services holds the booking engine and the slot query.
//
// This file centralizes the error taxonomy. Service methods wrap these
// sentinels with detail (fmt.Errorf("%w: ...")) so callers test with
// errors.Is and translate them to transport codes at the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. Nothing was written.
	ErrValidation = errors.New("invalid booking request")

	// ErrConflict means the slot is taken. The system is left as it was
	// before the request.
	ErrConflict = errors.New("slot unavailable")

	// ErrCalendarWrite means a calendar create or patch failed. On create the
	// provisional row has been removed; on update the store is untouched.
	ErrCalendarWrite = errors.New("calendar write failed")

	// ErrCalendarUnavailable means the calendar could not be read. Nothing
	// was written.
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrBookingNotFound indicates the booking does not exist in the store.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStoreWrite means the record store failed.
	ErrStoreWrite = errors.New("store operation failed")
)

// IsRetryable reports whether err is a transient calendar or store failure
// that the caller may retry as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCalendarWrite) ||
		errors.Is(err, ErrCalendarUnavailable) ||
		errors.Is(err, ErrStoreWrite)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func wrap(sentinel, err error, what string) error {
	return fmt.Errorf("%w: %s: %v", sentinel, what, err)
}
