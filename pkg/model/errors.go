package model

import (
	"errors"
	"strings"
)

var (
	// ErrSlotConflict means the requested slot is no longer bookable.
	// Callers should re-fetch availability and let the user choose again.
	ErrSlotConflict = errors.New("slot is no longer available")

	// ErrUpstreamUnavailable means the catalog or the appointment store could not be reached
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ValidationError lists the request fields that are missing or malformed
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// IsValidationError reports whether err wraps a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
