package errors

import (
	"errors"
	"fmt"
)

// ── Error categories ──
// Service-level sentinels wrap one of these so handlers can map by category.

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrNoEligibleStaff = errors.New("no eligible staff")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
)

// ErrOptimisticLock the record was modified by another operation (stale version or state)
var ErrOptimisticLock = fmt.Errorf("record was modified by another operation, reload and retry: %w", ErrConflict)

// ValidationError a single malformed or missing input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
