package service

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrForbidden       = errors.New("permission denied")
	ErrUnauthenticated = errors.New("authentication required")
	ErrReaderNil       = errors.New("reader is nil")
)

// ValidationError reports client input that fails size/type/shape checks.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConsistencyGapError reports a half-applied content update: the object
// storage write succeeded but the metadata commit failed. The orphaned
// object is left in place for out-of-band reconciliation rather than
// retried. CorrelationID is safe to return to the client; the storage key
// is not and stays internal.
type ConsistencyGapError struct {
	CorrelationID string
	StorageKey    string
	Err           error
}

func (e *ConsistencyGapError) Error() string {
	return fmt.Sprintf("consistency gap %s: %v", e.CorrelationID, e.Err)
}

func (e *ConsistencyGapError) Unwrap() error { return e.Err }
