package pagination

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCursor is returned for cursor tokens this engine did not
	// mint. Malformed cursors are never reinterpreted as offset 0.
	ErrInvalidCursor = errors.New("pagination: invalid cursor")
)

// ValidationError rejects bad pagination input before any I/O happens.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
