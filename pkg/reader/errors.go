package reader

import (
	"errors"
	"fmt"
)

// errNotFound marks a producer miss inside the read-through path. It never
// escapes the package: callers see (zero, false, nil), and a miss is never
// written to the cache.
var errNotFound = errors.New("record not found")

// ErrorClass classifies read failures for observability and handling.
type ErrorClass string

const (
	// ErrorClassValidation covers rejected request parameters: bad limit,
	// negative offset, malformed cursor.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassStore covers primary-store failures. These always
	// propagate to the caller.
	ErrorClassStore ErrorClass = "store"
)

// ReadError carries the resource and operation a failure belongs to.
type ReadError struct {
	Resource string
	Op       string
	Class    ErrorClass
	Err      error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s/%s: %s error: %v", e.Resource, e.Op, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ReadError) Unwrap() error {
	return e.Err
}
