package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// OperationError wraps a store/upstream failure with the operation that
// triggered it. The original cause is preserved for logging but handlers
// only ever surface the operation name.
type OperationError struct {
	Op  string
	Err error
}

func NewOperationError(op string, err error) error {
	return &OperationError{Op: op, Err: err}
}

func (err OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", err.Op, err.Err)
}

func (err OperationError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
