package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/scenekit/internal/ir"
)

// InterpreterError reports why one action of a batch failed.
//
// Interpreter errors include:
//   - Unknown action: the action type is not recognized
//   - Target not found: an id (or ref) does not name a live element
//   - Invalid fields: the action's field combination is unusable
//   - Synthesis/connection failure: the underlying operation rejected it
//
// The error is recorded in the action's result; it never aborts the batch.
type InterpreterError struct {
	// Code identifies the error category.
	Code InterpreterErrorCode

	// Message is a human-readable description.
	Message string

	// ActionIndex is the position of the action in its batch.
	ActionIndex int

	// ActionType is the type of the failing action.
	ActionType ir.ActionType

	// Err is the underlying cause, if any.
	Err error
}

// InterpreterErrorCode categorizes interpreter errors.
type InterpreterErrorCode string

const (
	// ErrCodeUnknownAction indicates the action type is not recognized.
	ErrCodeUnknownAction InterpreterErrorCode = "UNKNOWN_ACTION"

	// ErrCodeTargetNotFound indicates a referenced element is missing or deleted.
	ErrCodeTargetNotFound InterpreterErrorCode = "TARGET_NOT_FOUND"

	// ErrCodeInvalidFields indicates an unusable field combination.
	ErrCodeInvalidFields InterpreterErrorCode = "INVALID_FIELDS"

	// ErrCodeSynthesisFailed indicates element synthesis rejected the action.
	ErrCodeSynthesisFailed InterpreterErrorCode = "SYNTHESIS_FAILED"

	// ErrCodeConnectionFailed indicates the connection operation rejected
	// the action.
	ErrCodeConnectionFailed InterpreterErrorCode = "CONNECTION_FAILED"
)

// Error implements the error interface.
func (e *InterpreterError) Error() string {
	return fmt.Sprintf("%s: %s (action=%d, type=%s)", e.Code, e.Message, e.ActionIndex, e.ActionType)
}

// Unwrap returns the underlying cause.
func (e *InterpreterError) Unwrap() error {
	return e.Err
}

// IsTargetNotFound returns true if the error reports a missing target.
// Uses errors.As to handle wrapped errors.
func IsTargetNotFound(err error) bool {
	var ie *InterpreterError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeTargetNotFound
	}
	return false
}

// IsInvalidFields returns true if the error reports an unusable field
// combination.
func IsInvalidFields(err error) bool {
	var ie *InterpreterError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeInvalidFields
	}
	return false
}

// ErrStopped is returned by Submit* once the engine has stopped.
var ErrStopped = errors.New("engine stopped")

func failure(code InterpreterErrorCode, cause error, format string, args ...any) *InterpreterError {
	return &InterpreterError{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

func targetNotFound(id string) *InterpreterError {
	return failure(ErrCodeTargetNotFound, nil, "element %q not found", id)
}
