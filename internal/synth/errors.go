package synth

import (
	"errors"
	"fmt"
)

// SynthesisError reports why a description could not be turned into
// elements. It is returned for a single item and never aborts a batch.
type SynthesisError struct {
	// Code identifies the error category.
	Code SynthesisErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the position of the item in its batch, or -1 when the
	// description was synthesized on its own.
	Index int
}

// SynthesisErrorCode categorizes synthesis errors.
type SynthesisErrorCode string

const (
	// ErrCodeUnknownKind indicates the kind name could not be resolved.
	ErrCodeUnknownKind SynthesisErrorCode = "UNKNOWN_KIND"

	// ErrCodeMissingEndpoint indicates a connector endpoint is absent from
	// the scene (or was not given).
	ErrCodeMissingEndpoint SynthesisErrorCode = "MISSING_ENDPOINT"

	// ErrCodeSelfConnection indicates source and target are the same element.
	ErrCodeSelfConnection SynthesisErrorCode = "SELF_CONNECTION"

	// ErrCodeAmbiguous indicates the description lacks the data its kind
	// needs (a text element without text, a connector without points or
	// endpoints).
	ErrCodeAmbiguous SynthesisErrorCode = "AMBIGUOUS_DESCRIPTION"

	// ErrCodeInvalidElement indicates an embedded element cannot be
	// completed.
	ErrCodeInvalidElement SynthesisErrorCode = "INVALID_ELEMENT"
)

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s (item=%d)", e.Code, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code SynthesisErrorCode, format string, args ...any) *SynthesisError {
	return &SynthesisError{Code: code, Message: fmt.Sprintf(format, args...), Index: -1}
}

// IsMissingEndpoint returns true if the error reports a missing connector
// endpoint. Uses errors.As to handle wrapped errors.
func IsMissingEndpoint(err error) bool {
	return hasCode(err, ErrCodeMissingEndpoint)
}

// IsUnknownKind returns true if the error reports an unresolvable kind.
func IsUnknownKind(err error) bool {
	return hasCode(err, ErrCodeUnknownKind)
}

func hasCode(err error, code SynthesisErrorCode) bool {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
