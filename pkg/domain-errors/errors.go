// Package errors provides coded domain errors for the clinical registry.
//
// Codes describe what went wrong in domain terms (bad field value, broken
// invariant, incompatible blood types) so callers can branch on the kind of
// failure without string matching. Infrastructure facts (a record that simply
// is not there) live in pkg/platform/sentinel and get wrapped with a code at
// the service boundary.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeInvalidData marks a constructor or setter argument that violates a
	// basic field contract: empty required string, non-positive weight,
	// unrecognized blood type.
	CodeInvalidData Code = "invalid_data"

	// CodeInvariantViolation marks cross-field or referential state that has
	// drifted invalid after construction; raised only by CheckInvariant and
	// by illegal lifecycle transitions.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnderage marks a donor below the legal donation age.
	CodeUnderage Code = "underage"

	// CodeNotFound marks an ID lookup that matched no record.
	CodeNotFound Code = "not_found"

	// CodeDateInvalid marks a date or time string that failed to parse
	// against the expected format.
	CodeDateInvalid Code = "date_invalid"

	// CodeBloodIncompatible marks a donor/receiver blood-type pair rejected
	// by the compatibility rules.
	CodeBloodIncompatible Code = "blood_incompatible"

	// CodeTransplantInvalid marks an unmet transplant admission precondition,
	// such as a missing donor or receiver selection.
	CodeTransplantInvalid Code = "transplant_invalid"

	// CodeConflict marks an operation rejected because other records still
	// reference the target.
	CodeConflict Code = "conflict"

	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf returns the error's code.
func (e *Error) CodeOf() Code { return e.code }

// New builds a coded error with a static message.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and context message to an underlying error. A nil
// cause returns nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: cause}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeFrom extracts the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeFrom(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
