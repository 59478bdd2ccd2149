// Package ctxerrors defines the error kinds from the pipeline's error
// handling design: a stable code plus an optional wrapped cause,
// following the same code+message+cause shape as the teacher's
// internal/errors.CkbError.
package ctxerrors

import "fmt"

// Code is a stable error kind, one of the six the error handling design
// enumerates.
type Code string

const (
	// InputError covers bad line numbers or a hunk referencing a missing
	// file. The affected file's fragment set is empty; the run continues.
	InputError Code = "INPUT_ERROR"
	// ParseError is a fragmenter strategy failure. Never fatal: it
	// downgrades to the next strategy in the pipeline.
	ParseError Code = "PARSE_ERROR"
	// EmptyDiff means the run was given no hunks.
	EmptyDiff Code = "EMPTY_DIFF"
	// BudgetInfeasible means cost(E0) already exceeds the configured
	// budget before the Selector runs.
	BudgetInfeasible Code = "BUDGET_INFEASIBLE"
	// Timeout means the global deadline elapsed at a stage boundary.
	Timeout Code = "TIMEOUT"
	// InternalInvariantViolation is the only fatal kind: a stage produced
	// output that breaks a structural invariant the next stage depends on.
	InternalInvariantViolation Code = "INTERNAL_INVARIANT_VIOLATION"
)

// Error wraps a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is supports errors.Is(err, ctxerrors.New(code, "")) style matching on
// Code alone, ignoring Message and cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
