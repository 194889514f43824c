// Package errors provides structured error types for modgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the builder, the CLI and the API
//   - Machine-readable error codes for programmatic handling
//   - Per-module and per-dependency failure records
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Build failures fall into three categories:
//   - RESOLUTION_FAILURE: a request could not be mapped to a module
//   - LOAD_FAILURE: module content was unreadable or unparseable
//   - INVARIANT_VIOLATION: a graph mutation broke a structural invariant
//
// Resolution and load failures are local to one entity: the builder records
// them and keeps going. Invariant violations are always fatal.
//
// # Usage
//
//	err := errors.ResolutionFailure("./missing", "/src/a.js", cause)
//	if errors.Is(err, errors.ErrCodeResolution) {
//	    // Handle unresolved request
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLoad, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Build failures
	ErrCodeResolution Code = "RESOLUTION_FAILURE"
	ErrCodeLoad       Code = "LOAD_FAILURE"
	ErrCodeInvariant  Code = "INVARIANT_VIOLATION"
	ErrCodeAborted    Code = "BUILD_ABORTED"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
// Module and Request locate build failures; both are empty for
// errors that are not tied to a graph entity.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	Module  string // Identity of the module the failure is attached to
	Request string // Request string of the failing dependency
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ResolutionFailure reports that request, issued from origin, could not be
// resolved. origin is empty for entry requests.
func ResolutionFailure(request, origin string, cause error) *Error {
	msg := fmt.Sprintf("can't resolve %q", request)
	if origin != "" {
		msg += " in " + origin
	}
	return &Error{
		Code:    ErrCodeResolution,
		Message: msg,
		Cause:   cause,
		Module:  origin,
		Request: request,
	}
}

// LoadFailure reports that the content of module could not be read or parsed.
func LoadFailure(module string, cause error) *Error {
	return &Error{
		Code:    ErrCodeLoad,
		Message: fmt.Sprintf("can't load %s", module),
		Cause:   cause,
		Module:  module,
	}
}

// Invariant reports a broken graph invariant. These are programming errors.
func Invariant(format string, args ...any) *Error {
	return New(ErrCodeInvariant, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// List is an ordered collection of build failures.
// A nil or empty List is not an error; use Err to convert.
type List []*Error

// Error joins all messages, one per line.
func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns l as an error, or nil when l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Count returns how many entries in l carry code.
func (l List) Count(code Code) int {
	n := 0
	for _, e := range l {
		if e.Code == code {
			n++
		}
	}
	return n
}

// Unwrap exposes the entries for errors.Is/As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
