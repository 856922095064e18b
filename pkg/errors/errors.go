// Package errors provides structured error types for locallore.
//
// Every error that crosses a package boundary carries a machine-readable
// [Code]. The CLI maps codes to exit messages and the HTTP server maps them
// to status codes.
//
// # Error Codes
//
//   - INVALID_*: input validation failures (paths, manifests, config)
//   - COLLECTOR_FAILED: a collector hit an unexpected failure
//   - STORE_ERROR: the dependency store rejected or failed an operation
//   - NOT_FOUND: the requested record does not exist
//   - UNAVAILABLE: the service is busy; retry later
//   - INTERNAL_ERROR / UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", path)
//	if errors.Is(err, errors.ErrCodeInvalidPath) {
//	    // reject the scan request
//	}
//
//	err := errors.Wrap(errors.ErrCodeStore, dbErr, "upsert %s", id)
//	if errors.Retryable(err) {
//	    // try again on the next tick
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Pipeline errors
	ErrCodeCollectorFailed Code = "COLLECTOR_FAILED"
	ErrCodeStore           Code = "STORE_ERROR"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Backpressure: the request was valid but cannot be taken now
	ErrCodeUnavailable Code = "UNAVAILABLE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
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

// Is reports whether any *Error in err's chain carries code. A collector
// failure wrapping a malformed-manifest error matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Retryable reports whether a later attempt at the same operation may
// succeed. Store failures and backpressure qualify; bad input stays bad.
func (c Code) Retryable() bool {
	return c == ErrCodeStore || c == ErrCodeUnavailable
}

// Retryable reports whether err carries a retryable code anywhere in its
// chain.
func Retryable(err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Retryable() {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// UserMessage returns the message of the outermost *Error without its code
// prefix, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
