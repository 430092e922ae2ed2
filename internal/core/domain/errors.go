// Package domain defines the core domain types for blueis.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form BL-<AREA>-<NNNN>; the dispatcher maps them to RESP
// error replies.
type DomainError struct {
	Code    string // Error code (e.g., "BL-LIST-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// List errors (LIST)

var (
	// ErrNoSuchKey is returned where absence differs from an empty list
	// (LSET, LPUSHX/RPUSHX).
	ErrNoSuchKey = NewDomainError("BL-LIST-4040", "no such key")

	// ErrOutOfRange indicates an index outside the list.
	ErrOutOfRange = NewDomainError("BL-LIST-4001", "index out of range")

	// ErrWrongType indicates the key holds a value that is not a list.
	ErrWrongType = NewDomainError("BL-LIST-4090", "Operation against a key holding the wrong kind of value")

	// ErrTimeout indicates a blocking pop deadline elapsed. It is never
	// rendered as an error reply; callers answer with a null result.
	ErrTimeout = NewDomainError("BL-LIST-4080", "blocking operation timed out")
)

// Argument errors (ARG)

var (
	// ErrSyntax indicates a malformed command.
	ErrSyntax = NewDomainError("BL-ARG-4000", "syntax error")

	// ErrNotInteger indicates an argument that must be an integer is not.
	ErrNotInteger = NewDomainError("BL-ARG-4001", "value is not an integer or out of range")

	// ErrInvalidTimeout indicates an unparsable blocking timeout.
	ErrInvalidTimeout = NewDomainError("BL-ARG-4002", "timeout is not a float or out of range")

	// ErrNegativeTimeout indicates a blocking timeout below zero.
	ErrNegativeTimeout = NewDomainError("BL-ARG-4003", "timeout is negative")

	// ErrWrongArity indicates the wrong number of arguments for a command.
	ErrWrongArity = NewDomainError("BL-ARG-4004", "wrong number of arguments")

	// ErrUnknownCommand indicates a command name outside the supported set.
	ErrUnknownCommand = NewDomainError("BL-ARG-4005", "unknown command")
)

// System errors (SYS)

var (
	// ErrStorageIO indicates a failed read or transaction on the database file.
	// The underlying driver error is attached as the cause.
	ErrStorageIO = NewDomainError("BL-SYS-5001", "storage error")

	// ErrIncompatibleSchema indicates the database file was written by an
	// incompatible version.
	ErrIncompatibleSchema = NewDomainError("BL-SYS-5002", "incompatible database schema version")

	// ErrClosed indicates the storage engine has been closed.
	ErrClosed = NewDomainError("BL-SYS-5030", "storage closed")

	// ErrRateLimited indicates too many commands from one client address.
	ErrRateLimited = NewDomainError("BL-SYS-4290", "rate limit exceeded")
)
