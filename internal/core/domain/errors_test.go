package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("BL-TEST-1000", "test message"),
			expected: "[BL-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("BL-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[BL-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("BL-TEST-1000", "message 1")
	err2 := NewDomainError("BL-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("BL-TEST-1001", "message 1") // Different code

	// Same code should match
	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}

	// Different code should not match
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}

	// Should not match non-DomainError
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("BL-TEST-1000", "wrapper").WithCause(cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Without cause
	errNoCause := NewDomainError("BL-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("BL-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	// Check original is unchanged
	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}

	// Check new error has details
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}

	// Check code and message are preserved
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
	if withDetails.Message != original.Message {
		t.Errorf("Message = %q, want %q", withDetails.Message, original.Message)
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("BL-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	// Check original is unchanged
	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}

	// Check new error has cause
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}

	// Check code and message are preserved
	if withCause.Code != original.Code {
		t.Errorf("Code = %q, want %q", withCause.Code, original.Code)
	}
}

func TestDomainError_Wrap(t *testing.T) {
	original := NewDomainError("BL-TEST-1000", "original")
	cause := fmt.Errorf("cause")
	wrapped := original.Wrap(cause)

	if wrapped.Cause != cause {
		t.Errorf("Wrap() should set cause, got %v", wrapped.Cause)
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrNoSuchKey

	if !IsDomainError(err, "BL-LIST-4040") {
		t.Error("IsDomainError should return true for matching code")
	}

	if IsDomainError(err, "BL-LIST-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}

	if IsDomainError(fmt.Errorf("regular error"), "BL-LIST-4040") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrNoSuchKey)
	if !IsDomainError(wrapped, "BL-LIST-4040") {
		t.Error("IsDomainError should work with wrapped errors")
	}

	if !IsDomainError(ErrStorageIO.WithCause(errors.New("disk full")), "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "domain error",
			err:      ErrOutOfRange,
			expected: "BL-LIST-4001",
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", ErrNotInteger),
			expected: "BL-ARG-4001",
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("regular error"),
			expected: "",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStorageIOCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := ErrStorageIO.WithCause(cause)

	if !errors.Is(err, ErrStorageIO) {
		t.Error("errors.Is should match ErrStorageIO by code")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the driver cause")
	}
	if errors.Is(err, ErrNoSuchKey) {
		t.Error("storage error must not match ErrNoSuchKey")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrNoSuchKey, "BL-LIST-4040"},
		{ErrOutOfRange, "BL-LIST-4001"},
		{ErrWrongType, "BL-LIST-4090"},
		{ErrTimeout, "BL-LIST-4080"},
		{ErrSyntax, "BL-ARG-4000"},
		{ErrNotInteger, "BL-ARG-4001"},
		{ErrInvalidTimeout, "BL-ARG-4002"},
		{ErrNegativeTimeout, "BL-ARG-4003"},
		{ErrWrongArity, "BL-ARG-4004"},
		{ErrUnknownCommand, "BL-ARG-4005"},
		{ErrStorageIO, "BL-SYS-5001"},
		{ErrIncompatibleSchema, "BL-SYS-5002"},
		{ErrClosed, "BL-SYS-5030"},
		{ErrRateLimited, "BL-SYS-4290"},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.err.Message, tt.err.Code, tt.code)
		}
		if seen[tt.code] {
			t.Errorf("duplicate error code %q", tt.code)
		}
		seen[tt.code] = true
	}
}
