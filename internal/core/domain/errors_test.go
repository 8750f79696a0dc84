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
			err:      NewDomainError("TR-TEST-1000", "test message"),
			expected: "[TR-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("TR-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[TR-TEST-1001] test message: extra info",
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
	err1 := NewDomainError("TR-TEST-1000", "message 1")
	err2 := NewDomainError("TR-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("TR-TEST-1001", "message 1") // Different code

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
	err := NewDomainError("TR-TEST-1000", "wrapper").WithCause(cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Without cause
	errNoCause := NewDomainError("TR-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("TR-TEST-1000", "original message")
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
	original := NewDomainError("TR-TEST-1000", "original message")
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
	original := NewDomainError("TR-TEST-1000", "original")
	cause := fmt.Errorf("cause")
	wrapped := original.Wrap(cause)

	if wrapped.Cause != cause {
		t.Errorf("Wrap() should set cause, got %v", wrapped.Cause)
	}
}

func TestDomainError_WithMessage(t *testing.T) {
	err := UnknownCommand("frob")

	if err.Code != ErrUnknownCommand.Code {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnknownCommand.Code)
	}
	if err.Message != "unknown command 'frob'" {
		t.Errorf("Message = %q", err.Message)
	}
	if ErrUnknownCommand.Message != "unknown command" {
		t.Error("WithMessage should not modify the original error")
	}
	if !errors.Is(err, ErrUnknownCommand) {
		t.Error("errors.Is should match on code after WithMessage")
	}
}

func TestWrongArity(t *testing.T) {
	err := WrongArity("get")
	if err.Message != "wrong number of arguments for 'get' command" {
		t.Errorf("Message = %q", err.Message)
	}
	if !IsDomainError(err, "TR-CMD-4001") {
		t.Error("WrongArity should carry TR-CMD-4001")
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrNotInteger

	if !IsDomainError(err, "TR-ARG-4002") {
		t.Error("IsDomainError should return true for matching code")
	}

	if IsDomainError(err, "TR-ARG-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}

	if IsDomainError(fmt.Errorf("regular error"), "TR-ARG-4002") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	if !IsDomainError(err, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrNotInteger)
	if !IsDomainError(wrapped, "TR-ARG-4002") {
		t.Error("IsDomainError should work with wrapped errors")
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
			err:      ErrInvalidTarget,
			expected: "TR-ARG-4003",
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", ErrScheduleFailed),
			expected: "TR-SCHED-5000",
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

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrUnknownCommand, "TR-CMD-4000"},
		{ErrWrongArity, "TR-CMD-4001"},
		{ErrNotInteger, "TR-ARG-4002"},
		{ErrInvalidTarget, "TR-ARG-4003"},
		{ErrScheduleFailed, "TR-SCHED-5000"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("loop stopped")
	err := ErrScheduleFailed.
		WithDetails("task 7").
		WithCause(cause)

	if err.Code != "TR-SCHED-5000" {
		t.Errorf("Code = %q, want %q", err.Code, "TR-SCHED-5000")
	}
	if err.Details != "task 7" {
		t.Errorf("Details = %q", err.Details)
	}
	if err.Cause != cause {
		t.Error("Cause should be preserved")
	}

	if !errors.Is(err, ErrScheduleFailed) {
		t.Error("errors.Is should work after chaining")
	}
}
