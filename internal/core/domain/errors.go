// Package domain defines the error model shared by the timerelay server components.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a command-level error with a structured error code.
// The Message is what a client sees after the "ERR " prefix.
type DomainError struct {
	Code    string // Error code (e.g., "TR-CMD-4000")
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

// WithMessage returns a copy of the error carrying a different message but
// the same code.
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Details: e.Details,
		Cause:   e.Cause,
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

// ============================================================================
// Command Errors (CMD)
// ============================================================================

var (
	// ErrUnknownCommand indicates the command name is not in the command table.
	ErrUnknownCommand = NewDomainError("TR-CMD-4000", "unknown command")

	// ErrWrongArity indicates the argument count does not match the command.
	ErrWrongArity = NewDomainError("TR-CMD-4001", "wrong number of arguments")
)

// UnknownCommand returns ErrUnknownCommand naming the offending command.
func UnknownCommand(name string) *DomainError {
	return ErrUnknownCommand.WithMessage("unknown command '%s'", name)
}

// WrongArity returns ErrWrongArity naming the command.
func WrongArity(name string) *DomainError {
	return ErrWrongArity.WithMessage("wrong number of arguments for '%s' command", name)
}

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrNotInteger indicates an argument that must be an integer is not one.
	ErrNotInteger = NewDomainError("TR-ARG-4002", "value is not an integer or out of range")

	// ErrInvalidTarget indicates an RPC target that is not host:port.
	ErrInvalidTarget = NewDomainError("TR-ARG-4003", "invalid target address, expected host:port")
)

// ============================================================================
// Scheduler Errors (SCHED)
// ============================================================================

var (
	// ErrScheduleFailed indicates the timer for a task could not be registered.
	ErrScheduleFailed = NewDomainError("TR-SCHED-5000", "failed to schedule task")
)
