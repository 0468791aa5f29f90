// Package domain defines the core domain models for the Foxy server.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "FX-AUTH-4040")
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

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
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
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrUserNotFound indicates no user matches the given id or logon name.
	ErrUserNotFound = NewDomainError("FX-AUTH-4040", "user not found")

	// ErrRoleNotFound indicates no role matches the given id.
	ErrRoleNotFound = NewDomainError("FX-AUTH-4041", "role not found")

	// ErrUserLocked indicates the account is locked.
	ErrUserLocked = NewDomainError("FX-AUTH-4031", "user locked")

	// ErrPermissionDenied indicates the session lacks a required permission.
	ErrPermissionDenied = NewDomainError("FX-AUTH-4030", "permission denied")

	// ErrLogonConflict indicates the logon name is already taken.
	ErrLogonConflict = NewDomainError("FX-AUTH-4090", "logon name already in use")

	// ErrPasswordMismatch indicates the current password did not match.
	ErrPasswordMismatch = NewDomainError("FX-AUTH-4010", "password mismatch")

	// ErrLoginThrottled indicates too many login attempts from one host.
	ErrLoginThrottled = NewDomainError("FX-AUTH-4290", "too many login attempts")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("FX-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("FX-SYS-5001", "storage error")

	// ErrNotImplemented indicates the capability is not available.
	ErrNotImplemented = NewDomainError("FX-SYS-5010", "not implemented")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("FX-SYS-4000", "bad request")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("FX-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("FX-ARG-1002", "missing required argument")
)
