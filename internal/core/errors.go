// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Session errors
	ErrUnauthenticated = &Error{Code: "UNAUTHENTICATED", Message: "sign in required"}
	ErrSessionNotFound = &Error{Code: "SESSION_NOT_FOUND", Message: "session not found"}
	ErrSessionStore    = &Error{Code: "SESSION_STORE_FAILED", Message: "session store failed"}

	// Form errors
	ErrValidation = &Error{Code: "VALIDATION_FAILED", Message: "request validation failed"}

	// Backend errors
	ErrBackendFailed      = &Error{Code: "BACKEND_FAILED", Message: "backtest service request failed"}
	ErrBackendUnreachable = &Error{Code: "BACKEND_UNREACHABLE", Message: "unable to reach backtest service"}

	// Workspace errors
	ErrNoResult = &Error{Code: "NO_RESULT", Message: "no backtest result available"}

	// Export errors
	ErrExportFailed = &Error{Code: "EXPORT_FAILED", Message: "export failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
