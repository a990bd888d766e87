package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes different error types
type ErrorType string

const (
	// Client-side validation, caught before any request is sent
	ErrorTypeValidation ErrorType = "validation"

	// Authorization failures, handled centrally by the secure gateway
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeForbidden      ErrorType = "forbidden"
	ErrorTypeSessionExpired ErrorType = "session_expired"
	ErrorTypeAuth           ErrorType = "auth"

	// Backend rejected the write because it already happened
	ErrorTypeConflict ErrorType = "conflict"

	// Generic, retry-capable failures
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeServer   ErrorType = "server"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// CLIError represents a structured error with context
type CLIError struct {
	Type       ErrorType
	Message    string
	Field      string
	Cause      error
	Suggestion string
	StatusCode int
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

// WithSuggestion adds a helpful suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *CLIError) HasSuggestion() bool {
	return e.Suggestion != ""
}

// Unwrap returns the underlying error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether showing a retry affordance makes sense.
func (e *CLIError) Retryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServer, ErrorTypeUnknown:
		return true
	}
	return false
}

// NewCLIError creates a new CLI error
func NewCLIError(errorType ErrorType, message string, cause error) *CLIError {
	return &CLIError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NetworkError creates a network error
func NetworkError(message string) *CLIError {
	err := NewCLIError(ErrorTypeNetwork, message, nil)
	err.Suggestion = "Check your internet connection and try again."
	return err
}

// TimeoutError creates a timeout error
func TimeoutError() *CLIError {
	err := NewCLIError(ErrorTypeTimeout, "Request timed out", nil)
	err.Suggestion = "The server is taking too long to respond. Try again in a moment."
	return err
}

// AuthError creates an authentication error
func AuthError(message string) *CLIError {
	err := NewCLIError(ErrorTypeAuth, message, nil)
	err.Suggestion = "Try logging in again with 'codestack auth login'"
	return err
}

// SessionExpiredError creates a session expired error
func SessionExpiredError() *CLIError {
	err := NewCLIError(ErrorTypeSessionExpired, "Your session has expired", nil)
	err.StatusCode = http.StatusUnauthorized
	err.Suggestion = "Run 'codestack auth login' to sign in again."
	return err
}

// UnauthorizedError creates an unauthorized error
func UnauthorizedError() *CLIError {
	err := NewCLIError(ErrorTypeUnauthorized, "You need to be logged in to do that", nil)
	err.StatusCode = http.StatusUnauthorized
	err.Suggestion = "Run 'codestack auth login' first."
	return err
}

// ForbiddenError creates a forbidden error
func ForbiddenError() *CLIError {
	err := NewCLIError(ErrorTypeForbidden, "Access denied", nil)
	err.StatusCode = http.StatusForbidden
	err.Suggestion = "Contact an administrator if you believe this is an error."
	return err
}

// ValidationError creates a validation error for a single form field
func ValidationError(field, reason string) *CLIError {
	err := NewCLIError(ErrorTypeValidation, fmt.Sprintf("%s: %s", field, reason), nil)
	err.Field = field
	return err
}

// ServerError creates a server error
func ServerError() *CLIError {
	err := NewCLIError(ErrorTypeServer, "Server error", nil)
	err.Suggestion = "The server encountered an error. Try again in a few moments."
	return err
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, identifier string) *CLIError {
	return NewCLIError(ErrorTypeNotFound,
		fmt.Sprintf("%s not found: %s", resourceType, identifier),
		nil)
}

// ConflictError creates a conflict error. The message is the one shown to
// the user, so call sites pass their own wording.
func ConflictError(message string) *CLIError {
	err := NewCLIError(ErrorTypeConflict, message, nil)
	err.StatusCode = http.StatusConflict
	return err
}

// statusCoder is implemented by API errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// IsConflict reports whether err is a conflict, either categorized or
// straight from the backend.
func IsConflict(err error) bool {
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Type == ErrorTypeConflict {
		return true
	}
	var sc statusCoder
	return errors.As(err, &sc) && sc.HTTPStatus() == http.StatusConflict
}

// IsValidation reports whether err is a client-side validation error.
func IsValidation(err error) bool {
	var cliErr *CLIError
	return errors.As(err, &cliErr) && cliErr.Type == ErrorTypeValidation
}

// CategorizeError converts a standard error into a CLIError
func CategorizeError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return fromStatus(sc.HTTPStatus(), err)
	}

	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "connection refused"):
		e := NetworkError("Could not connect to server. Make sure it's running.")
		e.Cause = err
		return e
	case strings.Contains(errMsg, "context deadline exceeded"), strings.Contains(errMsg, "timeout"):
		e := TimeoutError()
		e.Cause = err
		return e
	case strings.Contains(errMsg, "no such host"):
		e := NetworkError("Could not resolve server address.")
		e.Cause = err
		return e
	default:
		return NewCLIError(ErrorTypeUnknown, errMsg, err)
	}
}

func fromStatus(status int, cause error) *CLIError {
	var e *CLIError
	switch {
	case status == http.StatusUnauthorized:
		e = UnauthorizedError()
	case status == http.StatusForbidden:
		e = ForbiddenError()
	case status == http.StatusNotFound:
		e = NewCLIError(ErrorTypeNotFound, cause.Error(), nil)
	case status == http.StatusConflict:
		e = ConflictError(cause.Error())
	case status >= 500:
		e = ServerError()
	default:
		e = NewCLIError(ErrorTypeUnknown, cause.Error(), nil)
	}
	e.Cause = cause
	e.StatusCode = status
	return e
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	cliErr := CategorizeError(err)
	var sb strings.Builder

	sb.WriteString("Error")
	if cliErr.Type != ErrorTypeUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(cliErr.Type))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(cliErr.Message)
	sb.WriteString("\n")

	if cliErr.HasSuggestion() {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(cliErr.Suggestion)
		sb.WriteString("\n")
	}

	if cliErr.Retryable() {
		sb.WriteString("\nRun the command again to retry.\n")
	}

	return sb.String()
}
