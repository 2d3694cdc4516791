// Package errors provides typed errors for the gold tracker.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error cases.
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrSessionExpired indicates the bearer token was rejected by the API.
	// It is session-terminating: the token store has already been cleared
	// when this error is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrValidation indicates a client-side validation error.
	ErrValidation = errors.New("validation error")

	// ErrStorage indicates a token/local storage read or write failed.
	ErrStorage = errors.New("storage error")

	// ErrNetwork indicates the remote API could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrAPI indicates the remote API rejected the request (non-401 failure).
	ErrAPI = errors.New("api error")

	// ErrRateLimit indicates too many requests.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrInternal indicates an internal error.
	ErrInternal = errors.New("internal error")
)

// AppError is a structured application error.
type AppError struct {
	// Type is the error type (sentinel error).
	Type error
	// Message is the user-facing error message.
	Message string
	// Status is the HTTP status from the remote API, when applicable.
	Status int
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error type.
func (e *AppError) Unwrap() error {
	return e.Type
}

// Is checks if this error matches the target.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

// New creates a new AppError.
func New(errType error, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(errType error, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// WithStatus attaches an HTTP status to an AppError.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// SessionExpired creates a session-terminating authorization error.
func SessionExpired() *AppError {
	return &AppError{
		Type:    ErrSessionExpired,
		Message: "your session has expired, please sign in again",
		Status:  401,
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Type:    ErrValidation,
		Message: message,
	}
}

// API creates an error for a non-2xx remote API response.
func API(status int, message string) *AppError {
	return &AppError{
		Type:    ErrAPI,
		Message: message,
		Status:  status,
	}
}

// Network creates an error for a failed transport round trip.
func Network(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrNetwork,
		Message: message,
		Cause:   cause,
	}
}

// Storage creates a recoverable storage error.
func Storage(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrStorage,
		Message: message,
		Cause:   cause,
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Type:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsSessionExpired checks if an error is session-terminating.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStorage checks if an error is a storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsNetwork checks if an error is a transport error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// UserMessage returns a message safe to show inline on the current view.
// API-supplied messages pass through; everything else gets a generic text.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "An error occurred. Please try again."
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrSessionExpired):
		return 401
	case errors.Is(err, ErrValidation):
		return 400
	case errors.Is(err, ErrRateLimit):
		return 429
	case errors.Is(err, ErrNetwork):
		return 502
	default:
		return 500
	}
}
