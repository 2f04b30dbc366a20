package storefront

import (
	"errors"

	"github.com/MrEthical07/storefront/cms"
)

var (
	// ErrInvalidInput wraps a *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for an unknown login or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned when a login, registration or contact budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized is returned when no valid session is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the session lacks a required role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotConfigured is returned when the upstream a call needs is not configured.
	ErrNotConfigured = errors.New("not configured")
	// ErrNotFound is returned when a product or post does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstream wraps upstream failures that have no more specific mapping.
	ErrUpstream = errors.New("upstream failure")
	// ErrSessionIssue is returned when login cookies could not be written.
	ErrSessionIssue = errors.New("session creation failed")
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError carries a user-facing message for rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// UserMessage extracts the user-facing text from err: validation and
// registration messages verbatim, a generic message otherwise.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var re *cms.RegistrationError
	if errors.As(err, &re) {
		return re.Message
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrRateLimited):
		return "Too many attempts. Please try again later."
	case errors.Is(err, ErrUnauthorized):
		return "Not authenticated"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrNotConfigured):
		return "Server configuration error. Please contact administrator."
	case errors.Is(err, ErrUpstream):
		return "Upstream service error. Please try again later."
	default:
		return "Internal server error"
	}
}
