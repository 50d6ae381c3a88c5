package api

import (
	"errors"
	"fmt"
)

// AuthError indicates the backend rejected the session credential
// (HTTP 401 or 403).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authorization failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authorization failed (%d)", e.StatusCode)
}

// NotFoundError indicates an HTTP 404. List-fetch callers treat it as an
// empty collection; single-item callers treat it as a real failure.
type NotFoundError struct {
	Method string
	Path   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %s", e.Method, e.Path)
}

// ValidationError carries the server-supplied message for a 4xx response
// that is neither an authorization failure nor a 404. The message is meant
// to be shown to the user verbatim.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected (%d)", e.StatusCode)
}

// ServerError indicates an HTTP 5xx response.
type ServerError struct {
	StatusCode int
	Method     string
	Path       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d) on %s %s", e.StatusCode, e.Method, e.Path)
}

// NetworkError indicates the backend could not be reached at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsNetworkError reports whether err is a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// ValidationMessage returns the server-supplied message when err is a
// ValidationError with one, and "" otherwise.
func ValidationMessage(err error) string {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	return ""
}

// AuthMessage returns the server-supplied message when err is an AuthError
// with one, and "" otherwise.
func AuthMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return ""
}
