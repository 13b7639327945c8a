package oekoboiler

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the Oekoboiler client.
// All errors are defined here for easy discovery and consistent organization.
var (
	// Authentication errors
	ErrAuthentication = errors.New("oekoboiler: authentication failed")
	ErrUnauthorized   = errors.New("oekoboiler: unauthorized (invalid or expired token)")
	ErrEmptyEmail     = errors.New("oekoboiler: email cannot be empty")
	ErrEmptyPassword  = errors.New("oekoboiler: password cannot be empty")

	// Transport errors
	ErrNetwork = errors.New("oekoboiler: network failure")

	// Resource errors
	ErrNotFound         = errors.New("oekoboiler: resource not found")
	ErrPropertyNotFound = errors.New("oekoboiler: property not found on device")

	// Rate limiting
	ErrRateLimited = errors.New("oekoboiler: rate limited (too many requests)")

	// Validation errors
	ErrEmptyDSN = errors.New("oekoboiler: device DSN cannot be empty")
)

// APIError represents an error response from the Ayla device service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("oekoboiler: API error %d: %s", e.StatusCode, e.Message)
}

// AuthError is returned when signing in or refreshing the access token fails.
// Op is either "sign_in" or "refresh". StatusCode is zero when the platform
// was never reached.
type AuthError struct {
	Op         string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oekoboiler: %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("oekoboiler: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match ErrAuthentication.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// rejected reports whether the platform refused the presented credentials,
// as opposed to a transport or server-side failure.
func (e *AuthError) rejected() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NetworkError wraps a transport failure (DNS, connection, timeout).
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("oekoboiler: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// IsAuthenticationError returns true if signing in or refreshing the token failed.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsNetworkError returns true if the error was caused by a transport failure.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsUnauthorized returns true if the device service rejected the access token.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsNotFound returns true if the error indicates the resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
