package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Run-level failures. Only these abort a harvest.
var (
	ErrDiscoveryTimeout = errors.New("discovery timed out waiting for post links")
	ErrNoCredentials    = errors.New("session bridge returned no credentials")
	ErrLoginTimeout     = errors.New("timed out waiting for manual login")
)

// Error is one failed attempt against a remote endpoint
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// FetchError is returned once a fetch has used up its attempt budget
type FetchError struct {
	Op       string
	Key      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %q failed after %d attempts: %v", e.Op, e.Key, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// FromStatus classifies a non-2xx HTTP status
func FromStatus(statusCode int) *Error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &Error{Type: ErrorTypeAuth, Message: "authentication required", Code: statusCode}
	case statusCode == http.StatusNotFound:
		return &Error{Type: ErrorTypeNotFound, Message: "resource not found", Code: statusCode}
	case statusCode == http.StatusTooManyRequests:
		return &Error{Type: ErrorTypeRateLimit, Message: "rate limit exceeded", Code: statusCode}
	case statusCode >= 500:
		return &Error{Type: ErrorTypeServerError, Message: "server error", Code: statusCode}
	default:
		return &Error{Type: ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status code: %d", statusCode), Code: statusCode}
	}
}

// TypeOf returns the ErrorType carried anywhere in err's chain
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether err must abort the whole run
func IsFatal(err error) bool {
	return errors.Is(err, ErrDiscoveryTimeout) ||
		errors.Is(err, ErrNoCredentials) ||
		errors.Is(err, ErrLoginTimeout)
}
