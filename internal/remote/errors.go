package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a remote API failure so callers can branch on the
// category instead of inspecting messages.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindTransient    ErrorKind = "transient"
	KindOther        ErrorKind = "other"
)

// APIError is the error type returned by every remote call that reached the
// API and got a non-success response.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote API error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote API error (%s): %s", e.Kind, e.Message)
}

// NewAPIError builds an APIError from an HTTP status code and body excerpt.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{Kind: kindForStatus(statusCode), StatusCode: statusCode, Message: message}
}

func kindForStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return KindUnauthorized
	case statusCode == http.StatusConflict:
		return KindConflict
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return KindTransient
	default:
		return KindOther
	}
}

// KindOf returns the error's classification, or KindOther for errors that did
// not originate from the remote API.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindOther
}

func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
