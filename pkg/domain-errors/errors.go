// Package domainerrors defines the coded error type shared by all services.
//
// Services return *Error values built with New or Wrap; the HTTP layer maps
// codes to statuses with ToHTTPStatus. Stores never use this package directly —
// they return sentinel errors (pkg/platform/sentinel) and services translate.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a category of domain failure. Codes are part of the API
// surface: they appear verbatim in error envelopes.
type Code string

const (
	CodeValidation      Code = "validation_error"
	CodeBadRequest      Code = "bad_request"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeInvalidState    Code = "invalid_state"
	CodeUntrustedDomain Code = "untrusted_domain"
	CodeInvalidCode     Code = "invalid_code"
	CodeUnauthorized    Code = "unauthorized"
	CodeForbidden       Code = "forbidden"
	CodeNotifyFailed    Code = "notify_failed"
	CodeInternal        Code = "internal_error"

	// CodeInvariantViolation marks constructor/transition invariant failures.
	// Services usually re-code these before they reach a caller.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error carries a code, a caller-safe message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error. The
// cause stays reachable through errors.Is/As but is never serialized.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for plain
// errors so unexpected failures never leak as anything but 500s.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
//
// Conflict and invalid-state map to 400 rather than 409: the API contract
// treats every uniqueness or workflow rejection as a plain bad request.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeConflict, CodeInvalidState,
		CodeUntrustedDomain, CodeInvalidCode, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotifyFailed, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
