// Package domainerrors provides coded errors shared across services and
// transports. Services translate store sentinels into coded errors here;
// handlers map codes onto HTTP statuses via ToHTTPStatus.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for propagation and transport mapping.
type Code string

const (
	// CodeValidation marks bad or missing caller input with field-level detail.
	CodeValidation Code = "validation"
	// CodeBadRequest marks malformed requests (undecodable bodies, bad params).
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a domain primitive that failed to parse.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a missing case, purchase, or listing.
	CodeNotFound Code = "not_found"
	// CodeConflict marks duplicate or competing state (e.g. an open case).
	CodeConflict Code = "conflict"
	// CodeForbidden marks an actor/role mismatch.
	CodeForbidden Code = "forbidden"
	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal marks unexpected failures that must not leak detail.
	CodeInternal Code = "internal"
	// CodeTimeout marks an upstream deadline hit.
	CodeTimeout Code = "timeout"
	// CodeUnavailable marks an unreachable external collaborator.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks an illegal aggregate state transition.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is the concrete coded error type. Keep construction behind New/Wrap so
// call sites stay uniform.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is is a readability alias for HasCode, matching assertion call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code onto the HTTP status handlers should return.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
