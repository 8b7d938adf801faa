// Package apperr defines the error taxonomy shared by the adjudication core.
// Services return these; HTTP handlers map Kind to a status code and surface
// the message verbatim in the JSON error field.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and transport mapping.
type Kind string

const (
	// KindValidation is malformed or rule-violating input, caught before any mutation.
	KindValidation Kind = "validation"
	// KindAuthorization is a role/permission mismatch for the requested operation.
	KindAuthorization Kind = "authorization"
	// KindAuthentication is an expired or invalid credential; handled centrally by the session manager.
	KindAuthentication Kind = "authentication"
	// KindState is an illegal transition, e.g. re-processing a non-pending claim.
	KindState Kind = "state"
	// KindNotFound is a missing referenced policy, claim, or user.
	KindNotFound Kind = "not_found"
	// KindDependency is an external collaborator failure; the triggering write must not commit.
	KindDependency Kind = "dependency"
)

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Authorization returns an authorization error with a formatted message.
func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// Authentication returns an authentication error with a formatted message.
func Authentication(format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Msg: fmt.Sprintf(format, args...)}
}

// State returns a state error with a formatted message.
func State(format string, args ...any) *Error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with a formatted message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Dependency returns a dependency error wrapping the collaborator failure.
func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps err to an HTTP status code. Unclassified errors are 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindState:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
