// Package errs defines the failure kinds surfaced to API callers.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or missing input, including invalid references.
	ErrValidation = errors.New("validation failed")
	// ErrAccessDenied indicates the caller's role or ownership does not permit the operation.
	ErrAccessDenied = errors.New("access denied")
	// ErrConflict indicates a uniqueness violation or a delete blocked by dependents.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a caller-facing message and, for validation failures, the
// offending field. errors.Is(err, ErrValidation) etc. match on Kind.
type Error struct {
	Kind    error
	Message string
	Field   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Fields returns the field -> message map for validation responses.
func (e *Error) Fields() map[string]string {
	if e.Field == "" {
		return nil
	}
	return map[string]string{e.Field: e.Message}
}

func newError(kind error, field, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Validation(field, format string, args ...interface{}) *Error {
	return newError(ErrValidation, field, format, args...)
}

func AccessDenied(format string, args ...interface{}) *Error {
	return newError(ErrAccessDenied, "", format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, "", format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, "", format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newError(ErrUnauthorized, "", format, args...)
}

// KindOf returns the sentinel err wraps, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrAccessDenied, ErrConflict, ErrNotFound, ErrUnauthorized} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
