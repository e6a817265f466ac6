// Package apperr defines the error taxonomy exposed at the API boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error classification.
type Kind string

const (
	// KindInvalidInput marks client-supplied data that failed validation.
	KindInvalidInput Kind = "invalid_input"
	// KindUnknownSession marks a reference to a session that no longer exists.
	KindUnknownSession Kind = "unknown_session"
	// KindUpstreamUnavailable marks total provider exhaustion; safe to retry.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindAuthFailure marks a failed webhook signature check.
	KindAuthFailure Kind = "auth_failure"
	// KindConflict marks a mutation targeting a missing or duplicate resource.
	KindConflict Kind = "conflict"
	// KindUnavailable marks an unreachable external collaborator.
	KindUnavailable Kind = "unavailable"
	// KindInternal is the fallback for unclassified failures.
	KindInternal Kind = "internal"
)

// Error carries a kind and a caller-safe message alongside the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindInternal if it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message for err. Unclassified errors get a
// generic message so internal detail never reaches the client.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
