// Package apperr defines the error kinds surfaced at operation boundaries.
//
// Every failure the core can report carries a stable Kind so that callers
// (HTTP handlers, retry wrappers) can branch on it with errors.Is without
// parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidState        Kind = "INVALID_STATE"
	KindInsufficientFunds   Kind = "INSUFFICIENT_FUNDS"
	KindCapacityExceeded    Kind = "CAPACITY_EXCEEDED"
	KindTransactionConflict Kind = "TRANSACTION_CONFLICT"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindForbidden           Kind = "FORBIDDEN"
	KindValidation          Kind = "VALIDATION"
)

// Error is a categorised failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrConflict          = &Error{Kind: KindTransactionConflict}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrValidation        = &Error{Kind: KindValidation}
)

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error     { return newf(KindNotFound, format, args...) }
func InvalidState(format string, args ...any) error { return newf(KindInvalidState, format, args...) }
func InsufficientFunds(format string, args ...any) error {
	return newf(KindInsufficientFunds, format, args...)
}
func CapacityExceeded(format string, args ...any) error {
	return newf(KindCapacityExceeded, format, args...)
}
func Conflict(format string, args ...any) error     { return newf(KindTransactionConflict, format, args...) }
func Unauthorized(format string, args ...any) error { return newf(KindUnauthorized, format, args...) }
func Forbidden(format string, args ...any) error    { return newf(KindForbidden, format, args...) }
func Validation(format string, args ...any) error   { return newf(KindValidation, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// is not categorised.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is a transient transaction conflict.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
