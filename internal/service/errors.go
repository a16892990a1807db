package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.  Handlers map kinds onto HTTP status
// codes; nothing else should depend on the message text.
type Kind string

const (
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindSubscriptionRequired Kind = "subscription_required"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindConflict             Kind = "conflict"
	KindValidation           Kind = "validation"
)

// Error is the error type returned by every service operation for an
// expected rejection.  Anything else reaching a handler is an internal
// failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works whatever the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrSubscriptionRequired = &Error{Kind: KindSubscriptionRequired}
	ErrCapacityExceeded     = &Error{Kind: KindCapacityExceeded}
	ErrConflict             = &Error{Kind: KindConflict}
	ErrValidation           = &Error{Kind: KindValidation}
)

// KindOf returns the kind of err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error { return newError(KindForbidden, format, args...) }
func notFound(format string, args ...any) error  { return newError(KindNotFound, format, args...) }
func invalid(format string, args ...any) error   { return newError(KindValidation, format, args...) }
func conflict(format string, args ...any) error  { return newError(KindConflict, format, args...) }
