package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can map it to a response or
// retry decision without parsing messages.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindInvalidState Kind = "invalid_state"
	KindLimitReached Kind = "limit_reached"
	KindUnavailable  Kind = "unavailable"
)

// Error is a kinded domain error. The message carries enough detail for the
// caller to correct input (which invariant failed, current vs requested).
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}

	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, msg: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, msg: fmt.Sprintf(format, args...)}
}

func LimitReachedf(format string, args ...any) error {
	return &Error{Kind: KindLimitReached, msg: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a storage or transport failure. Safe to retry with
// backoff at the caller's discretion; the engine performs no internal
// retries.
func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, msg: op, err: err}
}

// KindOf returns the kind of err, or "" when err carries no domain kind.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	return ""
}

// IsKind reports whether err carries the given domain kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
