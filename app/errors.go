package app

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidState
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindInvalidState:
		return "invalid state"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// Error is returned by every lifecycle and authorization operation. Message
// is safe to show to clients; Err is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// IsAuth covers both missing identity and insufficient rights.
func IsAuth(err error) bool {
	return IsKind(err, KindUnauthenticated) || IsKind(err, KindForbidden)
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func forbiddenErr(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func notFoundErr(id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("post %s not found", id)}
}

func upstreamErr(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}
