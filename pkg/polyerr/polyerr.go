// Package polyerr defines the client-side error taxonomy. Every error in this
// package is raised locally, before a transaction is dispatched.
package polyerr

import (
	"fmt"

	"emperror.dev/errors"
)

// Kind is the machine-checkable category of a local validation failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindAlreadyExists
	KindMismatchedArrayLength
	KindInvalidData
	KindPreconditionRequired
)

// Sentinels, one per kind, for use with errors.Is.
const (
	ErrUnauthorized          = errors.Sentinel("unauthorized")
	ErrNotFound              = errors.Sentinel("not found")
	ErrAlreadyExists         = errors.Sentinel("already exists")
	ErrMismatchedArrayLength = errors.Sentinel("mismatched array length")
	ErrInvalidData           = errors.Sentinel("invalid data")
	ErrPreconditionRequired  = errors.Sentinel("precondition required")
)

var sentinels = map[Kind]errors.Sentinel{
	KindUnauthorized:          ErrUnauthorized,
	KindNotFound:              ErrNotFound,
	KindAlreadyExists:         ErrAlreadyExists,
	KindMismatchedArrayLength: ErrMismatchedArrayLength,
	KindInvalidData:           ErrInvalidData,
	KindPreconditionRequired:  ErrPreconditionRequired,
}

func (k Kind) String() string {
	if s, ok := sentinels[k]; ok {
		return string(s)
	}
	return "unknown"
}

// Error is a local validation failure. Field and Value name the offending
// input so callers can report it without parsing the message.
type Error struct {
	Kind    Kind
	Field   string
	Value   any
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		if e.Value != nil {
			msg += fmt.Sprintf(": %s %v", e.Field, e.Value)
		} else {
			msg += ": " + e.Field
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := target.(errors.Sentinel)
	if !ok {
		return false
	}
	return sentinels[e.Kind] == s
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, field string, value any, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds an Error that also unwraps to cause.
func Wrap(cause error, kind Kind, field string, value any, format string, args ...any) *Error {
	e := New(kind, field, value, format, args...)
	e.Cause = cause
	return e
}

func Unauthorized(field string, value any, format string, args ...any) *Error {
	return New(KindUnauthorized, field, value, format, args...)
}

func NotFound(field string, value any, format string, args ...any) *Error {
	return New(KindNotFound, field, value, format, args...)
}

func AlreadyExists(field string, value any, format string, args ...any) *Error {
	return New(KindAlreadyExists, field, value, format, args...)
}

func InvalidData(field string, value any, format string, args ...any) *Error {
	return New(KindInvalidData, field, value, format, args...)
}

func PreconditionRequired(field string, value any, format string, args ...any) *Error {
	return New(KindPreconditionRequired, field, value, format, args...)
}

// MismatchedArrayLength reports parallel slices whose lengths disagree.
func MismatchedArrayLength(field string, want, got int) *Error {
	return New(KindMismatchedArrayLength, field, got, "expected length %d", want)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CheckLengths returns MismatchedArrayLength when any of lengths differs from
// the first. Names label the slices in the same order.
func CheckLengths(names []string, lengths ...int) error {
	if len(lengths) == 0 {
		return nil
	}
	for i := 1; i < len(lengths); i++ {
		if lengths[i] != lengths[0] {
			name := fmt.Sprintf("slice %d", i)
			if i < len(names) {
				name = names[i]
			}
			return MismatchedArrayLength(name, lengths[0], lengths[i])
		}
	}
	return nil
}

// AtIndex qualifies the field of a *Error with a slice index, so a failure
// inside a batch names the element that caused it. Other errors pass through.
func AtIndex(err error, i int) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Field = fmt.Sprintf("%s[%d]", e.Field, i)
	return &cp
}
