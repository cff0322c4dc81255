// Package horcruxerr defines the error taxonomy shared by the scheduler,
// SMB control plane, and container façade: Validation, NotFound, Conflict,
// Internal, and Timeout. Callers use errors.As to recover the Kind instead
// of matching on message text.
package horcruxerr

import (
	"errors"
	"fmt"
)

// Kind classifies the abstract reason an operation failed.
type Kind string

const (
	Validation Kind = "validation"
	NotFound   Kind = "not_found"
	Conflict   Kind = "conflict"
	Internal   Kind = "internal"
	Timeout    Kind = "timeout"
)

// Error wraps an underlying cause with a Kind and a message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, horcruxerr.ConflictErr("")) matches any Conflict error;
// callers can also use errors.As and compare .Kind, or the KindOf/Is
// helpers below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an existing error with a Kind, preserving it as Cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func ValidationErr(format string, args ...any) *Error { return newf(Validation, format, args...) }
func NotFoundErr(format string, args ...any) *Error    { return newf(NotFound, format, args...) }
func ConflictErr(format string, args ...any) *Error    { return newf(Conflict, format, args...) }
func InternalErr(format string, args ...any) *Error    { return newf(Internal, format, args...) }
func TimeoutErr(format string, args ...any) *Error     { return newf(Timeout, format, args...) }

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise — useful for callers that only care whether a failure is e.g.
// Internal (and should surface captured stderr) vs. Validation.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
