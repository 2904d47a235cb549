package ledger

import (
	"errors"
	"fmt"
)

// Class buckets a rejection so callers can branch (and the HTTP layer
// can pick a status) without parsing the message.
type Class int

const (
	ClassInternal Class = iota
	ClassValidation
	ClassConflict
	ClassNotFound
	ClassForbidden
)

type Error struct {
	Class  Class
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func Validationf(format string, args ...any) *Error {
	return &Error{Class: ClassValidation, Reason: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Class: ClassConflict, Reason: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Class: ClassNotFound, Reason: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Class: ClassForbidden, Reason: fmt.Sprintf(format, args...)}
}

func internalf(format string, args ...any) *Error {
	return &Error{Class: ClassInternal, Reason: fmt.Sprintf(format, args...)}
}

// ClassOf extracts the class of a ledger error; anything else
// (persistence failure, panic) counts as internal.
func ClassOf(err error) Class {
	var le *Error
	if errors.As(err, &le) {
		return le.Class
	}
	return ClassInternal
}
