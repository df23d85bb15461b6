package model

import (
	"errors"
	"fmt"
)

// Error is a structured parse error carrying a taxonomy code, a
// human-readable message, an optional wrapped underlying error, and the
// byte offset in the input stream where the failure was detected. Offset
// is -1 when the error has no associated stream position (e.g. a
// resolver error over already-parsed tables, long after any reader was
// involved).
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped underlying error (may be nil)
	Offset  int64
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("[%s] %s (at byte %d)", e.Code.String(), e.Message, e.Offset)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the wrapped error for use with errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches target. Two *Error values match
// when their Codes are equal.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a new *Error with the given code and message.
func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Offset: -1}
}

// Errorf creates a new *Error with the given code and a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// Wrap creates a new *Error with the given code that wraps cause.
func Wrap(code ErrorCode, cause error, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: cause, Offset: -1}
}

// AtOffset returns a copy of e with its stream offset set. Reader-facing
// call sites attach the position at which a read failed so that a
// truncated or misaligned file's error message points at a byte, not
// just a stage name.
func (e *Error) AtOffset(pos int64) *Error {
	cp := *e
	cp.Offset = pos
	return &cp
}

// CodeOf returns the ErrorCode carried by err, or 0 if err is nil or not an
// *Error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
