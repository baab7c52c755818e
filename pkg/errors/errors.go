// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to wrap errors without resorting
// to fmt.Errorf("%w", err).
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// Wrapping never mutates the receiver: it returns a derived error which still
// matches the original sentinel with Is.
type Error struct {
	msg      string
	detail   string
	err      error
	sentinel *Error
}

// Error message
func (e *Error) Error() string {
	msg := e.msg
	if e.detail != "" {
		msg += ": " + e.detail
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:      e.msg,
		detail:   e.detail,
		err:      err,
		sentinel: e.root(),
	}
}

// WrapMessage adds some context to the error message
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return &Error{
		msg:      e.msg,
		detail:   fmt.Sprintf(format, args...),
		err:      e.err,
		sentinel: e.root(),
	}
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.sentinel != nil {
		return e.sentinel
	}
	return e
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.As)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
