// Package errors wraps pkg/errors and adds the error kinds the database layer
// reports. Callers match a kind with Is(err, code) regardless of how many
// times the error was wrapped on the way up.
package errors

import (
	"github.com/pkg/errors"
)

// Code identifies an error kind.
type Code string

const (
	// ErrConstraintViolation is a malformed identifier rejected before it was
	// written. Recoverable: the write did not happen.
	ErrConstraintViolation Code = "ConstraintViolation"

	// ErrSchemaVersionMismatch means the stored schema version differs from
	// the compiled-in one. Fatal at startup.
	ErrSchemaVersionMismatch Code = "SchemaVersionMismatch"

	// ErrSessionState is a query issued outside a live session. It is a
	// programming error and must not be retried.
	ErrSessionState Code = "SessionStateError"

	// ErrConnectionPoolExhausted is a transient failure to obtain or keep a
	// connection. Callers may back off and retry.
	ErrConnectionPoolExhausted Code = "ConnectionPoolExhausted"
)

// New returns an error of the given kind carrying a stack trace.
func New(code Code, message string) error {
	return errors.WithStack(codedError{
		Code:    code,
		Message: message,
	})
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...interface{}) error {
	return New(code, errors.Errorf(format, args...).Error())
}

// Mark attaches code to an existing error, keeping err as the cause.
func Mark(err error, code Code) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(codedError{
		Code:    code,
		Message: err.Error(),
		cause:   err,
	})
}

// Is reports whether err, or anything it wraps, has the given code.
func Is(err error, target Code) bool {
	return errors.Is(err, codedError{Code: target})
}

// CodeOf returns the code of the outermost coded error in err's chain, or ""
// if there is none.
func CodeOf(err error) Code {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// codedError is the value every error kind of this package is built from.
type codedError struct {
	Code    Code
	Message string
	cause   error
}

func (ce codedError) Error() string {
	return ce.Message
}

func (ce codedError) Is(err error) bool {
	if e, ok := err.(codedError); ok && ce.Code == e.Code {
		return true
	}
	return false
}

func (ce codedError) Unwrap() error {
	return ce.cause
}
