// Package errors provides a structured error type with a stable code, wrapping and metadata
package errors

// Import as perr

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode classifies failures for the batch pipeline; values are stable
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeInvalidArgument is for malformed inputs (artifacts, ranges, table names)
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for model inputs that fail validation (missing values, unresolvable columns)
	ErrorCodeValidation

	// ErrorCodeMissingIdentifier is for artifacts without a district identifier; these are skipped
	ErrorCodeMissingIdentifier

	// ErrorCodeNotFound is for missing rows or files
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeUnavailable is for dependencies that are not reachable right now
	ErrorCodeUnavailable

	// ErrorCodeDB is for general warehouse errors
	ErrorCodeDB

	// ErrorCodeModel is for failures raised by a forecaster while predicting
	ErrorCodeModel
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:           "unknown",
	ErrorCodeInvalidArgument:   "invalid_argument",
	ErrorCodeValidation:        "validation",
	ErrorCodeMissingIdentifier: "missing_identifier",
	ErrorCodeNotFound:          "not_found",
	ErrorCodeDuplicateKey:      "duplicate_key",
	ErrorCodeUnavailable:       "unavailable",
	ErrorCodeDB:                "db",
	ErrorCodeModel:             "model",
}

// String returns a short label suitable for log fields and metric labels
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown"
}

// ErrNotFound is a sentinel not found error
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a machine code, a developer message, an optional field and op, and the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if any
func (e *Error) Op() string { return e.op }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// As returns (*Error, true) when err or something it wraps is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf extracts the outermost ErrorCode, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// Skippable reports whether the failing unit of work may be skipped while the run continues
func Skippable(err error) bool { return IsCode(err, ErrorCodeMissingIdentifier) }

// WithField attaches a field (copy-on-write); foreign errors are returned unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label (copy-on-write); foreign errors are returned unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New returns an *Error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with code and a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns an *Error wrapping orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns an *Error wrapping orig with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// MissingIdentifierf returns a missing identifier error
func MissingIdentifierf(format string, a ...any) error {
	return Newf(ErrorCodeMissingIdentifier, format, a...)
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// DBf returns a general warehouse error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }
