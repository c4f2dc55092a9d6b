// Package errs provides application error kinds on top of cockroachdb/errors.
// Handlers map a kind to an HTTP status via response.Error.
package errs

import (
	cr "github.com/cockroachdb/errors"
)

// Kind markers. Mark an error with one of these and KindOf will find it
// through any amount of wrapping.
var (
	NotFound     = cr.New("not found")
	Validation   = cr.New("validation failed")
	Unauthorized = cr.New("unauthorized")
	Forbidden    = cr.New("forbidden")
	Conflict     = cr.New("conflict")
	Upstream     = cr.New("upstream failure")
)

var kinds = []error{NotFound, Validation, Unauthorized, Forbidden, Conflict, Upstream}

// New returns a plain error with a stack trace.
func New(msg string) error {
	return cr.New(msg)
}

// Newf is New with formatting.
func Newf(format string, args ...interface{}) error {
	return cr.Newf(format, args...)
}

// Wrap annotates err with msg. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return cr.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return cr.As(err, target)
}

// Mark tags err with kind while keeping its message.
func Mark(err error, kind error) error {
	if err == nil {
		return nil
	}
	return cr.Mark(err, kind)
}

// WithKind creates a new error with msg and tags it with kind.
func WithKind(kind error, msg string) error {
	return cr.Mark(cr.New(msg), kind)
}

// NotFoundf is WithKind(NotFound, ...) with formatting.
func NotFoundf(format string, args ...interface{}) error {
	return cr.Mark(cr.Newf(format, args...), NotFound)
}

// Invalidf is WithKind(Validation, ...) with formatting.
func Invalidf(format string, args ...interface{}) error {
	return cr.Mark(cr.Newf(format, args...), Validation)
}

// KindOf returns the kind marker carried by err, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if cr.Is(err, k) {
			return k
		}
	}
	return nil
}
