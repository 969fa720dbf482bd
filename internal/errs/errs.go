// Package errs defines the single application error type used across layers.
//
// Every failure that crosses a package boundary is either an *Error carrying
// a Kind, or a plain error that the HTTP boundary treats as KindInternal.
// Handlers map kinds to HTTP statuses in one place (see Kind.Status), so
// services and repositories never talk about status codes.
//
// Example:
//
//	if req.FullName == "" {
//	    return nil, errs.Validation("fullName is required")
//	}
//	...
//	var e *errs.Error
//	if errors.As(err, &e) && e.Kind == errs.KindNotFound { ... }
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	// KindInternal is any failure not otherwise classified: store errors,
	// exhausted retries, unset kinds.
	KindInternal Kind = iota
	// KindConfiguration reports missing or invalid process configuration.
	KindConfiguration
	// KindValidation reports a missing or invalid input field.
	KindValidation
	// KindParse reports a request body that is not valid JSON.
	KindParse
	// KindNotFound reports that no matching record exists.
	KindNotFound
	// KindMethodNotAllowed reports an unsupported HTTP method.
	KindMethodNotAllowed
)

// String returns the stable machine-readable code for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration_error"
	case KindValidation:
		return "validation_error"
	case KindParse:
		return "parse_error"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal_error"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindParse:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is the application error type.
//
// Message is safe to show to clients. Err is the optional underlying cause;
// for KindInternal its text is part of Error() so that the 500 body carries
// a human-readable description of what failed.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind and message.
// This lets package-level sentinels (e.g. services.ErrProfileNotFound) be
// matched with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an *Error of the given kind with cause err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Configuration reports a configuration error.
func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, fmt.Sprintf(format, args...))
}

// Validation reports a validation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Parse reports a request body decoding error.
func Parse(msg string, err error) *Error {
	return Wrap(KindParse, msg, err)
}

// NotFound reports a missing record.
func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

// MethodNotAllowed reports an unsupported method.
func MethodNotAllowed(method string) *Error {
	return New(KindMethodNotAllowed, fmt.Sprintf("method %s is not supported", method))
}

// Internal wraps err as an internal error.
func Internal(err error) *Error {
	return Wrap(KindInternal, "internal server error", err)
}

// KindOf returns the kind of err. Errors that are not (and do not wrap) an
// *Error are KindInternal; nil has no kind and also reports KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From converts any error into an *Error. Unclassified errors become
// KindInternal with the original error as cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
