// Package apperror defines the error taxonomy surfaced by the session and
// booking core. Every error carries a message that can be shown to a user
// as-is.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// Validation rejects malformed input before any request is issued.
	Validation Kind = "validation"
	// Timeout means the call was aborted after the configured duration.
	Timeout Kind = "timeout"
	// Network is a transport failure (DNS, refused or reset connection).
	Network Kind = "network"
	// Remote means the server answered but reported failure.
	Remote Kind = "remote"
	// StaleSession means a stored token was rejected by the server.
	StaleSession Kind = "stale_session"
)

// Error is the normalized error type of the core.
type Error struct {
	Kind    Kind
	Code    string // structured server code, when the server sent one
	Status  int    // HTTP status for Remote errors
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err (or any wrapped error) is an *Error of kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the structured server code carried by err, or "".
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf returns the display message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Rewrap keeps kind, code and status of err but replaces its display
// message. Errors outside the taxonomy become Remote.
func Rewrap(err error, message string) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{Kind: appErr.Kind, Code: appErr.Code, Status: appErr.Status, Message: message, Err: err}
	}
	return &Error{Kind: Remote, Message: message, Err: err}
}
