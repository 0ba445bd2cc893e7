// Package stream provides the byte stream contract and a memory-backed
// implementation of it.
package stream

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is().
var (
	// ErrDisposed indicates an operation was attempted after Close.
	ErrDisposed = errors.New("streamio: stream is closed")

	// ErrInvalidArgument indicates a nil, negative or out-of-bounds argument.
	ErrInvalidArgument = errors.New("streamio: invalid argument")

	// ErrUnsupported indicates the operation is incompatible with the
	// stream's capabilities, such as writing to a read-only stream or
	// growing a borrowed buffer.
	ErrUnsupported = errors.New("streamio: operation not supported")

	// ErrRangeExceeded indicates a position or length is negative or beyond
	// the size ceiling.
	ErrRangeExceeded = errors.New("streamio: range exceeded")

	// ErrIO indicates a failure surfaced by an underlying backend.
	ErrIO = errors.New("streamio: i/o failure")
)

// Error provides context for a failed stream operation.
// It matches its Kind and its Cause through errors.Is().
type Error struct {
	// Op is the operation that failed, e.g. "write" or "refill".
	Op string

	// Kind is one of the package error kinds.
	Kind error

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a formatted error message.
func (e *Error) Error() string {
	kind := "streamio: error"
	if e.Kind != nil {
		kind = e.Kind.Error()
	}
	msg := kind
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, kind)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
// Both the kind and the cause chain are checked.
func (e *Error) Is(target error) bool {
	if e.Kind != nil && e.Kind == target {
		return true
	}
	if e.Cause != nil && errors.Is(e.Cause, target) {
		return true
	}
	return false
}

// NewError creates a new Error.
func NewError(op string, kind error, message string) *Error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapIO wraps a backend failure as an ErrIO error for operation op.
// If err is nil, nil is returned.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:    op,
		Kind:  ErrIO,
		Cause: err,
	}
}

func disposed(op string) error {
	return &Error{Op: op, Kind: ErrDisposed}
}

func invalidArgument(op, message string) error {
	return &Error{Op: op, Kind: ErrInvalidArgument, Message: message}
}

func unsupported(op, message string) error {
	return &Error{Op: op, Kind: ErrUnsupported, Message: message}
}

func rangeExceeded(op, message string) error {
	return &Error{Op: op, Kind: ErrRangeExceeded, Message: message}
}

// IsDisposed returns true if the error indicates use after Close.
func IsDisposed(err error) bool {
	return errors.Is(err, ErrDisposed)
}

// IsUnsupported returns true if the error indicates a capability violation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsRangeExceeded returns true if the error indicates the size ceiling was
// exceeded or a negative position or length was requested.
func IsRangeExceeded(err error) bool {
	return errors.Is(err, ErrRangeExceeded)
}

// IsRetryable returns true if the error might succeed on retry.
// No stream errors are retried automatically; only backend failures may
// succeed when the caller retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsFatal returns true if the error indicates a programming error
// that should not occur in correct code.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrDisposed),
		errors.Is(err, ErrInvalidArgument):
		return true
	default:
		return false
	}
}
