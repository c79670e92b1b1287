// Package errs classifies the errors the bot runtime surfaces to callers.
//
// Every error carries a Kind so callers can decide what to do with it:
// Params errors are configuration mistakes caught at build time, Field errors
// drop a single malformed frame, State errors mean an operation ran at the
// wrong time, Timeout errors come from awaited replies, and Transport errors
// trigger a reconnect.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the classification of an Error.
type Kind int

const (
	// KindParams is invalid build-time configuration.
	KindParams Kind = iota + 1
	// KindField is a malformed or missing field while decoding a frame.
	KindField
	// KindState is an operation attempted in the wrong state, or a call the
	// server answered with a non-zero status.
	KindState
	// KindTimeout is an awaited response that exceeded its deadline.
	KindTimeout
	// KindTransport is a socket or protocol failure.
	KindTransport
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindParams:
		return "params"
	case KindField:
		return "field"
	case KindState:
		return "state"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	// Op names the operation that failed ("compile", "send", "decode", ...).
	Op  string
	Msg string
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s error: %s: %s", e.Kind, e.Op, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Params returns a KindParams error.
func Params(op, format string, args ...any) error {
	return newf(KindParams, op, format, args...)
}

// Field returns a KindField error.
func Field(op, format string, args ...any) error {
	return newf(KindField, op, format, args...)
}

// State returns a KindState error.
func State(op, format string, args ...any) error {
	return newf(KindState, op, format, args...)
}

// Timeout returns a KindTimeout error.
func Timeout(op, format string, args ...any) error {
	return newf(KindTimeout, op, format, args...)
}

// Transport wraps err as a KindTransport error.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Wrap classifies err under kind. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of the first classified error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsParams reports whether err is a KindParams error.
func IsParams(err error) bool { return KindOf(err) == KindParams }

// IsField reports whether err is a KindField error.
func IsField(err error) bool { return KindOf(err) == KindField }

// IsState reports whether err is a KindState error.
func IsState(err error) bool { return KindOf(err) == KindState }

// IsTimeout reports whether err is a KindTimeout error.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsTransport reports whether err is a KindTransport error.
func IsTransport(err error) bool { return KindOf(err) == KindTransport }
