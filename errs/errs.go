// Package errs defines the error taxonomy shared by every layer of the
// native protocol client: wire codec, compression, type algebra, column
// and block codecs, schema bridge, and the session state machine.
//
// Each failure mode is a single sentinel [Kind] rather than a hierarchy
// of custom error types, in keeping with how the rest of this tree
// reports structural failures (a packed flag word, an invalid header
// size, a malformed frame) as one named condition apiece. Callers
// branch on [Kind] via [Is] or [KindOf], never on error string content.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the protocol state machine (package
// protocol) can decide whether a session survives it.
type Kind uint8

const (
	// KindUnknown is never returned; it is the zero value guard.
	KindUnknown Kind = iota

	// KindIO indicates the underlying stream failed. Terminal.
	KindIO
	// KindUnexpectedEOF indicates the stream ended inside a frame. Terminal.
	KindUnexpectedEOF
	// KindMalformedFrame indicates bytes parsed but violate the codec. Terminal.
	KindMalformedFrame
	// KindChecksumMismatch indicates a compression frame checksum failed. Terminal.
	KindChecksumMismatch
	// KindProtocolViolation indicates legal bytes illegal in the current phase. Terminal.
	KindProtocolViolation
	// KindServerException indicates a server-sent exception chain. Not terminal.
	KindServerException
	// KindSchemaIncompatible indicates the bridge cannot map a type. Not terminal.
	KindSchemaIncompatible
	// KindTimeout indicates a caller-imposed deadline expired. Terminal.
	KindTimeout
	// KindCanceled indicates a caller-initiated cancellation. Terminal iff drain failed.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindUnexpectedEOF:
		return "unexpected_eof"
	case KindMalformedFrame:
		return "malformed_frame"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindServerException:
		return "server_exception"
	case KindSchemaIncompatible:
		return "schema_incompatible"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether a failure of this kind forces the owning
// session into the Terminated phase. KindServerException and
// KindSchemaIncompatible are recoverable: the session returns to Idle.
// Terminal reports true for KindCanceled; whether a cancellation
// actually ends the session depends on the post-cancel drain, which
// [Canceled] (nil cause) and [CanceledDrainFailed] tell apart.
func (k Kind) Terminal() bool {
	switch k {
	case KindServerException, KindSchemaIncompatible:
		return false
	default:
		return true
	}
}

// Error is the concrete error type for every failure in this module.
// Op names the operation that failed (e.g. "wire.ReadVaruint",
// "protocol.Session.Hello") so a log line is self-describing without
// needing a stack trace.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the given kind, operation name, and
// optional wrapped cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// IO wraps a transport failure.
func IO(op string, cause error) *Error { return New(KindIO, op, cause) }

// UnexpectedEOF reports a stream that ended mid-frame.
func UnexpectedEOF(op string, cause error) *Error {
	return New(KindUnexpectedEOF, op, cause)
}

// MalformedFrame reports bytes that parsed but violate the codec.
func MalformedFrame(op string, cause error) *Error {
	return New(KindMalformedFrame, op, cause)
}

// MalformedFramef is the fmt.Errorf-style convenience form.
func MalformedFramef(op, format string, args ...any) *Error {
	return New(KindMalformedFrame, op, fmt.Errorf(format, args...))
}

// ChecksumMismatch reports a compression frame checksum failure.
func ChecksumMismatch(op string, cause error) *Error {
	return New(KindChecksumMismatch, op, cause)
}

// ProtocolViolation reports a legal byte sequence illegal in the
// session's current phase.
func ProtocolViolation(op string, cause error) *Error {
	return New(KindProtocolViolation, op, cause)
}

// ProtocolViolationf is the fmt.Errorf-style convenience form.
func ProtocolViolationf(op, format string, args ...any) *Error {
	return New(KindProtocolViolation, op, fmt.Errorf(format, args...))
}

// SchemaIncompatible reports a bridge mapping failure.
func SchemaIncompatible(op string, cause error) *Error {
	return New(KindSchemaIncompatible, op, cause)
}

// SchemaIncompatiblef is the fmt.Errorf-style convenience form.
func SchemaIncompatiblef(op, format string, args ...any) *Error {
	return New(KindSchemaIncompatible, op, fmt.Errorf(format, args...))
}

// Timeout reports a caller-imposed deadline expiry.
func Timeout(op string, cause error) *Error { return New(KindTimeout, op, cause) }

// Canceled reports a caller-initiated cancellation whose drain
// completed successfully (the owning session returns to Idle).
func Canceled(op string) *Error { return New(KindCanceled, op, nil) }

// CanceledDrainFailed reports a caller-initiated cancellation whose
// post-cancel drain itself failed, forcing the owning session to
// Terminated rather than Idle.
func CanceledDrainFailed(op string, cause error) *Error {
	return New(KindCanceled, op, cause)
}

// KindOf extracts the Kind from err, returning KindUnknown if err is
// not (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
