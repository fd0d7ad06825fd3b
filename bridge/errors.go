package bridge

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes bridge failures.
type ErrorCode string

const (
	// ErrCodeHost indicates the host ran the call and reported ok=false.
	ErrCodeHost ErrorCode = "HOST_ERROR"

	// ErrCodeDecode indicates the host response was not a valid envelope.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"

	// ErrCodeEncode indicates the request could not be serialized.
	ErrCodeEncode ErrorCode = "ENCODE_ERROR"

	// ErrCodeTransport indicates the host call itself failed.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// ErrCodeClosed indicates the client was closed.
	ErrCodeClosed ErrorCode = "CLOSED"

	// ErrCodeCancelled indicates the context was done before submission.
	ErrCodeCancelled ErrorCode = "CANCELLED"

	// ErrCodeOverloaded indicates a non-blocking client had no free worker.
	ErrCodeOverloaded ErrorCode = "OVERLOADED"
)

// Error is returned by every failing bridge call.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is the host's message for HOST_ERROR, otherwise a short
	// description.
	Message string

	// Op is the boundary operation ("exec" or "query").
	Op Op

	// RequestID correlates the failure with the call's log lines.
	RequestID string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s (op=%s)", msg, e.Op)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsHostError reports whether err is a host-reported failure.
func IsHostError(err error) bool {
	return hasCode(err, ErrCodeHost)
}

// IsDecodeError reports whether err is a malformed host response.
func IsDecodeError(err error) bool {
	return hasCode(err, ErrCodeDecode)
}

// IsTransportError reports whether the host call itself failed.
func IsTransportError(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsClosedError reports whether the call was refused by a closed client.
func IsClosedError(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

// IsCancelledError reports whether the call's context ended before the call
// was submitted.
func IsCancelledError(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsOverloadedError reports whether Go was refused for lack of a free worker.
func IsOverloadedError(err error) bool {
	return hasCode(err, ErrCodeOverloaded)
}

func hasCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
