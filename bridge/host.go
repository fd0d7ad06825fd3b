package bridge

import (
	"bytes"
	"context"
	"errors"
)

// Host executes serialized requests on behalf of a guest.
//
// The payload is UTF-8 JSON followed by a single NUL byte. The host owns it
// for the duration of the call and must not retain it. The returned buffer
// belongs to the caller; it holds the response envelope and may carry a
// trailing NUL. A non-nil error means the exchange itself failed, not that
// the SQL failed: SQL failures are reported inside the envelope.
type Host interface {
	Exec(ctx context.Context, payload []byte) ([]byte, error)
	Query(ctx context.Context, payload []byte) ([]byte, error)
}

// HostFuncs adapts plain functions to [Host]. A nil function fails the call.
type HostFuncs struct {
	ExecFunc  func(ctx context.Context, payload []byte) ([]byte, error)
	QueryFunc func(ctx context.Context, payload []byte) ([]byte, error)
}

var errNoHostFunc = errors.New("host function not provided")

// Exec implements Host.
func (h HostFuncs) Exec(ctx context.Context, payload []byte) ([]byte, error) {
	if h.ExecFunc == nil {
		return nil, errNoHostFunc
	}
	return h.ExecFunc(ctx, payload)
}

// Query implements Host.
func (h HostFuncs) Query(ctx context.Context, payload []byte) ([]byte, error) {
	if h.QueryFunc == nil {
		return nil, errNoHostFunc
	}
	return h.QueryFunc(ctx, payload)
}

// Frame returns a copy of msg terminated by a NUL byte.
func Frame(msg []byte) []byte {
	out := make([]byte, len(msg)+1)
	copy(out, msg)
	return out
}

// Unframe strips a single trailing NUL byte, if present.
// Hosts use it on requests; the client uses it on responses.
func Unframe(buf []byte) []byte {
	return bytes.TrimSuffix(buf, []byte{0})
}
