package bridge

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

// DebugFunc is the host's debug sink. Each call receives one
// NUL-terminated UTF-8 line. It has no return value and must not fail.
type DebugFunc func(line []byte)

// NewDebugHandler returns a text slog.Handler that sends each record to fn
// as a single NUL-terminated line. A nil fn drops all records.
func NewDebugHandler(fn DebugFunc, opts *slog.HandlerOptions) slog.Handler {
	if fn == nil {
		fn = func([]byte) {}
	}
	return slog.NewTextHandler(debugWriter{fn: fn}, opts)
}

// debugWriter relies on slog's text handler issuing exactly one Write per
// record, each ending in a newline.
type debugWriter struct {
	fn DebugFunc
}

func (w debugWriter) Write(p []byte) (int, error) {
	w.fn(Frame(bytes.TrimSuffix(p, []byte{'\n'})))
	return len(p), nil
}

// Dbg logs "[file:line] expr = value" at debug level on logger and returns
// v unchanged, so it can wrap any expression in place:
//
//	n := bridge.Dbg(logger, "len(rows)", len(rows))
//
// A nil logger uses slog.Default.
func Dbg[T any](logger *slog.Logger, expr string, v T) T {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return v
	}
	file, line := "???", 0
	if _, f, l, ok := runtime.Caller(1); ok {
		file, line = filepath.Base(f), l
	}
	logger.Log(ctx, slog.LevelDebug, fmt.Sprintf("[%s:%d] %s = %#v", file, line, expr, v))
	return v
}
