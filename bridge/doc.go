// Package bridge carries rendered requests across the host boundary.
//
// A guest never talks to a database directly. It serializes a
// [queryir.Request] to its JSON envelope, hands the NUL-terminated bytes to a
// [Host], and decodes the host's answer:
//
//	{"ok": true,  "data": <any JSON>}
//	{"ok": false, "msg":  "<reason>"}
//
// [Client] wraps that exchange. Exec and Query run synchronously on the
// caller's goroutine; Go dispatches a call as an independent unit of work on
// a bounded worker pool and delivers the outcome on a channel. Calls share no
// mutable state and complete in no particular order.
//
// Every failure is returned as an [*Error]. A host-reported failure carries
// the host's message with code HOST_ERROR; a malformed response is a
// DECODE_ERROR and never aborts the process.
//
// The package also provides the guest debug channel: [NewDebugHandler] adapts
// a host debug sink to an slog.Handler, and [Dbg] logs an expression with its
// call site and hands the value back.
package bridge
