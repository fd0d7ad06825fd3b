// Package harness runs request scenarios end to end.
//
// A scenario is a YAML file describing a small database and a sequence of
// requests to run against it:
//
//	name: users_lifecycle
//	description: Query active users, then promote one
//	setup:
//	  - CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, status TEXT)
//	steps:
//	  - query:
//	      op: Select
//	      tbl: users
//	      cols: [id, name]
//	      filter: {Filter: {Eq: {col: status, value: active}}}
//	    expect:
//	      sql: "SELECT id, name FROM users WHERE status = 'active';"
//	      rows: []
//	assertions:
//	  - type: row_count
//	    table: users
//	    count: 0
//
// Each scenario runs in a fresh in-memory SQLite host. Requests travel the
// same path a guest uses: they are serialized, framed, sent through a
// bridge.Client, rendered and executed by the host, and the envelope is
// decoded on the way back. Every call is recorded in the result trace.
//
// # Expectations
//
// A step without an expect clause must succeed. With one, the step may pin
// the rendered SQL, the success flag, a host error substring, the returned
// rows (compared as canonical JSON) or the exec row count.
//
// # Assertions
//
// After the steps run, assertions inspect the trace and the database:
//   - final_state: exactly one row matches where; expect is a subset match
//   - row_count: the number of rows matching where
//   - trace_contains: some rendered statement contains a substring
//   - trace_count: the number of calls, optionally for one op
//
// # Golden Traces
//
// RunWithGolden serializes the trace as canonical JSON and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
