// Package host is a reference host executor backed by SQLite.
//
// An [Executor] sits on the far side of the bridge boundary. For every call it
//   - decodes the NUL-terminated request envelope
//   - compiles the request to parameterized SQLite SQL
//   - runs the SQL against its database
//   - answers with a framed {ok, msg, data} envelope
//
// exec answers {"rows_affected": n}. query answers a JSON array with one
// object per row, keys in column order. Every failure, including a request
// that does not decode, is reported as ok=false; the Go error return of the
// Host methods is reserved for the exchange itself and is always nil here.
//
// # Dialect
//
// querysql's text inlines literals with backslash escapes and renders Between
// as a parenthesized pair. SQLite accepts neither, so the executor compiles
// the decoded request itself: every value is a bound parameter, Between
// becomes "col BETWEEN ? AND ?", an Array value becomes a row value of
// placeholders and an Object is bound as JSON text. Columns, tables and Like
// patterns stay verbatim. The querysql text is only logged. An empty And
// compiles to 1 = 1 and an empty Or to 1 = 0.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package host
