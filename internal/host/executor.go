package host

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/riwaq/riwaq-go/bridge"
	"github.com/riwaq/riwaq-go/queryir"
	"github.com/riwaq/riwaq-go/querysql"
)

// Executor answers bridge calls against a SQLite database.
type Executor struct {
	db       *sql.DB
	renderer querysql.Renderer
	logger   *slog.Logger
}

var _ bridge.Host = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithRenderer sets the renderer whose text is logged for each call. Its
// StrictNotIn setting also decides how Nin compiles.
func WithRenderer(r querysql.Renderer) Option {
	return func(e *Executor) {
		e.renderer = r
	}
}

// WithLogger sets the executor's logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Open creates or opens a SQLite database at the given path and applies
// the required pragmas. ":memory:" opens a private in-memory database.
func Open(path string, opts ...Option) (*Executor, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps an in-memory database alive and shared across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	e := &Executor{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close closes the database connection.
func (e *Executor) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Raw runs SQL text directly, bypassing the request envelope. It is meant
// for setup such as CREATE TABLE and fixture inserts and may contain
// several statements.
func (e *Executor) Raw(ctx context.Context, sqlText string) error {
	if _, err := e.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("raw sql: %w", err)
	}
	return nil
}

// Exec implements bridge.Host. It runs the statement and answers with the
// number of affected rows.
func (e *Executor) Exec(ctx context.Context, payload []byte) ([]byte, error) {
	sqlText, args, err := e.compile(payload)
	if err != nil {
		return bridge.Failure(err.Error()), nil
	}

	res, err := e.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		e.logger.Debug("exec failed", "sql", sqlText, "error", err)
		return bridge.Failure(err.Error()), nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return bridge.Failure(err.Error()), nil
	}

	e.logger.Debug("exec", "sql", sqlText, "rows_affected", n)
	return e.success(map[string]int64{"rows_affected": n})
}

// Query implements bridge.Host. It runs the statement and answers with its
// rows.
func (e *Executor) Query(ctx context.Context, payload []byte) ([]byte, error) {
	sqlText, args, err := e.compile(payload)
	if err != nil {
		return bridge.Failure(err.Error()), nil
	}

	rows, err := e.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		e.logger.Debug("query failed", "sql", sqlText, "error", err)
		return bridge.Failure(err.Error()), nil
	}
	defer rows.Close()

	data, count, err := scanRows(rows)
	if err != nil {
		return bridge.Failure(err.Error()), nil
	}

	e.logger.Debug("query", "sql", sqlText, "rows", count)
	return e.success(data)
}

// compile decodes a framed request and compiles it to parameterized SQL.
func (e *Executor) compile(payload []byte) (string, []any, error) {
	req, err := queryir.UnmarshalRequest(bridge.Unframe(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode request: %w", err)
	}
	e.logger.Debug("request", "rendered", e.renderer.Render(req))

	sqlText, args, err := compiler{strictNotIn: e.renderer.StrictNotIn}.compile(req)
	if err != nil {
		return "", nil, fmt.Errorf("compile request: %w", err)
	}
	return sqlText, args, nil
}

func (e *Executor) success(data any) ([]byte, error) {
	out, err := bridge.Success(data)
	if err != nil {
		return bridge.Failure(err.Error()), nil
	}
	return out, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
