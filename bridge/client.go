package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riwaq/riwaq-go/queryir"
	"github.com/riwaq/riwaq-go/querysql"
)

// Op names a boundary operation.
type Op string

const (
	// OpExec runs a statement for its side effects.
	OpExec Op = "exec"

	// OpQuery runs a statement and returns its rows.
	OpQuery Op = "query"
)

// DefaultPoolSize bounds concurrent Go dispatches when WithPoolSize is not set.
const DefaultPoolSize = 16

// Result is the outcome of an asynchronous call.
type Result struct {
	Data json.RawMessage
	Err  error
}

// Client submits requests to a Host.
//
// A Client is safe for concurrent use. Exec and Query run on the caller's
// goroutine. Go runs on the client's worker pool.
type Client struct {
	host     Host
	logger   *slog.Logger
	renderer querysql.Renderer
	metrics  *Metrics
	ids      IDGenerator
	poolSize    int
	nonblocking bool
	pool        *ants.Pool

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPoolSize bounds the number of Go calls running at once.
func WithPoolSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithNonblocking makes Go fail with OVERLOADED instead of waiting when
// every worker is busy.
func WithNonblocking() Option {
	return func(c *Client) {
		c.nonblocking = true
	}
}

// WithMetrics records every host call on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRenderer sets the renderer used for the SQL shown in debug logs.
func WithRenderer(r querysql.Renderer) Option {
	return func(c *Client) {
		c.renderer = r
	}
}

// New creates a Client for host.
func New(host Host, opts ...Option) (*Client, error) {
	if host == nil {
		return nil, fmt.Errorf("bridge: nil host")
	}
	c := &Client{
		host:     host,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:      UUIDv7Generator{},
		poolSize: DefaultPoolSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	pool, err := ants.NewPool(c.poolSize,
		ants.WithNonblocking(c.nonblocking),
		ants.WithPanicHandler(func(v any) {
			c.logger.Error("bridge worker panic", "panic", v)
		}))
	if err != nil {
		return nil, fmt.Errorf("bridge: create pool: %w", err)
	}
	c.pool = pool
	return c, nil
}

// Exec submits req for execution and returns the host's data payload.
func (c *Client) Exec(ctx context.Context, req queryir.Request) (json.RawMessage, error) {
	return c.Call(ctx, OpExec, req)
}

// Query submits req as a query and returns the host's data payload,
// normally a JSON array of row objects.
func (c *Client) Query(ctx context.Context, req queryir.Request) (json.RawMessage, error) {
	return c.Call(ctx, OpQuery, req)
}

// Call performs one synchronous boundary call.
//
// ctx is consulted before the call starts and is then passed to the host;
// the client itself never abandons an in-flight call.
func (c *Client) Call(ctx context.Context, op Op, req queryir.Request) (json.RawMessage, error) {
	if err := c.admit(ctx, op); err != nil {
		return nil, err
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	return c.call(ctx, op, req)
}

// Go dispatches a call on the worker pool. The returned channel receives
// exactly one Result and is then closed. Calls dispatched by Go are
// independent: their results arrive in no particular order.
//
// When every worker is busy, Go waits for a free one and ctx is not
// consulted while it waits. With WithNonblocking it returns an OVERLOADED
// result instead.
func (c *Client) Go(ctx context.Context, op Op, req queryir.Request) <-chan Result {
	out := make(chan Result, 1)

	if err := c.admit(ctx, op); err != nil {
		out <- Result{Err: err}
		close(out)
		return out
	}
	c.wg.Add(1)
	c.mu.RUnlock()

	task := func() {
		defer c.wg.Done()
		defer close(out)
		defer func() {
			if v := recover(); v != nil {
				out <- Result{Err: &Error{
					Code:    ErrCodeTransport,
					Message: fmt.Sprintf("host panicked: %v", v),
					Op:      op,
				}}
			}
		}()
		data, err := c.call(ctx, op, req)
		out <- Result{Data: data, Err: err}
	}

	if err := c.pool.Submit(task); err != nil {
		c.wg.Done()
		code := ErrCodeClosed
		if errors.Is(err, ants.ErrPoolOverload) {
			code = ErrCodeOverloaded
		}
		out <- Result{Err: &Error{Code: code, Message: "submit rejected", Op: op, Err: err}}
		close(out)
	}
	return out
}

// admit checks that a call may start. On success it returns with the read
// lock held, so Close cannot interleave with wg.Add.
func (c *Client) admit(ctx context.Context, op Op) error {
	if op != OpExec && op != OpQuery {
		return &Error{Code: ErrCodeEncode, Message: fmt.Sprintf("unknown op %q", op), Op: op}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Code: ErrCodeCancelled, Message: "context done before submission", Op: op, Err: err}
	}
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return &Error{Code: ErrCodeClosed, Message: "client closed", Op: op}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op Op, req queryir.Request) (data json.RawMessage, err error) {
	id := c.ids.Generate()
	logger := c.logger.With("op", string(op), "request_id", id)

	start := time.Now()
	defer func() {
		c.metrics.observe(op, err, time.Since(start))
	}()

	payload, err := queryir.MarshalRequest(req)
	if err != nil {
		return nil, &Error{Code: ErrCodeEncode, Message: "encode request", Op: op, RequestID: id, Err: err}
	}
	if fp, ferr := queryir.Fingerprint(req); ferr == nil {
		logger = logger.With("fingerprint", fp)
	}
	logger.Debug("host call", "sql", c.renderer.Render(req))

	var resp []byte
	switch op {
	case OpExec:
		resp, err = c.host.Exec(ctx, Frame(payload))
	case OpQuery:
		resp, err = c.host.Query(ctx, Frame(payload))
	}
	if err != nil {
		logger.Warn("host call failed", "error", err)
		return nil, &Error{Code: ErrCodeTransport, Message: "host call failed", Op: op, RequestID: id, Err: err}
	}

	env, err := DecodeEnvelope(resp)
	if err != nil {
		logger.Warn("malformed host response", "error", err)
		return nil, &Error{Code: ErrCodeDecode, Message: "malformed host response", Op: op, RequestID: id, Err: err}
	}
	if !env.OK {
		logger.Debug("host reported failure", "msg", env.Msg)
		return nil, &Error{Code: ErrCodeHost, Message: env.Msg, Op: op, RequestID: id}
	}

	logger.Debug("host call complete", "duration", time.Since(start))
	return env.Data, nil
}

// Close stops accepting calls, waits for in-flight calls to finish and
// releases the worker pool. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	c.pool.Release()
	return nil
}
