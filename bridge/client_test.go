package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riwaq/riwaq-go/queryir"
	"github.com/riwaq/riwaq-go/querysql"
	"github.com/riwaq/riwaq-go/value"
)

var usersByStatus = queryir.NewSelect("users", "id").
	Where(queryir.Eq{Col: "status", Value: value.String("active")})

// respond builds a host that answers every call with resp.
func respond(resp string) HostFuncs {
	fn := func(context.Context, []byte) ([]byte, error) { return []byte(resp), nil }
	return HostFuncs{ExecFunc: fn, QueryFunc: fn}
}

func newClient(t *testing.T, host Host, opts ...Option) *Client {
	t.Helper()
	c, err := New(host, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_NilHost(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestClient_SendsFramedEnvelope(t *testing.T) {
	var got []byte
	host := HostFuncs{
		QueryFunc: func(_ context.Context, payload []byte) ([]byte, error) {
			got = append([]byte(nil), payload...)
			return Success([]any{})
		},
	}
	c := newClient(t, host)

	_, err := c.Query(context.Background(), usersByStatus)
	require.NoError(t, err)

	want, err := queryir.MarshalRequest(usersByStatus)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, byte(0), got[len(got)-1], "payload must be NUL-terminated")
	assert.Equal(t, want, Unframe(got))
}

func TestClient_RoutesOps(t *testing.T) {
	var execs, queries atomic.Int32
	host := HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) {
			execs.Add(1)
			return Success(map[string]int{"rows_affected": 1})
		},
		QueryFunc: func(context.Context, []byte) ([]byte, error) {
			queries.Add(1)
			return Success([]map[string]int{{"id": 1}})
		},
	}
	c := newClient(t, host)
	ctx := context.Background()

	data, err := c.Exec(ctx, queryir.NewUpdate("users").Set("age", value.Int(30)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows_affected":1}`, string(data))

	data, err = c.Query(ctx, usersByStatus)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(data))

	assert.Equal(t, int32(1), execs.Load())
	assert.Equal(t, int32(1), queries.Load())
}

func TestClient_HostError(t *testing.T) {
	c := newClient(t, respond(`{"ok":false,"msg":"no such table: users"}`))

	_, err := c.Query(context.Background(), usersByStatus)
	require.Error(t, err)
	assert.True(t, IsHostError(err))
	assert.False(t, IsDecodeError(err))

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "no such table: users", be.Message)
	assert.Equal(t, OpQuery, be.Op)
	assert.NotEmpty(t, be.RequestID)
	assert.Contains(t, err.Error(), "no such table: users")
}

func TestClient_DecodeError(t *testing.T) {
	for _, resp := range []string{`garbage`, `{"ok":true}`, `{"ok":false}`, `{"msg":"x"}`} {
		t.Run(resp, func(t *testing.T) {
			c := newClient(t, respond(resp))
			_, err := c.Exec(context.Background(), usersByStatus)
			require.Error(t, err)
			assert.True(t, IsDecodeError(err))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	boom := errors.New("boom")
	c := newClient(t, HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) { return nil, boom },
	})

	_, err := c.Exec(context.Background(), usersByStatus)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, boom)

	// QueryFunc is unset on this host.
	_, err = c.Query(context.Background(), usersByStatus)
	assert.True(t, IsTransportError(err))
}

func TestClient_EncodeError(t *testing.T) {
	var called bool
	c := newClient(t, HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) {
			called = true
			return Success(nil)
		},
	})

	_, err := c.Exec(context.Background(), nil)
	require.Error(t, err)
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, ErrCodeEncode, be.Code)
	assert.False(t, called)
}

func TestClient_UnknownOp(t *testing.T) {
	c := newClient(t, respond(`{"ok":true,"data":null}`))

	_, err := c.Call(context.Background(), Op("delete"), usersByStatus)
	require.Error(t, err)

	res := <-c.Go(context.Background(), Op("delete"), usersByStatus)
	assert.Error(t, res.Err)
}

func TestClient_CancelledBeforeSubmission(t *testing.T) {
	var called atomic.Bool
	host := HostFuncs{
		QueryFunc: func(context.Context, []byte) ([]byte, error) {
			called.Store(true)
			return Success(nil)
		},
	}
	c := newClient(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Query(ctx, usersByStatus)
	require.Error(t, err)
	assert.True(t, IsCancelledError(err))
	assert.False(t, IsClosedError(err))
	assert.ErrorIs(t, err, context.Canceled)

	res := <-c.Go(ctx, OpQuery, usersByStatus)
	assert.True(t, IsCancelledError(res.Err))
	assert.False(t, called.Load())
}

func TestClient_GoNonblockingOverload(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	host := HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) {
			once.Do(func() { close(started) })
			<-release
			return Success(nil)
		},
	}
	c := newClient(t, host, WithPoolSize(1), WithNonblocking())

	first := c.Go(context.Background(), OpExec, usersByStatus)
	<-started

	res := <-c.Go(context.Background(), OpExec, usersByStatus)
	require.Error(t, res.Err)
	assert.True(t, IsOverloadedError(res.Err))
	assert.ErrorIs(t, res.Err, ants.ErrPoolOverload)

	close(release)
	assert.NoError(t, (<-first).Err)
}

func TestClient_NilPointerRequest(t *testing.T) {
	var called atomic.Bool
	host := HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) {
			called.Store(true)
			return Success(nil)
		},
	}
	c := newClient(t, host)

	_, err := c.Exec(context.Background(), (*queryir.Select)(nil))
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrCodeEncode, be.Code)

	res := <-c.Go(context.Background(), OpExec, (*queryir.Update)(nil))
	require.ErrorAs(t, res.Err, &be)
	assert.Equal(t, ErrCodeEncode, be.Code)
	assert.False(t, called.Load())
}

func TestClient_Closed(t *testing.T) {
	c, err := New(respond(`{"ok":true,"data":null}`))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close is idempotent")

	_, err = c.Exec(context.Background(), usersByStatus)
	assert.True(t, IsClosedError(err))

	res, ok := <-c.Go(context.Background(), OpExec, usersByStatus)
	require.True(t, ok)
	assert.True(t, IsClosedError(res.Err))
}

func TestClient_GoConcurrent(t *testing.T) {
	var inFlight, peak atomic.Int32
	host := HostFuncs{
		QueryFunc: func(_ context.Context, payload []byte) ([]byte, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			req, err := queryir.UnmarshalRequest(Unframe(payload))
			if err != nil {
				return nil, err
			}
			return Success(req.(queryir.Select).Table)
		},
	}
	c := newClient(t, host, WithPoolSize(4))

	const calls = 32
	results := make([]<-chan Result, calls)
	for i := range results {
		table := "t" + string(rune('a'+i%26))
		results[i] = c.Go(context.Background(), OpQuery, queryir.NewSelect(table, "x"))
	}

	for i, ch := range results {
		res := <-ch
		require.NoError(t, res.Err)
		var table string
		require.NoError(t, json.Unmarshal(res.Data, &table))
		assert.Equal(t, "t"+string(rune('a'+i%26)), table)

		_, open := <-ch
		assert.False(t, open, "result channel is closed after one value")
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestClient_GoRecoversHostPanic(t *testing.T) {
	c := newClient(t, HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) { panic("host exploded") },
	})

	res := <-c.Go(context.Background(), OpExec, usersByStatus)
	require.Error(t, res.Err)
	assert.True(t, IsTransportError(res.Err))
	assert.Contains(t, res.Err.Error(), "host exploded")
}

func TestClient_CloseWaitsForInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	host := HostFuncs{
		ExecFunc: func(context.Context, []byte) ([]byte, error) {
			once.Do(func() { close(started) })
			<-release
			return Success(nil)
		},
	}
	c, err := New(host)
	require.NoError(t, err)

	ch := c.Go(context.Background(), OpExec, usersByStatus)
	<-started

	closed := make(chan struct{})
	go func() {
		_ = c.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a call was in flight")
	default:
	}

	close(release)
	<-closed
	res := <-ch
	assert.NoError(t, res.Err)
}

func TestClient_Logging(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newClient(t, respond(`{"ok":true,"data":[]}`), WithLogger(logger))
	_, err := c.Query(context.Background(), usersByStatus)
	require.NoError(t, err)

	fp, err := queryir.Fingerprint(usersByStatus)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	out := buf.String()
	assert.Contains(t, out, "op=query")
	assert.Contains(t, out, "request_id=")
	assert.Contains(t, out, "fingerprint="+fp)
	assert.Contains(t, out, `sql="SELECT id FROM users WHERE status = 'active';"`)
}

func TestClient_WithRenderer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newClient(t, respond(`{"ok":true,"data":[]}`),
		WithLogger(logger),
		WithRenderer(querysql.Renderer{StrictNotIn: true}))

	req := queryir.NewSelect("t", "x").Where(queryir.Nin{Col: "id", Values: []value.Value{value.Int(1)}})
	_, err := c.Query(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "id not in (1)")
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	ok := newClient(t, respond(`{"ok":true,"data":null}`), WithMetrics(m))
	bad := newClient(t, respond(`{"ok":false,"msg":"nope"}`), WithMetrics(m))
	ctx := context.Background()

	_, err := ok.Exec(ctx, usersByStatus)
	require.NoError(t, err)
	_, err = ok.Exec(ctx, usersByStatus)
	require.NoError(t, err)
	_, err = bad.Query(ctx, usersByStatus)
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("exec", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("query", "host_error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe(OpExec, nil, 0) })
}

func TestQueryInto(t *testing.T) {
	type user struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	c := newClient(t, respond(`{"ok":true,"data":[{"id":1,"name":"ada"},{"id":2,"name":"bob"}]}`))
	users, err := QueryInto[user](context.Background(), c, usersByStatus)
	require.NoError(t, err)
	assert.Equal(t, []user{{1, "ada"}, {2, "bob"}}, users)

	c = newClient(t, respond(`{"ok":true,"data":null}`))
	users, err = QueryInto[user](context.Background(), c, usersByStatus)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	c = newClient(t, respond(`{"ok":true,"data":{"id":1}}`))
	_, err = QueryInto[user](context.Background(), c, usersByStatus)
	assert.True(t, IsDecodeError(err))

	c = newClient(t, respond(`{"ok":false,"msg":"denied"}`))
	_, err = QueryInto[user](context.Background(), c, usersByStatus)
	assert.True(t, IsHostError(err))
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
