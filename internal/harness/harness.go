package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/riwaq/riwaq-go/bridge"
	"github.com/riwaq/riwaq-go/internal/host"
	"github.com/riwaq/riwaq-go/internal/testutil"
	"github.com/riwaq/riwaq-go/querysql"
	"github.com/riwaq/riwaq-go/value"
)

// Harness is the scenario execution engine.
type Harness struct {
	host     *host.Executor
	client   *bridge.Client
	renderer querysql.Renderer
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory host
// 2. Run setup SQL
// 3. Send each step through a bridge client and check its expectations
// 4. Evaluate assertions against the trace and the database
//
// The returned error covers infrastructure failures only. Failed
// expectations and assertions are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := scenario.resolve(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	renderer := querysql.Renderer{StrictNotIn: scenario.StrictNotIn}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	exec, err := host.Open(":memory:", host.WithRenderer(renderer), host.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory host: %w", err)
	}
	defer exec.Close()

	// Sequential request IDs keep repeated runs of a scenario identical.
	client, err := bridge.New(exec,
		bridge.WithRenderer(renderer),
		bridge.WithLogger(logger),
		bridge.WithIDGenerator(testutil.NewSequentialIDGenerator("step")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge client: %w", err)
	}
	defer client.Close()

	h := &Harness{
		host:     exec,
		client:   client,
		renderer: renderer,
		logger:   logger,
	}

	for i, stmt := range scenario.Setup {
		if err := exec.Raw(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to execute setup[%d]: %w", i, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.runStep(ctx, i, step, result)
	}

	actx := &AssertionContext{
		Host: exec,
		Ctx:  ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// runStep sends one request, records it and checks its expectations.
func (h *Harness) runStep(ctx context.Context, i int, step Step, result *Result) {
	event := TraceEvent{
		Seq: i + 1,
		Op:  string(step.Op),
		SQL: h.renderer.Render(step.Request),
	}

	data, err := h.client.Call(ctx, step.Op, step.Request)
	if err != nil {
		event.Msg = failureMessage(err)
	} else {
		event.OK = true
		event.Data = data
	}
	result.AddTrace(event)
	h.logger.Debug("step", "seq", event.Seq, "op", event.Op, "ok", event.OK)

	label := stepLabel(i, step)
	if step.Expect == nil {
		if !event.OK {
			result.AddError(fmt.Sprintf("%s: unexpected failure: %s", label, event.Msg))
		}
		return
	}
	for _, msg := range checkExpect(step.Expect, event) {
		result.AddError(fmt.Sprintf("%s: %s", label, msg))
	}
}

// checkExpect compares a recorded call against its expect clause.
func checkExpect(e *Expect, event TraceEvent) []string {
	var errs []string

	wantOK := e.Error == ""
	if e.OK != nil {
		wantOK = *e.OK
	}

	if e.SQL != "" && e.SQL != event.SQL {
		errs = append(errs, fmt.Sprintf("expected sql %q, got %q", e.SQL, event.SQL))
	}

	if wantOK != event.OK {
		if event.OK {
			errs = append(errs, "expected failure, call succeeded")
		} else {
			errs = append(errs, fmt.Sprintf("unexpected failure: %s", event.Msg))
		}
		return errs
	}

	if !event.OK {
		if e.Error != "" && !strings.Contains(event.Msg, e.Error) {
			errs = append(errs, fmt.Sprintf("expected error containing %q, got %q", e.Error, event.Msg))
		}
		return errs
	}

	if e.Rows != nil {
		if msg := compareRows(e.Rows, event.Data); msg != "" {
			errs = append(errs, msg)
		}
	}

	if e.RowsAffected != nil {
		var summary struct {
			RowsAffected *int64 `json:"rows_affected"`
		}
		if err := json.Unmarshal(event.Data, &summary); err != nil || summary.RowsAffected == nil {
			errs = append(errs, fmt.Sprintf("expected rows_affected %d, got payload %s", *e.RowsAffected, event.Data))
		} else if *summary.RowsAffected != *e.RowsAffected {
			errs = append(errs, fmt.Sprintf("expected rows_affected %d, got %d", *e.RowsAffected, *summary.RowsAffected))
		}
	}

	return errs
}

// compareRows compares expected rows with a query payload as canonical JSON.
func compareRows(expected []map[string]any, data json.RawMessage) string {
	rows := make([]any, len(expected))
	for i, row := range expected {
		rows[i] = row
	}
	want, err := value.Of(rows)
	if err != nil {
		return fmt.Sprintf("expected rows: %v", err)
	}
	wantJSON, err := value.MarshalCanonical(want)
	if err != nil {
		return fmt.Sprintf("expected rows: %v", err)
	}

	got, err := value.Unmarshal(data)
	if err != nil {
		return fmt.Sprintf("decode rows: %v", err)
	}
	gotJSON, err := value.MarshalCanonical(got)
	if err != nil {
		return fmt.Sprintf("decode rows: %v", err)
	}

	if string(wantJSON) != string(gotJSON) {
		return fmt.Sprintf("expected rows %s, got %s", wantJSON, gotJSON)
	}
	return ""
}

// failureMessage extracts the host's message from a host error, and the
// full error text otherwise.
func failureMessage(err error) string {
	var be *bridge.Error
	if errors.As(err, &be) && be.Code == bridge.ErrCodeHost {
		return be.Message
	}
	return err.Error()
}

func stepLabel(i int, step Step) string {
	if step.Name != "" {
		return fmt.Sprintf("steps[%d] %q", i, step.Name)
	}
	return fmt.Sprintf("steps[%d]", i)
}
