package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/riwaq/riwaq-go/value"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Canonical serializes the snapshot as canonical JSON followed by a newline.
// Payloads are decoded first so that key order and number spelling in the
// host's answer do not leak into the golden file.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	trace := make(value.Array, 0, len(s.Trace))
	for _, event := range s.Trace {
		obj := value.NewObject(
			value.O("seq", value.Int(int64(event.Seq))),
			value.O("op", value.String(event.Op)),
			value.O("sql", value.String(event.SQL)),
			value.O("ok", value.Bool(event.OK)),
		)
		if event.Msg != "" {
			obj = obj.With("msg", value.String(event.Msg))
		}
		if len(event.Data) > 0 {
			data, err := value.Unmarshal(event.Data)
			if err != nil {
				return nil, err
			}
			obj = obj.With("data", data)
		}
		trace = append(trace, obj)
	}

	out, err := value.MarshalCanonical(value.NewObject(
		value.O("scenario_name", value.String(s.ScenarioName)),
		value.O("trace", trace),
	))
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass, and an error if the
// scenario could not be executed. Test failure (via goldie) occurs if the
// trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
