package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/riwaq/riwaq-go/bridge"
	"github.com/riwaq/riwaq-go/internal/loader"
	"github.com/riwaq/riwaq-go/queryir"
)

// Scenario defines a request scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StrictNotIn renders Nin as "not in" for every step.
	StrictNotIn bool `yaml:"strict_not_in,omitempty"`

	// Setup holds raw SQL run before the steps, typically DDL and fixture
	// inserts. Setup statements must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are the requests to run, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and database state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step sends one request through the bridge.
//
// In YAML exactly one of exec or query holds the request envelope. Go
// callers may set Op and Request directly instead.
type Step struct {
	// Name labels the step in error messages.
	Name string `yaml:"name,omitempty"`

	Exec  yaml.Node `yaml:"exec,omitempty"`
	Query yaml.Node `yaml:"query,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the call must succeed and nothing else is checked.
	Expect *Expect `yaml:"expect,omitempty"`

	Op      bridge.Op       `yaml:"-"`
	Request queryir.Request `yaml:"-"`
}

// Expect specifies expected step behavior. Unset fields are not checked.
type Expect struct {
	// SQL is the exact rendered statement.
	SQL string `yaml:"sql,omitempty"`

	// OK is the expected success flag. Defaults to true, or false when
	// Error is set.
	OK *bool `yaml:"ok,omitempty"`

	// Error is a substring of the host's failure message.
	Error string `yaml:"error,omitempty"`

	// Rows are the expected query rows. Rows and keys are compared as
	// canonical JSON, so key order does not matter but row order does.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// RowsAffected is the expected exec row count.
	RowsAffected *int64 `yaml:"rows_affected,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": Query table and verify expected values
	// - "row_count": Count rows in table matching where
	// - "trace_contains": Check some rendered SQL contains a substring
	// - "trace_count": Check the number of calls, optionally for one op
	Type string `yaml:"type"`

	// Table is the table name (used by final_state, row_count).
	Table string `yaml:"table,omitempty"`

	// Where specifies equality filters (used by final_state, row_count).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of rows or calls.
	Count int `yaml:"count,omitempty"`

	// Contains is the SQL substring (used by trace_contains).
	Contains string `yaml:"contains,omitempty"`

	// Op restricts trace_count to "exec" or "query".
	Op string `yaml:"op,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), is missing required fields,
// or holds a request that does not match the request schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.resolve(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// resolve decodes the YAML request of every step that has none yet.
func (s *Scenario) resolve() error {
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Request != nil {
			continue
		}

		hasExec, hasQuery := step.Exec.Kind != 0, step.Query.Kind != 0
		var node *yaml.Node
		switch {
		case hasExec && hasQuery:
			return fmt.Errorf("steps[%d]: exec and query are mutually exclusive", i)
		case hasExec:
			step.Op, node = bridge.OpExec, &step.Exec
		case hasQuery:
			step.Op, node = bridge.OpQuery, &step.Query
		default:
			return fmt.Errorf("steps[%d]: exec or query is required", i)
		}

		req, err := loader.LoadNode(node)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		step.Request = req
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, stmt := range s.Setup {
		if stmt == "" {
			return fmt.Errorf("setup[%d]: statement is empty", i)
		}
	}

	for i, step := range s.Steps {
		if step.Request == nil {
			return fmt.Errorf("steps[%d]: request is required", i)
		}
		if step.Op != bridge.OpExec && step.Op != bridge.OpQuery {
			return fmt.Errorf("steps[%d]: op must be exec or query, got %q", i, step.Op)
		}
		if e := step.Expect; e != nil && e.Error != "" && e.OK != nil && *e.OK {
			return fmt.Errorf("steps[%d].expect: error requires ok to be false", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertTraceContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		if a.Op != "" && a.Op != string(bridge.OpExec) && a.Op != string(bridge.OpQuery) {
			return fmt.Errorf("assertions[%d]: op must be exec or query for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
