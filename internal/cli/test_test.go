package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemsScenario = `name: items
description: query items above an id
setup:
  - CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT)
  - INSERT INTO items (id, label) VALUES (1, 'a'), (2, 'b')
steps:
  - query:
      op: Select
      tbl: items
      cols: [label]
      filter:
        Filter:
          Gt: {col: id, value: 1}
    expect:
      rows:
        - {label: b}
`

const failingScenario = `name: failing
description: expects a row that is not there
setup:
  - CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT)
steps:
  - query: {op: Select, tbl: items, cols: [label]}
    expect:
      rows:
        - {label: z}
`

func TestTestCommand_Passing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", itemsScenario)

	stdout, _, code := runCLI(t, "test", dir)
	assert.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "✓ items")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommand_Failing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", itemsScenario)
	writeFile(t, dir, "failing.yaml", failingScenario)

	stdout, _, code := runCLI(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "✗ failing")
	assert.Contains(t, stdout, `expected rows [{"label":"z"}], got []`)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_FailingJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "failing.yaml", failingScenario)

	stdout, _, code := runCLI(t, "test", dir, "--format", "json")
	assert.Equal(t, ExitFailure, code)

	var result TestResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.False(t, result.Scenarios[0].Pass)
}

func TestTestCommand_GoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", itemsScenario)

	_, _, code := runCLI(t, "test", dir, "--update")
	require.Equal(t, ExitSuccess, code)

	goldenPath := filepath.Join(dir, "golden", "items.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"items","trace":[{"data":[{"label":"b"}],"ok":true,"op":"query","seq":1,"sql":"SELECT label FROM items WHERE id > 1;"}]}`+"\n",
		string(golden))

	// The golden directory is not scanned for scenarios.
	stdout, _, code := runCLI(t, "test", dir)
	assert.Equal(t, ExitSuccess, code, stdout)

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(goldenPath, []byte(strings.Replace(string(golden), "id > 1", "id > 0", 1)), 0644))
	stdout, _, code = runCLI(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "trace does not match golden file")
}

func TestTestCommand_StrictNotInFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nin.yaml", `name: nin
description: global strict flag applies to scenarios
setup:
  - CREATE TABLE items (id INTEGER PRIMARY KEY)
  - INSERT INTO items (id) VALUES (1), (2)
steps:
  - query:
      op: Select
      tbl: items
      cols: [id]
      filter: {Filter: {Nin: {col: id, values: [1]}}}
    expect:
      sql: "SELECT id FROM items WHERE id not in (1);"
      rows: [{id: 2}]
`)

	_, _, code := runCLI(t, "test", dir)
	assert.Equal(t, ExitFailure, code)

	stdout, _, code := runCLI(t, "test", dir, "--strict-not-in")
	assert.Equal(t, ExitSuccess, code, stdout)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", itemsScenario)
	writeFile(t, dir, "failing.yaml", failingScenario)

	stdout, _, code := runCLI(t, "test", dir, "--filter", "it*")
	assert.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "1 total")
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yml", "name: broken\nstepz: []\n")

	stdout, _, code := runCLI(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "✗ broken.yml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommand_NonExistentDir(t *testing.T) {
	stdout, _, code := runCLI(t, "test", "/nonexistent/scenarios")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stdout, "scenarios directory not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	stdout, _, code := runCLI(t, "test", t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommand_EmptyDirJSON(t *testing.T) {
	stdout, _, code := runCLI(t, "test", t.TempDir(), "--format", "json")
	assert.Equal(t, ExitSuccess, code)

	var result TestResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "test1.yaml", "")
	writeFile(t, dir, "nested/test2.yml", "")
	writeFile(t, dir, "ignore.txt", "")
	writeFile(t, dir, "golden/skip.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "users.golden"), goldenFilePath(filepath.Join("s", "users.yaml")))
}
