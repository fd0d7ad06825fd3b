package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riwaq/riwaq-go/internal/host"
)

// runCLI executes the CLI and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// writeFile writes content to name inside dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// decodeResponse parses a JSON CLI response, decoding data into out when
// out is non-nil.
func decodeResponse(t *testing.T, raw string, out any) CLIResponse {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), "output: %s", raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return CLIResponse{Status: resp.Status, Data: resp.Data, Error: resp.Error}
}

const usersFixture = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, status TEXT NOT NULL, age INTEGER);
INSERT INTO users (id, name, status, age) VALUES
  (1, 'ada', 'active', 36),
  (2, 'bob', 'pending', 41),
  (3, 'cy', 'active', NULL);
`

// createTestDB creates a users database file and returns its path.
func createTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	h, err := host.Open(path)
	require.NoError(t, err)
	require.NoError(t, h.Raw(context.Background(), usersFixture))
	require.NoError(t, h.Close())
	return path
}

const activeUsersYAML = `op: Select
tbl: users
cols: [id, name]
filter:
  Or:
    - Filter: {Eq: {col: status, value: active}}
    - Filter: {Nin: {col: id, values: [2]}}
`

const promoteJSON = `{
  "op": "Update",
  "tbl": "users",
  "values": {"status": "active", "age": 50},
  "filter": {"Filter": {"Eq": {"col": "id", "value": 2}}}
}`

const ghostsJSON = `{"op":"Select","tbl":"ghosts","cols":["id"],"filter":null}`

const invalidYAML = `op: Select
tbl: users
cols: [id]
filter:
  Filter:
    Approx: {col: name, value: ada}
`
