package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riwaq/riwaq-go/internal/host"
)

func TestQuery_Text(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "active.yaml", activeUsersYAML)

	// Without --strict-not-in the Nin arm renders as "id in (2)" and
	// matches bob as well.
	stdout, _, code := runCLI(t, "query", path, "--db", db)
	require.Equal(t, ExitSuccess, code, stdout)
	assert.JSONEq(t, `[{"id":1,"name":"ada"},{"id":2,"name":"bob"},{"id":3,"name":"cy"}]`, stdout)
}

func TestQuery_StrictNotIn(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "active.yaml", activeUsersYAML)

	// "id not in (2)" excludes bob, who is not active either.
	stdout, _, code := runCLI(t, "query", path, "--db", db, "--strict-not-in")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.JSONEq(t, `[{"id":1,"name":"ada"},{"id":3,"name":"cy"}]`, stdout)
}

func TestExec_JSON(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "promote.json", promoteJSON)

	stdout, _, code := runCLI(t, "exec", path, "--db", db, "--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)

	var data map[string]int64
	resp := decodeResponse(t, stdout, &data)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(1), data["rows_affected"])

	// The update is visible to a later connection.
	h, err := host.Open(db)
	require.NoError(t, err)
	defer h.Close()
	var status string
	var age int64
	require.NoError(t, h.DB().QueryRowContext(context.Background(),
		"SELECT status, age FROM users WHERE id = 2").Scan(&status, &age))
	assert.Equal(t, "active", status)
	assert.Equal(t, int64(50), age)
}

func TestQuery_HostError(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "ghosts.json", ghostsJSON)

	stdout, _, code := runCLI(t, "query", path, "--db", db, "--format", "json")
	assert.Equal(t, ExitFailure, code)

	resp := decodeResponse(t, stdout, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "HOST_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "no such table: ghosts")
}

func TestQuery_Verbose(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "ghosts.json", ghostsJSON)

	_, stderr, code := runCLI(t, "query", path, "--db", db, "-v")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "query SELECT id FROM ghosts;")
	assert.Contains(t, stderr, "host call")
	assert.Contains(t, stderr, "request_id=")
}

func TestCall_MissingDBFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "active.yaml", activeUsersYAML)

	_, stderr, code := runCLI(t, "query", path)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `required flag(s) "db" not set`)
}

func TestCall_BadDatabasePath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "active.yaml", activeUsersYAML)

	stdout, _, code := runCLI(t, "query", path, "--db", "/nonexistent/dir/app.db", "--format", "json")
	assert.Equal(t, ExitCommandError, code)

	resp := decodeResponse(t, stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDatabase, resp.Error.Code)
}

func TestCall_InvalidDocument(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "bad.yaml", invalidYAML)

	_, _, code := runCLI(t, "exec", path, "--db", db)
	assert.Equal(t, ExitFailure, code)
}

func TestExec_TextOutput(t *testing.T) {
	db := createTestDB(t)
	path := writeFile(t, t.TempDir(), "promote.json", promoteJSON)

	stdout, _, code := runCLI(t, "exec", path, "--db", db)
	require.Equal(t, ExitSuccess, code)

	var data map[string]int64
	require.NoError(t, json.Unmarshal([]byte(stdout), &data))
	assert.Equal(t, int64(1), data["rows_affected"])
}

func TestExec_QuotesAndBackslashes(t *testing.T) {
	db := createTestDB(t)
	dir := t.TempDir()
	rename := writeFile(t, dir, "rename.json",
		`{"op":"Update","tbl":"users","values":{"name":"O'Brien","status":"C:\\dir"},"filter":{"Filter":{"Eq":{"col":"id","value":1}}}}`)

	stdout, _, code := runCLI(t, "exec", rename, "--db", db)
	require.Equal(t, ExitSuccess, code, stdout)

	byAge := writeFile(t, dir, "by_age.json",
		`{"op":"Select","tbl":"users","cols":["name","status"],"filter":{"Filter":{"Between":{"col":"age","start":30,"end":40}}}}`)
	stdout, _, code = runCLI(t, "query", byAge, "--db", db)
	require.Equal(t, ExitSuccess, code, stdout)
	assert.JSONEq(t, `[{"name":"O'Brien","status":"C:\\dir"}]`, stdout)
}
