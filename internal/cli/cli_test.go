package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsim/internal/connect"
)

// cliEnv runs commands against one SQLite file with the instant connector
// and an empty dotenv file in place of ./.env.
type cliEnv struct {
	t       *testing.T
	dbPath  string
	envFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	envFile := filepath.Join(dir, "empty.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o644))
	return &cliEnv{
		t:       t,
		dbPath:  filepath.Join(dir, "dbsim.db"),
		envFile: envFile,
	}
}

// run executes the CLI and returns stdout, stderr and the command error.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	cmd := newRootCommand(&RootOptions{Connector: connect.InstantConnector{}})

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--backend", "sqlite", "--path", e.dbPath, "--env-file", e.envFile}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// runJSON executes the CLI with --format json and decodes the response.
func (e *cliEnv) runJSON(args ...string) (CLIResponse, error) {
	e.t.Helper()
	out, _, err := e.run(append([]string{"--format", "json"}, args...)...)

	var resp CLIResponse
	require.NoError(e.t, json.Unmarshal([]byte(out), &resp), "stdout: %s", out)
	return resp, err
}

// decodeData re-decodes a response payload into v.
func decodeData(t *testing.T, resp CLIResponse, v any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}
