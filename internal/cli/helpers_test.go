package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// cliRun is the captured outcome of one command execution.
type cliRun struct {
	Stdout string
	Stderr string
	Err    error
}

// runCLI executes the root command with args on a fresh command tree.
func runCLI(t *testing.T, args ...string) cliRun {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliRun{Stdout: out.String(), Stderr: errOut.String(), Err: err}
}

// mustRun executes args and fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	r := runCLI(t, args...)
	require.NoError(t, r.Err, "args %v\nstdout: %s\nstderr: %s", args, r.Stdout, r.Stderr)
	return r.Stdout
}

// decodeData unmarshals the data field of a JSON envelope into v.
func decodeData(t *testing.T, stdout string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status, stdout)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// initRegistry creates a registry owned by owner in a fresh database and
// returns the --db flag pair.
func initRegistry(t *testing.T, owner string) (string, string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "registry.db")
	mustRun(t, "init", owner, "--db", db)
	return "--db", db
}
