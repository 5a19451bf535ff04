package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/paramstore"
)

// executeCommand runs a fresh command tree with args and captures output.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	root := NewRootCmd("test")
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()

	return outBuf.String(), errBuf.String(), err
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "want ExitError, got %v", err)

	return exitErr.Code
}

// initSnapshot runs "init" against a fresh database and returns (db, id).
func initSnapshot(t *testing.T, extra ...string) (string, string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "cp.db")
	args := append([]string{"init", "--db", db, "--no-color", "--seed", "3", "--label", "test"}, extra...)
	out, _, err := executeCommand(args...)
	require.NoError(t, err)

	return db, strings.TrimSpace(out)
}

func TestInitAndSnapshots(t *testing.T) {
	db, id := initSnapshot(t)
	require.Len(t, id, 36)

	out, _, err := executeCommand("snapshots", "--db", db, "--format", "json")
	require.NoError(t, err)
	var list []paramstore.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "test", list[0].Label)
	assert.Equal(t, int64(3), list[0].Seed)
	assert.Equal(t, 5, list[0].Groups)

	out, _, err = executeCommand("snapshots", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, _, err = executeCommand("snapshots", "rm", id, "--db", db, "--no-color")
	require.NoError(t, err)
	_, _, err = executeCommand("snapshots", "rm", id, "--db", db)
	assert.Equal(t, exitNotFound, exitCode(t, err))
}

func TestSampleThenAbduct(t *testing.T) {
	db, id := initSnapshot(t)

	out, _, err := executeCommand("sample", "--db", db, "--snapshot", id, "--size", "4", "--seed", "9")
	require.NoError(t, err)
	var sample sampleOutput
	require.NoError(t, json.Unmarshal([]byte(out), &sample))
	for _, name := range []string{"V1", "X", "Y"} {
		require.Len(t, sample.V[name], 4, name)
		require.Len(t, sample.V[name][0], 2, name)
	}

	vjson, err := json.Marshal(sample.V)
	require.NoError(t, err)
	path := writeTestFile(t, "values.json", string(vjson))

	out, _, err = executeCommand("abduct", "--db", db, "--snapshot", id, "--values", path)
	require.NoError(t, err)
	var ab abductOutput
	require.NoError(t, json.Unmarshal([]byte(out), &ab))
	assert.Len(t, ab.LogLikelihood, 4)
	for name, rows := range sample.U {
		for i := range rows {
			assert.InDeltaSlice(t, rows[i], ab.U[name][i], 1e-9, "%s row %d", name, i)
		}
	}
}

func TestSample_Intervention(t *testing.T) {
	db, id := initSnapshot(t)
	do := writeTestFile(t, "do.json", `{"X": [[1, -1]]}`)

	out, _, err := executeCommand("sample", "--db", db, "--snapshot", id, "--size", "3", "--do", do)
	require.NoError(t, err)
	var sample sampleOutput
	require.NoError(t, json.Unmarshal([]byte(out), &sample))
	assert.Equal(t, [][]float64{{1, -1}}, sample.V["X"])
	assert.NotContains(t, sample.U, "X")
	assert.Len(t, sample.V["Y"], 3)
}

func TestSample_Summary(t *testing.T) {
	db, id := initSnapshot(t)
	do := writeTestFile(t, "do.json", `{"X": [[1, -1]]}`)

	out, _, err := executeCommand("sample", "--db", db, "--snapshot", id, "--size", "50", "--do", do, "--summary")
	require.NoError(t, err)
	var sum map[string]nodeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	require.Len(t, sum, 3)
	assert.InDeltaSlice(t, []float64{1, -1}, sum["X"].Mean, 1e-12)
	assert.Equal(t, [][]float64{{0, 0}, {0, 0}}, sum["X"].Cov)
	require.Len(t, sum["Y"].Cov, 2)
	assert.InDelta(t, sum["Y"].Cov[0][1], sum["Y"].Cov[1][0], 1e-12)
	assert.Greater(t, sum["V1"].Cov[0][0], 0.0)

	_, _, err = executeCommand("sample", "--db", db, "--snapshot", id, "--size", "1", "--summary")
	assert.Equal(t, exitInvalidInput, exitCode(t, err))
}

func TestCounterfactual(t *testing.T) {
	db, id := initSnapshot(t)
	factual := writeTestFile(t, "f.json", `{"V1": [[0.1, 0.2]], "X": [[0.3, -0.4]], "Y": [[1.0, 0.5]]}`)
	do := writeTestFile(t, "do.json", `{"X": [[0, 0]]}`)

	out, _, err := executeCommand("counterfactual", "--db", db, "--snapshot", id, "--values", factual, "--do", do)
	require.NoError(t, err)
	var cf rowsJSON
	require.NoError(t, json.Unmarshal([]byte(out), &cf))
	assert.InDeltaSlice(t, []float64{0.1, 0.2}, cf["V1"][0], 1e-9)
	assert.Equal(t, [][]float64{{0, 0}}, cf["X"])
	assert.Len(t, cf["Y"], 1)
}

func TestCheck(t *testing.T) {
	out, _, err := executeCommand("check", "--db", filepath.Join(t.TempDir(), "cp.db"), "--size", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "NODE")
	assert.Contains(t, out, "V1")
	assert.NotContains(t, out, "FAIL")

	db, id := initSnapshot(t)
	out, _, err = executeCommand("check", "--db", db, "--snapshot", id, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"inverse_ok": true`)
}

func TestCheck_CustomConfig(t *testing.T) {
	cfg := writeTestFile(t, "model.yaml", "dim: 1\nhidden: [4, 4]\ncoupling_layers: 2\n")
	out, _, err := executeCommand("check", "--config", cfg, "--size", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Y")
}

func TestErrors_ExitCodes(t *testing.T) {
	db, id := initSnapshot(t)

	_, _, err := executeCommand("sample", "--db", db, "--snapshot", id, "--size", "0")
	assert.Equal(t, exitInvalidInput, exitCode(t, err))

	_, _, err = executeCommand("sample", "--db", db, "--snapshot", "nope")
	assert.Equal(t, exitNotFound, exitCode(t, err))

	bad := writeTestFile(t, "bad.json", `{"V1": [[1, 2, 3]]}`)
	_, _, err = executeCommand("abduct", "--db", db, "--snapshot", id, "--values", bad)
	assert.Equal(t, exitInvalidInput, exitCode(t, err))

	cfg := writeTestFile(t, "model.yaml", "dim: 0\n")
	_, _, err = executeCommand("init", "--db", db, "--config", cfg)
	assert.Equal(t, exitInvalidInput, exitCode(t, err))

	_, _, err = executeCommand("check", "--format", "xml")
	assert.Equal(t, exitInvalidInput, exitCode(t, err))
}
