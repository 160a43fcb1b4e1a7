package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/robustidx/internal/robust"
	"github.com/san-kum/robustidx/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return buf.String(), err
}

func TestClosedFormCommand(t *testing.T) {
	out, err := execute(t, "closed", "x**2", "--a", "-1", "--b", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "closed form")
	assert.Contains(t, out, "oo")
	assert.Contains(t, out, "solve")
}

func TestSearchCommandPresetAndFlags(t *testing.T) {
	out, err := execute(t, "search", "--preset", "alg2-example", "--gamma", "0.1")
	require.NoError(t, err)
	assert.Contains(t, out, "gamma 0.1")
	assert.Contains(t, out, "0.9")
}

func TestQuasiconvexCommand(t *testing.T) {
	out, err := execute(t, "quasiconvex", "--preset", "cap")
	require.NoError(t, err)
	assert.Contains(t, out, "quasiconvex")
	assert.Contains(t, out, "no")
}

func TestSegmentsCommand(t *testing.T) {
	out, err := execute(t, "segments", "--preset", "paraboloid", "--m", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "evaluated 1, failed 0")
	assert.Contains(t, out, "LENGTH")
}

func TestSegmentsCommandFailsOnFailedSegments(t *testing.T) {
	out, err := execute(t, "segments", "log(x - 1.5)",
		"--xmin", "1", "--xmax", "2", "--ymin", "1", "--ymax", "2", "--m", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, robust.ErrIndeterminate)
	assert.Contains(t, out, "successful segments only")
}

func TestErrorsLeftToCaller(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"closed", "x**2", "--a", "1", "--b", "0", "--log-level", "error"})

	err := root.Execute()
	require.ErrorIs(t, err, robust.ErrDegenerateInput)
	assert.True(t, root.SilenceErrors)
	assert.Empty(t, errOut.String())
	assert.NotContains(t, out.String(), "degenerate")
}

func TestCompareCommand(t *testing.T) {
	out, err := execute(t, "compare", "--preset", "alg2-example", "--gammas", "0.1,0.05")
	require.NoError(t, err)
	assert.Contains(t, out, "GAMMA")
	assert.Contains(t, out, "converged")
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "closed")
	assert.ErrorContains(t, err, "no expression")

	_, err = execute(t, "closed", "--preset", "nope")
	assert.ErrorContains(t, err, "unknown preset")

	_, err = execute(t, "closed", "x**2", "--a", "1", "--b", "0")
	assert.Error(t, err)

	_, err = execute(t, "segments", "x+y", "--vars", "x")
	assert.ErrorContains(t, err, "two names")
}

func TestSaveListShow(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "metrics.prom")

	out, err := execute(t, "closed", "--preset", "alg2-example", "--save", "--data", dir, "--metrics-file", metricsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run id")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "robustidx_index_runs_total")

	runs, err := storage.New(dir).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "closed", runs[0].Command)

	out, err = execute(t, "list", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)

	out, err = execute(t, "show", runs[0].ID, "--data", dir, "--json")
	require.NoError(t, err)
	var data storage.ExportData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.InDelta(t, 1.0, data.Run.Index.Float64(), 1e-6)
	assert.NotNil(t, data.Run.Interval)

	out, err = execute(t, "show", runs[0].ID, "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "run "+runs[0].ID)
}

func TestPresetsCommand(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "alg1-example")
	assert.Contains(t, out, "f7")
}
