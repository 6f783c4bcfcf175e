package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const passingSuiteYAML = `
name: thermal
models:
  - name: fixed
    kind: constant
    value: 37.0
tests:
  - name: plausible range
    kind: range
    observation: {min: 1.0, max: 40.0}
`

const failingSuiteYAML = `
name: thermal
models:
  - name: fixed
    kind: constant
    value: 37.0
tests:
  - name: narrow range
    kind: range
    observation: {min: 1.0, max: 10.0}
`

const lowAgreementSuiteYAML = `
name: thermal
models:
  - name: wild
    kind: constant
    value: 100.0
tests:
  - name: body temperature
    kind: zscore
    observation: {mean: 37.0, std: 1.0}
`

const incompleteSuiteYAML = `
name: thermal
backends:
  - name: broken
    kind: program
    command: /nonexistent/simulator
models:
  - name: sim
    kind: runnable
    backend: broken
tests:
  - name: plausible range
    kind: range
    observation: {min: 1.0, max: 40.0}
`

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJudgeCommand(t *testing.T) {
	t.Run("passing suite", func(t *testing.T) {
		out, err := runCLI(t, "judge", writeSuite(t, passingSuiteYAML))
		require.NoError(t, err)
		require.Contains(t, out, "plausible range")
		require.Contains(t, out, "Pass")
	})

	t.Run("failing suite exits with judge failure", func(t *testing.T) {
		out, err := runCLI(t, "judge", writeSuite(t, failingSuiteYAML))
		var jf *JudgeFailureError
		require.ErrorAs(t, err, &jf)
		require.Contains(t, out, "Fail")
	})

	t.Run("low-agreement numeric suite exits with judge failure", func(t *testing.T) {
		// A z of 63 normalizes to ~0, below the agreement cutoff, so the
		// exit code matches what the JUnit export would report.
		out, err := runCLI(t, "judge", writeSuite(t, lowAgreementSuiteYAML))
		var jf *JudgeFailureError
		require.ErrorAs(t, err, &jf)
		require.Contains(t, jf.Message, "failed")
		require.Contains(t, out, "Z = 63.00")
	})

	t.Run("incomplete judgments pass without strict", func(t *testing.T) {
		out, err := runCLI(t, "judge", writeSuite(t, incompleteSuiteYAML))
		require.NoError(t, err)
		require.Contains(t, out, "Insufficient Data")
	})

	t.Run("strict fails on incomplete judgments", func(t *testing.T) {
		_, err := runCLI(t, "judge", "--strict", writeSuite(t, incompleteSuiteYAML))
		var jf *JudgeFailureError
		require.ErrorAs(t, err, &jf)
		require.Contains(t, jf.Message, "incomplete")
	})

	t.Run("writes run record and junit", func(t *testing.T) {
		dir := t.TempDir()
		jsonPath := filepath.Join(dir, "run.json")
		junitPath := filepath.Join(dir, "junit.xml")

		_, err := runCLI(t, "judge", writeSuite(t, passingSuiteYAML),
			"--output", jsonPath, "--junit", junitPath)
		require.NoError(t, err)

		data, err := os.ReadFile(jsonPath)
		require.NoError(t, err)
		require.Contains(t, string(data), `"suite": "thermal"`)

		data, err = os.ReadFile(junitPath)
		require.NoError(t, err)
		require.Contains(t, string(data), "<testsuites")
	})

	t.Run("missing suite file", func(t *testing.T) {
		_, err := runCLI(t, "judge", filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		var jf *JudgeFailureError
		require.False(t, errors.As(err, &jf), "config errors are not judge failures")
	})
}

func TestCheckCommand(t *testing.T) {
	out, err := runCLI(t, "check", writeSuite(t, passingSuiteYAML))
	require.NoError(t, err)
	require.Contains(t, out, "TBD")
	require.Contains(t, out, "all models are capable")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	out, err := runCLI(t, "init", "starter")
	require.NoError(t, err)
	require.Contains(t, out, "created")

	data, err := os.ReadFile(filepath.Join(dir, "starter.yaml"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "name: starter"))

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		_, err := runCLI(t, "init", "starter")
		require.ErrorContains(t, err, "already exists")

		_, err = runCLI(t, "init", "starter", "--force")
		require.NoError(t, err)
	})
}
