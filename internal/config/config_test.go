package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verimod/verimod/internal/score"
)

const validSuiteYAML = `
name: thermal
description: checks simulated body temperature
parallel: 2
weights:
  plausible range: 2.0
backends:
  - name: stub
    kind: constant
    value: 5.0
models:
  - name: fixed
    kind: constant
    value: 37.0
  - name: sim
    kind: runnable
    backend: stub
  - name: noisy
    kind: uniform
    low: 36.0
    high: 38.0
    seed: 7
tests:
  - name: plausible range
    kind: range
    observation:
      min: 1.0
      max: 40.0
  - name: distribution fit
    kind: zscore
    observation:
      mean: 37.8
      std: 2.1
  - name: close fit
    kind: zscore
    observation:
      mean: 37.8
      std: 2.1
    converter:
      kind: at_most
      cutoff: 2.0
`

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		spec, err := Parse([]byte(validSuiteYAML))
		require.NoError(t, err)
		require.Equal(t, "thermal", spec.Name)
		require.Len(t, spec.Models, 3)
		require.Len(t, spec.Tests, 3)
		require.Equal(t, 2.0, spec.Weights["plausible range"])
		require.NotNil(t, spec.Tests[2].Converter)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := Parse([]byte("name: x\ntests: []\n"))
		require.ErrorContains(t, err, "invalid")
	})

	t.Run("unknown model kind", func(t *testing.T) {
		_, err := Parse([]byte(`
name: x
models:
  - name: m
    kind: quantum
tests:
  - name: t
    kind: range
    observation: {min: 0, max: 1}
`))
		require.ErrorContains(t, err, "invalid")
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := Parse([]byte("{{"))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSuiteYAML), 0644))

	spec, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "thermal", spec.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	spec, err := Parse([]byte(validSuiteYAML))
	require.NoError(t, err)

	result, err := Build(spec)
	require.NoError(t, err)
	require.Equal(t, "thermal", result.Suite.Name())
	require.Len(t, result.Models, 3)
	require.Equal(t, []string{"stub"}, result.Registry.Names())

	matrix, err := result.Suite.Judge(context.Background(), result.Models)
	require.NoError(t, err)
	require.Equal(t, 9, matrix.Len())

	// The constant model at 37.0 is in range and scores z against the
	// observed distribution.
	s, ok := matrix.Get("plausible range", "fixed")
	require.True(t, ok)
	require.True(t, s.Passed())

	s, ok = matrix.Get("distribution fit", "fixed")
	require.True(t, ok)
	require.Equal(t, score.KindZ, s.Kind())
	require.InDelta(t, -0.3809, s.Value(), 1e-3)

	// The converted test yields a boolean verdict.
	s, ok = matrix.Get("close fit", "fixed")
	require.True(t, ok)
	require.Equal(t, score.KindBoolean, s.Kind())
	require.True(t, s.Passed())

	// The runnable model executes its backend: the stub returns 5.0,
	// in range but far from the observed mean.
	s, ok = matrix.Get("plausible range", "sim")
	require.True(t, ok)
	require.True(t, s.Passed())
}

func TestBuildErrors(t *testing.T) {
	t.Run("runnable model with unregistered backend", func(t *testing.T) {
		spec, err := Parse([]byte(`
name: x
models:
  - name: m
    kind: runnable
    backend: missing
tests:
  - name: t
    kind: range
    observation: {min: 0, max: 1}
`))
		require.NoError(t, err)
		_, err = Build(spec)
		require.ErrorContains(t, err, "no backend registered")
	})

	t.Run("duplicate backend names", func(t *testing.T) {
		spec, err := Parse([]byte(`
name: x
backends:
  - {name: b, kind: constant, value: 1}
  - {name: b, kind: constant, value: 2}
models:
  - {name: m, kind: constant, value: 1}
tests:
  - name: t
    kind: range
    observation: {min: 0, max: 1}
`))
		require.NoError(t, err)
		_, err = Build(spec)
		require.ErrorContains(t, err, "already registered")
	})

	t.Run("invalid observation", func(t *testing.T) {
		spec, err := Parse([]byte(`
name: x
models:
  - {name: m, kind: constant, value: 1}
tests:
  - name: t
    kind: zscore
    observation: {mean: 1.0}
`))
		require.NoError(t, err)
		_, err = Build(spec)
		require.ErrorContains(t, err, "invalid observation")
	})

	t.Run("converter on boolean test kind", func(t *testing.T) {
		spec, err := Parse([]byte(`
name: x
models:
  - {name: m, kind: constant, value: 1}
tests:
  - name: t
    kind: range
    observation: {min: 0, max: 1}
    converter: {kind: at_most, cutoff: 1}
`))
		require.NoError(t, err)
		_, err = Build(spec)
		require.ErrorContains(t, err, "converters apply only to numeric test kinds")
	})
}
