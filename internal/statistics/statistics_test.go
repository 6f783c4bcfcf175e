package statistics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		require.Equal(t, Summary{}, Summarize(nil))
	})

	t.Run("single value", func(t *testing.T) {
		s := Summarize([]float64{0.5})
		require.Equal(t, 1, s.Count)
		require.Equal(t, 0.5, s.Mean)
		require.Equal(t, 0.0, s.StdDev)
	})

	t.Run("sample moments", func(t *testing.T) {
		s := Summarize([]float64{1, 2, 3, 4})
		require.Equal(t, 4, s.Count)
		require.InDelta(t, 2.5, s.Mean, 1e-12)
		require.InDelta(t, 1.29099, s.StdDev, 1e-4)
		require.Equal(t, 1.0, s.Min)
		require.Equal(t, 4.0, s.Max)
	})
}

func TestBootstrapCI(t *testing.T) {
	t.Run("degenerate samples", func(t *testing.T) {
		ci := BootstrapCI(nil, 0.95)
		require.Equal(t, 0, ci.NumBootstraps)

		ci = BootstrapCI([]float64{0.7}, 0.95)
		require.Equal(t, 0.7, ci.Mean)
		require.Equal(t, 0.7, ci.Lower)
		require.Equal(t, 0.7, ci.Upper)
	})

	t.Run("interval brackets the mean", func(t *testing.T) {
		values := []float64{0.2, 0.4, 0.6, 0.8, 1.0, 0.5, 0.3, 0.7}
		ci := BootstrapCIWithSeed(values, 0.95, 42)
		require.Equal(t, DefaultBootstrapIterations, ci.NumBootstraps)
		require.LessOrEqual(t, ci.Lower, ci.Mean)
		require.GreaterOrEqual(t, ci.Upper, ci.Mean)
		require.InDelta(t, 0.5625, ci.Mean, 1e-12)
	})

	t.Run("seeded runs are reproducible", func(t *testing.T) {
		values := []float64{0.1, 0.9, 0.5, 0.3}
		a := BootstrapCIWithSeed(values, 0.95, 7)
		b := BootstrapCIWithSeed(values, 0.95, 7)
		require.Equal(t, a, b)
	})
}

func TestIsSignificant(t *testing.T) {
	require.True(t, IsSignificant(ConfidenceInterval{Lower: 0.1, Upper: 0.5}))
	require.True(t, IsSignificant(ConfidenceInterval{Lower: -0.5, Upper: -0.1}))
	require.False(t, IsSignificant(ConfidenceInterval{Lower: -0.1, Upper: 0.1}))
}
