package judge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verimod/verimod/internal/backend"
	"github.com/verimod/verimod/internal/capability"
	"github.com/verimod/verimod/internal/convert"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
)

// incapableModel has a name and nothing else.
type incapableModel struct{ model.Base }

// failingModel claims the capability but cannot deliver a number.
type failingModel struct {
	model.Base
	err error
}

func (m *failingModel) ProduceNumber(context.Context) (float64, error) {
	return 0, m.err
}

func TestNewValidatesObservation(t *testing.T) {
	t.Run("missing required key", func(t *testing.T) {
		_, err := NewZTest("temperature", map[string]any{"mean": 37.8})
		var oe *ObservationError
		require.ErrorAs(t, err, &oe)
		require.Equal(t, "temperature", oe.Test)
		require.NotEmpty(t, oe.Problems)
	})

	t.Run("non-positive std", func(t *testing.T) {
		_, err := NewZTest("temperature", map[string]any{"mean": 37.8, "std": 0.0})
		var oe *ObservationError
		require.ErrorAs(t, err, &oe)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := NewEqualityTest("eq", map[string]any{"value": "thirty-seven"})
		var oe *ObservationError
		require.ErrorAs(t, err, &oe)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := NewRangeTest("range", map[string]any{"min": 10.0, "max": 1.0})
		var oe *ObservationError
		require.ErrorAs(t, err, &oe)
	})

	t.Run("custom validation hook", func(t *testing.T) {
		_, err := New(Definition{
			Name:        "paired",
			Observation: map[string]any{"before": 3.0, "after": 1.0},
			ScoreKind:   score.KindBoolean,
			ValidateObservation: func(obs any) error {
				o := obs.(map[string]any)
				if o["after"].(float64) < o["before"].(float64) {
					return fmt.Errorf("after must not be below before")
				}
				return nil
			},
			Predict: func(ctx context.Context, m model.Model) (any, error) { return nil, nil },
			Compute: func(obs, pred any) (score.Score, error) { return score.NewBoolean(true), nil },
		})
		var oe *ObservationError
		require.ErrorAs(t, err, &oe)
		require.Contains(t, oe.Problems[0], "after must not be below before")
	})

	t.Run("valid observation constructs", func(t *testing.T) {
		tt, err := NewZTest("temperature", map[string]any{"mean": 37.8, "std": 2.1})
		require.NoError(t, err)
		require.Equal(t, "temperature", tt.Name())
		require.Equal(t, score.KindZ, tt.ScoreKind())
	})
}

func TestZTestJudge(t *testing.T) {
	tt, err := NewZTest("body temperature", map[string]any{"mean": 37.8, "std": 2.1})
	require.NoError(t, err)

	s, err := tt.Judge(context.Background(), model.NewConst("cold model", 37.0))
	require.NoError(t, err)
	require.Equal(t, score.KindZ, s.Kind())
	require.InDelta(t, -0.3809, s.Value(), 1e-3)
	require.True(t, s.Bound())
	require.Equal(t, "body temperature", s.TestName())
	require.Equal(t, "cold model", s.ModelName())
	require.Equal(t, 37.0, s.Prediction())
}

func TestEqualityTestJudge(t *testing.T) {
	tt, err := NewEqualityTest("exact value", map[string]any{"value": 37})
	require.NoError(t, err)

	s, err := tt.Judge(context.Background(), model.NewConst("exact", 37.0))
	require.NoError(t, err)
	require.True(t, s.Passed())

	s, err = tt.Judge(context.Background(), model.NewConst("off", 36.9))
	require.NoError(t, err)
	require.False(t, s.Passed())
}

func TestRangeTestJudgeWithBackendModel(t *testing.T) {
	tt, err := NewRangeTest("plausible range", map[string]any{"min": 1.0, "max": 10.0})
	require.NoError(t, err)

	registry := backend.NewRegistry()
	require.NoError(t, registry.Register(&backend.ConstantBackend{BackendName: "stub", Value: 5.0}))

	m := model.NewRunnable("sim", registry)
	require.NoError(t, m.SetBackend("stub"))

	s, err := tt.Judge(context.Background(), m)
	require.NoError(t, err)
	require.True(t, s.Passed())

	require.NoError(t, m.SetRunParams(map[string]any{"value": 11.0}))
	s, err = tt.Judge(context.Background(), m)
	require.NoError(t, err)
	require.False(t, s.Passed())
}

func TestRatioTestJudge(t *testing.T) {
	tt, err := NewRatioTest("ratio", map[string]any{"value": 10.0})
	require.NoError(t, err)

	s, err := tt.Judge(context.Background(), model.NewConst("m", 15.0))
	require.NoError(t, err)
	require.Equal(t, score.KindRatio, s.Kind())
	require.InDelta(t, 1.5, s.Value(), 1e-12)

	t.Run("negative ratio is a contract violation in both modes", func(t *testing.T) {
		neg := model.NewConst("neg", -5.0)
		var ise *score.InvalidScoreError

		_, err := tt.Judge(context.Background(), neg)
		require.ErrorAs(t, err, &ise)

		_, err = tt.JudgeIsolated(context.Background(), neg)
		require.ErrorAs(t, err, &ise)
	})
}

func TestJudgeMissingCapability(t *testing.T) {
	tt, err := NewZTest("z", map[string]any{"mean": 0.0, "std": 1.0})
	require.NoError(t, err)
	bare := &incapableModel{Base: model.Base{ModelName: "bare"}}

	t.Run("strict raises", func(t *testing.T) {
		_, err := tt.Judge(context.Background(), bare)
		var ce *capability.CapabilityError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "bare", ce.Model)
		require.Equal(t, "ProducesNumber", ce.Capability)
	})

	t.Run("isolated binds NA", func(t *testing.T) {
		s, err := tt.JudgeIsolated(context.Background(), bare)
		require.NoError(t, err)
		require.Equal(t, score.KindNA, s.Kind())
		require.True(t, s.Bound())
		require.Equal(t, "bare", s.ModelName())
	})
}

func TestJudgePredictionFailure(t *testing.T) {
	tt, err := NewZTest("z", map[string]any{"mean": 0.0, "std": 1.0})
	require.NoError(t, err)
	broken := &failingModel{
		Base: model.Base{ModelName: "broken"},
		err:  errors.New("simulation diverged"),
	}

	t.Run("strict raises PredictionError", func(t *testing.T) {
		_, err := tt.Judge(context.Background(), broken)
		var pe *PredictionError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, "broken", pe.Model)
		require.ErrorContains(t, pe, "simulation diverged")
	})

	t.Run("isolated binds insufficient data", func(t *testing.T) {
		s, err := tt.JudgeIsolated(context.Background(), broken)
		require.NoError(t, err)
		require.Equal(t, score.KindInsufficientData, s.Kind())
		require.Contains(t, s.Reason(), "simulation diverged")
	})

	t.Run("unimplemented capability method binds NA", func(t *testing.T) {
		partial := &failingModel{
			Base: model.Base{ModelName: "partial"},
			err:  capability.NotImplemented("ProducesNumber", "ProduceNumber"),
		}
		s, err := tt.JudgeIsolated(context.Background(), partial)
		require.NoError(t, err)
		require.Equal(t, score.KindNA, s.Kind())

		_, err = tt.Judge(context.Background(), partial)
		var ce *capability.CapabilityError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("parameter violations are never absorbed", func(t *testing.T) {
		badParams := &failingModel{
			Base: model.Base{ModelName: "bad-params"},
			err:  &backend.ParametersError{Backend: "program", Reason: "args must be a list"},
		}
		_, err := tt.JudgeIsolated(context.Background(), badParams)
		var pe *backend.ParametersError
		require.ErrorAs(t, err, &pe)
	})
}

func TestConverterRunsBeforeKindCheck(t *testing.T) {
	// The compute step produces a float difference; the converter turns
	// it into the boolean verdict the test declares.
	tt, err := New(Definition{
		Name:         "close enough",
		Observation:  map[string]any{"value": 37.8},
		Capabilities: []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:    score.KindBoolean,
		Converter:    convert.AtMostToBoolean{Cutoff: 1.0},
		Predict:      predictNumber,
		Compute: func(obs, pred any) (score.Score, error) {
			want, _ := score.Numeric(obs.(map[string]any)["value"])
			got, _ := score.Numeric(pred)
			diff := got - want
			if diff < 0 {
				diff = -diff
			}
			return score.NewFloat(diff), nil
		},
	})
	require.NoError(t, err)

	s, err := tt.Judge(context.Background(), model.NewConst("near", 37.0))
	require.NoError(t, err)
	require.True(t, s.Passed())

	s, err = tt.Judge(context.Background(), model.NewConst("far", 35.0))
	require.NoError(t, err)
	require.False(t, s.Passed())
}

func TestConverterRejectsWrongSourceKind(t *testing.T) {
	// A compute step that already yields the verdict kind hands the
	// numeric converter nothing to threshold. That is a bug in the test
	// definition and surfaces as a contract violation in both modes.
	tt, err := New(Definition{
		Name:         "already boolean",
		Observation:  map[string]any{"value": 1.0},
		Capabilities: []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:    score.KindBoolean,
		Converter:    convert.AtMostToBoolean{Cutoff: 1.0},
		Predict:      predictNumber,
		Compute: func(obs, pred any) (score.Score, error) {
			return score.NewBoolean(true), nil
		},
	})
	require.NoError(t, err)

	_, err = tt.Judge(context.Background(), model.NewConst("m", 1.0))
	var ise *score.InvalidScoreError
	require.ErrorAs(t, err, &ise)

	_, err = tt.JudgeIsolated(context.Background(), model.NewConst("m", 1.0))
	require.ErrorAs(t, err, &ise, "contract violations are never absorbed")
}

func TestKindMismatchIsInvalidScore(t *testing.T) {
	tt, err := New(Definition{
		Name:         "mismatched",
		Observation:  map[string]any{"value": 1.0},
		Capabilities: []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:    score.KindBoolean,
		Predict:      predictNumber,
		Compute: func(_, pred any) (score.Score, error) {
			v, _ := score.Numeric(pred)
			return score.NewFloat(v), nil
		},
	})
	require.NoError(t, err)

	_, err = tt.Judge(context.Background(), model.NewConst("m", 1.0))
	var ise *score.InvalidScoreError
	require.ErrorAs(t, err, &ise)
}

func TestIncompleteScoresBypassKindCheck(t *testing.T) {
	tt, err := NewZTest("z", map[string]any{"mean": 0.0, "std": 1.0})
	require.NoError(t, err)

	// A prediction the compute step cannot use yields insufficient data,
	// which is allowed regardless of the declared kind.
	nan := &failingModel{Base: model.Base{ModelName: "nan"}, err: fmt.Errorf("no value")}
	s, err := tt.JudgeIsolated(context.Background(), nan)
	require.NoError(t, err)
	require.False(t, s.Complete())
}

func TestCheck(t *testing.T) {
	tt, err := NewZTest("z", map[string]any{"mean": 0.0, "std": 1.0})
	require.NoError(t, err)

	s := tt.Check(context.Background(), model.NewConst("capable", 1.0))
	require.Equal(t, score.KindTBD, s.Kind())
	require.True(t, s.Bound())

	s = tt.Check(context.Background(), &incapableModel{Base: model.Base{ModelName: "bare"}})
	require.Equal(t, score.KindNA, s.Kind())
}
