package suite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verimod/verimod/internal/capability"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
)

func newPairwiseEquality(t *testing.T, policy DiagonalPolicy) *M2MTest {
	t.Helper()
	m2m, err := NewM2M(M2MDefinition{
		Name:         "pairwise equality",
		Capabilities: []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:    score.KindBoolean,
		Diagonal:     policy,
		Predict: func(ctx context.Context, m model.Model) (any, error) {
			return m.(capability.ProducesNumber).ProduceNumber(ctx)
		},
		Compare: func(reference, candidate any) (score.Score, error) {
			return score.ComputeEquality(reference, candidate), nil
		},
	})
	require.NoError(t, err)
	return m2m
}

func TestM2MJudge(t *testing.T) {
	models := []model.Model{
		model.NewConst("a", 1),
		model.NewConst("b", 1),
		model.NewConst("c", 2),
	}

	t.Run("default diagonal is incomplete", func(t *testing.T) {
		matrix, err := newPairwiseEquality(t, "").Judge(context.Background(), models)
		require.NoError(t, err)
		require.Equal(t, 9, matrix.Len())

		for _, name := range matrix.Models() {
			s, ok := matrix.Get(name, name)
			require.True(t, ok)
			require.Equal(t, score.KindNone, s.Kind())
		}

		s, _ := matrix.Get("a", "b")
		require.True(t, s.Passed())
		s, _ = matrix.Get("a", "c")
		require.False(t, s.Passed())
	})

	t.Run("self identity computes the diagonal", func(t *testing.T) {
		matrix, err := newPairwiseEquality(t, DiagonalSelfIdentity).Judge(context.Background(), models)
		require.NoError(t, err)
		for _, name := range matrix.Models() {
			s, ok := matrix.Get(name, name)
			require.True(t, ok)
			require.True(t, s.Passed())
		}
	})

	t.Run("skip omits the diagonal", func(t *testing.T) {
		matrix, err := newPairwiseEquality(t, DiagonalSkip).Judge(context.Background(), models)
		require.NoError(t, err)
		require.Equal(t, 6, matrix.Len())
		_, ok := matrix.Get("a", "a")
		require.False(t, ok)
		require.Len(t, matrix.Row("a"), 2)
	})
}

func TestM2MSharedReference(t *testing.T) {
	m2m, err := NewM2M(M2MDefinition{
		Name:         "agreement with reference",
		Capabilities: []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:    score.KindBoolean,
		Observation:  1.0,
		Predict: func(ctx context.Context, m model.Model) (any, error) {
			return m.(capability.ProducesNumber).ProduceNumber(ctx)
		},
		Compare: func(reference, candidate any) (score.Score, error) {
			return score.ComputeEquality(reference, candidate), nil
		},
	})
	require.NoError(t, err)

	models := []model.Model{
		model.NewConst("a", 1),
		model.NewConst("b", 2),
	}
	matrix, err := m2m.Judge(context.Background(), models)
	require.NoError(t, err)

	require.Equal(t, []string{"observation", "a", "b"}, matrix.Models())
	require.Equal(t, 9, matrix.Len())

	s, ok := matrix.Get("observation", "a")
	require.True(t, ok)
	require.True(t, s.Passed())
	s, _ = matrix.Get("observation", "b")
	require.False(t, s.Passed())

	// Symmetric lookup: models judged against the reference column.
	s, _ = matrix.Get("b", "observation")
	require.False(t, s.Passed())
}

func TestM2MIncapableModel(t *testing.T) {
	models := []model.Model{
		model.NewConst("a", 1),
		&bareModel{Base: model.Base{ModelName: "bare"}},
	}
	matrix, err := newPairwiseEquality(t, DiagonalSelfIdentity).Judge(context.Background(), models)
	require.NoError(t, err)

	// The incapable model's whole row and column are NA.
	s, _ := matrix.Get("bare", "a")
	require.Equal(t, score.KindNA, s.Kind())
	s, _ = matrix.Get("a", "bare")
	require.Equal(t, score.KindNA, s.Kind())
	s, _ = matrix.Get("a", "a")
	require.True(t, s.Passed())
}

func TestM2MValidation(t *testing.T) {
	_, err := NewM2M(M2MDefinition{Name: "", ScoreKind: score.KindBoolean})
	require.Error(t, err)

	_, err = NewM2M(M2MDefinition{Name: "x", ScoreKind: score.KindNA})
	require.ErrorContains(t, err, "complete kind")

	_, err = NewM2M(M2MDefinition{
		Name:      "x",
		ScoreKind: score.KindBoolean,
		Diagonal:  DiagonalPolicy("bogus"),
		Predict:   func(context.Context, model.Model) (any, error) { return nil, nil },
		Compare:   func(any, any) (score.Score, error) { return score.NewBoolean(true), nil },
	})
	require.ErrorContains(t, err, "diagonal policy")
}
