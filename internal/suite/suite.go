// Package suite runs collections of tests against collections of models
// and aggregates the resulting scores into ordered arrays and matrices.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/verimod/verimod/internal/judge"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
)

// Hook observes each bound score as judging progresses. Hooks may be
// called from multiple goroutines when the suite runs in parallel, but
// never concurrently with each other.
type Hook func(s score.Score)

// Suite is an ordered collection of tests judged as a unit.
type Suite struct {
	name     string
	tests    []*judge.Test
	weights  map[string]float64
	include  map[string]bool
	skip     map[string]bool
	parallel int
	hooks    []Hook
	logger   *slog.Logger
}

// Option configures a suite at construction.
type Option func(*Suite)

// WithWeights assigns per-test weights used by composite aggregates.
func WithWeights(weights map[string]float64) Option {
	return func(s *Suite) { s.weights = weights }
}

// WithIncludeModels restricts judging to the named models.
func WithIncludeModels(names ...string) Option {
	return func(s *Suite) {
		s.include = map[string]bool{}
		for _, n := range names {
			s.include[n] = true
		}
	}
}

// WithSkipModels excludes the named models from judging.
func WithSkipModels(names ...string) Option {
	return func(s *Suite) {
		s.skip = map[string]bool{}
		for _, n := range names {
			s.skip[n] = true
		}
	}
}

// WithParallel bounds the number of concurrent judgments. The default of
// 1 judges sequentially.
func WithParallel(n int) Option {
	return func(s *Suite) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// WithHook registers a progress observer.
func WithHook(h Hook) Option {
	return func(s *Suite) { s.hooks = append(s.hooks, h) }
}

// WithLogger routes the suite's run logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Suite) { s.logger = l }
}

// New builds a suite over the given tests. Test names must be unique
// within a suite.
func New(name string, tests []*judge.Test, opts ...Option) (*Suite, error) {
	if name == "" {
		return nil, fmt.Errorf("suite name must not be empty")
	}
	if len(tests) == 0 {
		return nil, fmt.Errorf("suite %q has no tests", name)
	}
	seen := map[string]bool{}
	for _, t := range tests {
		if seen[t.Name()] {
			return nil, fmt.Errorf("suite %q has duplicate test %q", name, t.Name())
		}
		seen[t.Name()] = true
	}

	s := &Suite{
		name:     name,
		tests:    tests,
		parallel: 1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the suite's display name.
func (s *Suite) Name() string { return s.name }

// Tests returns the suite's tests in order.
func (s *Suite) Tests() []*judge.Test { return s.tests }

// Weights returns the per-test weights, nil when unweighted.
func (s *Suite) Weights() map[string]float64 { return s.weights }

// selected applies the include and skip filters, preserving order.
func (s *Suite) selected(models []model.Model) []model.Model {
	out := make([]model.Model, 0, len(models))
	for _, m := range models {
		if s.include != nil && !s.include[m.Name()] {
			continue
		}
		if s.skip[m.Name()] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Judge runs every test against every selected model with batch
// semantics and returns the full score matrix. Cell order is independent
// of scheduling: rows follow suite order and columns follow model order.
// The first contract violation aborts the run.
func (s *Suite) Judge(ctx context.Context, models []model.Model) (*ScoreMatrix, error) {
	models = s.selected(models)

	matrix := NewScoreMatrix(testNames(s.tests), modelNames(models))

	// Cells are computed into an indexed slice so parallel completion
	// order cannot leak into the matrix.
	type cell struct {
		test  string
		model string
		score score.Score
	}
	cells := make([]cell, len(s.tests)*len(models))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.parallel)

	var hookMu sync.Mutex
	for ti, t := range s.tests {
		for mi, m := range models {
			idx := ti*len(models) + mi
			group.Go(func() error {
				sc, err := t.JudgeIsolated(groupCtx, m)
				if err != nil {
					return err
				}
				cells[idx] = cell{test: t.Name(), model: m.Name(), score: sc}
				s.logger.Debug("judged", "suite", s.name, "test", t.Name(), "model", m.Name(), "score", sc.String())

				hookMu.Lock()
				defer hookMu.Unlock()
				for _, h := range s.hooks {
					h(sc)
				}
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("suite %q: %w", s.name, err)
	}

	for _, c := range cells {
		if err := matrix.Set(c.test, c.model, c.score); err != nil {
			return nil, err
		}
	}
	return matrix, nil
}

// JudgeOne runs every test against a single model and returns the
// scores in suite order.
func (s *Suite) JudgeOne(ctx context.Context, m model.Model) ([]score.Score, error) {
	scores := make([]score.Score, 0, len(s.tests))
	for _, t := range s.tests {
		sc, err := t.JudgeIsolated(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", s.name, err)
		}
		scores = append(scores, sc)
	}
	return scores, nil
}

// Check reports takeability for every (test, model) pair without running
// any model.
func (s *Suite) Check(ctx context.Context, models []model.Model) *ScoreMatrix {
	models = s.selected(models)
	matrix := NewScoreMatrix(testNames(s.tests), modelNames(models))
	for _, t := range s.tests {
		for _, m := range models {
			matrix.Set(t.Name(), m.Name(), t.Check(ctx, m))
		}
	}
	return matrix
}

func testNames(tests []*judge.Test) []string {
	out := make([]string, len(tests))
	for i, t := range tests {
		out[i] = t.Name()
	}
	return out
}

func modelNames(models []model.Model) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.Name()
	}
	return out
}
