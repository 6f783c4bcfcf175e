package suite

import (
	"context"
	"errors"
	"fmt"

	"github.com/verimod/verimod/internal/backend"
	"github.com/verimod/verimod/internal/capability"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
)

// DiagonalPolicy controls how a model-to-model test treats a model
// compared against itself.
type DiagonalPolicy string

const (
	// DiagonalIncomplete binds an incomplete score on the diagonal. This
	// is the default: a model's agreement with itself carries no
	// information.
	DiagonalIncomplete DiagonalPolicy = "incomplete"
	// DiagonalSelfIdentity computes the diagonal like any other cell.
	DiagonalSelfIdentity DiagonalPolicy = "self_identity"
	// DiagonalSkip leaves the diagonal cells out of the matrix entirely.
	DiagonalSkip DiagonalPolicy = "skip"
)

// CompareFunc scores one model's prediction against another's.
type CompareFunc func(reference, candidate any) (score.Score, error)

// M2MDefinition describes a model-to-model test, which judges every
// model's prediction against every other model's prediction instead of
// against an empirical observation.
type M2MDefinition struct {
	Name         string
	Capabilities []capability.Capability
	ScoreKind    score.Kind
	Diagonal     DiagonalPolicy

	// Observation, when set, joins the comparison as a shared reference
	// occupying the first row and column of the matrix. It is compared
	// like any model prediction.
	Observation any
	// ObservationName labels the reference row and column. Defaults to
	// "observation".
	ObservationName string

	// Predict extracts each model's prediction once per run.
	Predict func(ctx context.Context, m model.Model) (any, error)
	// Compare scores candidate against reference.
	Compare CompareFunc
}

// M2MTest judges models against each other.
type M2MTest struct {
	def M2MDefinition
}

// NewM2M validates a definition and builds the test.
func NewM2M(def M2MDefinition) (*M2MTest, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("model-to-model test name must not be empty")
	}
	if !def.ScoreKind.Valid() || !def.ScoreKind.Complete() {
		return nil, fmt.Errorf("test %q: score kind %q is not a complete kind", def.Name, def.ScoreKind)
	}
	if def.Predict == nil || def.Compare == nil {
		return nil, fmt.Errorf("test %q: predict and compare functions are required", def.Name)
	}
	if def.Diagonal == "" {
		def.Diagonal = DiagonalIncomplete
	}
	if def.ObservationName == "" {
		def.ObservationName = "observation"
	}
	switch def.Diagonal {
	case DiagonalIncomplete, DiagonalSelfIdentity, DiagonalSkip:
	default:
		return nil, fmt.Errorf("test %q: unknown diagonal policy %q", def.Name, def.Diagonal)
	}
	return &M2MTest{def: def}, nil
}

// Name returns the test's display name.
func (t *M2MTest) Name() string { return t.def.Name }

// ScoreMatrixM2M holds pairwise scores: rows are reference models,
// columns are candidate models, both in judging order.
type ScoreMatrixM2M struct {
	Test   string
	models []string
	cells  map[string]map[string]score.Score
}

func newScoreMatrixM2M(test string, models []string) *ScoreMatrixM2M {
	m := &ScoreMatrixM2M{
		Test:   test,
		models: append([]string{}, models...),
		cells:  map[string]map[string]score.Score{},
	}
	for _, name := range m.models {
		m.cells[name] = map[string]score.Score{}
	}
	return m
}

// Models returns the model names in judging order.
func (m *ScoreMatrixM2M) Models() []string {
	out := make([]string, len(m.models))
	copy(out, m.models)
	return out
}

// Get returns the score of candidate judged against reference. Skipped
// diagonal cells report false.
func (m *ScoreMatrixM2M) Get(reference, candidate string) (score.Score, bool) {
	row, ok := m.cells[reference]
	if !ok {
		return score.Score{}, false
	}
	s, ok := row[candidate]
	return s, ok
}

// Row returns the scores of all candidates against one reference, in
// model order, omitting skipped cells.
func (m *ScoreMatrixM2M) Row(reference string) []score.Score {
	row, ok := m.cells[reference]
	if !ok {
		return nil
	}
	out := make([]score.Score, 0, len(m.models))
	for _, c := range m.models {
		if s, present := row[c]; present {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of populated cells.
func (m *ScoreMatrixM2M) Len() int {
	n := 0
	for _, row := range m.cells {
		n += len(row)
	}
	return n
}

// participant is one row/column of a model-to-model run: a model's
// prediction, or the shared reference observation when the definition
// carries one.
type participant struct {
	name string
	pred any
	// incomplete, when non-zero, replaces every cell in this
	// participant's row and column.
	incomplete score.Score
}

// Judge extracts every model's prediction once, then scores every
// ordered pair. Models that lack a capability or fail to predict get
// incomplete scores across their whole row and column. A shared
// reference observation, when configured, occupies the first row and
// column.
func (t *M2MTest) Judge(ctx context.Context, models []model.Model) (*ScoreMatrixM2M, error) {
	parts := make([]participant, 0, len(models)+1)
	if t.def.Observation != nil {
		parts = append(parts, participant{name: t.def.ObservationName, pred: t.def.Observation})
	}
	for _, m := range models {
		p := participant{name: m.Name()}
		if err := capability.CheckRequired(m, t.def.Capabilities); err != nil {
			p.incomplete = score.NewNA(err.Error())
			parts = append(parts, p)
			continue
		}
		pred, err := t.def.Predict(ctx, m)
		if err != nil {
			if isContract(err) || ctx.Err() != nil {
				return nil, err
			}
			p.incomplete = score.NewInsufficientData(
				fmt.Sprintf("model %q failed to generate a prediction for test %q: %v", m.Name(), t.def.Name, err))
			parts = append(parts, p)
			continue
		}
		p.pred = pred
		parts = append(parts, p)
	}

	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = p.name
	}
	matrix := newScoreMatrixM2M(t.def.Name, names)

	for ri, ref := range parts {
		for ci, cand := range parts {
			if ri == ci && t.def.Diagonal == DiagonalSkip {
				continue
			}

			var s score.Score
			switch {
			case ref.incomplete.Kind() != "":
				s = ref.incomplete
			case cand.incomplete.Kind() != "":
				s = cand.incomplete
			case ri == ci && t.def.Diagonal == DiagonalIncomplete:
				s = score.NewNone("diagonal cell not compared")
			default:
				var err error
				s, err = t.def.Compare(ref.pred, cand.pred)
				if err != nil {
					return nil, fmt.Errorf("test %q comparing %q against %q: %w",
						t.def.Name, cand.name, ref.name, err)
				}
				if s.Complete() && s.Kind() != t.def.ScoreKind {
					return nil, &score.InvalidScoreError{
						Reason: fmt.Sprintf("test %q produced a %s score but declares %s",
							t.def.Name, s.Kind(), t.def.ScoreKind),
					}
				}
			}

			s = s.Bind(score.Provenance{
				Test:        t.def.Name,
				Model:       cand.name,
				Observation: ref.pred,
				Prediction:  cand.pred,
			})
			matrix.cells[ref.name][cand.name] = s
		}
	}
	return matrix, nil
}

func isContract(err error) bool {
	var ise *score.InvalidScoreError
	var pe *backend.ParametersError
	return errors.As(err, &ise) || errors.As(err, &pe)
}
