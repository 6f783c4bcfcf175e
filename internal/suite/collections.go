package suite

import (
	"fmt"
	"sort"

	"github.com/verimod/verimod/internal/score"
)

// ScoreArray holds the scores of one test across many models, preserving
// the order the models were judged in.
type ScoreArray struct {
	Test   string
	models []string
	scores map[string]score.Score
}

// NewScoreArray returns an empty array for the named test.
func NewScoreArray(test string) *ScoreArray {
	return &ScoreArray{Test: test, scores: map[string]score.Score{}}
}

// Add appends a model's score. Re-adding a model replaces its score in
// place without disturbing the order.
func (a *ScoreArray) Add(model string, s score.Score) {
	if _, exists := a.scores[model]; !exists {
		a.models = append(a.models, model)
	}
	a.scores[model] = s
}

// Models returns the model names in judging order.
func (a *ScoreArray) Models() []string {
	out := make([]string, len(a.models))
	copy(out, a.models)
	return out
}

// Get returns the score for a model by name.
func (a *ScoreArray) Get(model string) (score.Score, bool) {
	s, ok := a.scores[model]
	return s, ok
}

// Scores returns the scores in judging order.
func (a *ScoreArray) Scores() []score.Score {
	out := make([]score.Score, 0, len(a.models))
	for _, m := range a.models {
		out = append(out, a.scores[m])
	}
	return out
}

// Len returns the number of scored models.
func (a *ScoreArray) Len() int { return len(a.models) }

// MeanNormScore averages the normalized scores of the complete entries,
// weighting each model by weights (defaulting to 1). Incomplete scores
// are excluded and the remaining weights renormalized; an array with no
// complete scores averages to 0.
func (a *ScoreArray) MeanNormScore(weights map[string]float64) float64 {
	var sum, totalWeight float64
	for _, m := range a.models {
		s := a.scores[m]
		if !s.Complete() {
			continue
		}
		w := 1.0
		if weights != nil {
			if ww, ok := weights[m]; ok {
				w = ww
			}
		}
		sum += w * s.SortValue()
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// Stature returns the 1-based rank of a model among all models in the
// array, best score first.
func (a *ScoreArray) Stature(model string) (int, error) {
	target, ok := a.scores[model]
	if !ok {
		return 0, fmt.Errorf("model %q has no score on test %q", model, a.Test)
	}
	rank := 1
	for _, m := range a.models {
		if a.scores[m].SortValue() > target.SortValue() {
			rank++
		}
	}
	return rank, nil
}

// SortedByScore returns the model names from best to worst score. Ties
// keep judging order.
func (a *ScoreArray) SortedByScore() []string {
	out := a.Models()
	sort.SliceStable(out, func(i, j int) bool {
		return a.scores[out[i]].SortValue() > a.scores[out[j]].SortValue()
	})
	return out
}

// ScoreMatrix holds the scores of a suite run: rows are tests, columns
// are models, both in judging order.
type ScoreMatrix struct {
	tests  []string
	models []string
	rows   map[string]*ScoreArray
}

// NewScoreMatrix returns a matrix with the given row and column order.
func NewScoreMatrix(tests, models []string) *ScoreMatrix {
	m := &ScoreMatrix{
		tests:  append([]string{}, tests...),
		models: append([]string{}, models...),
		rows:   map[string]*ScoreArray{},
	}
	for _, t := range m.tests {
		m.rows[t] = NewScoreArray(t)
	}
	return m
}

// Set stores a score for a (test, model) cell.
func (m *ScoreMatrix) Set(test, model string, s score.Score) error {
	row, ok := m.rows[test]
	if !ok {
		return fmt.Errorf("matrix has no test %q", test)
	}
	row.Add(model, s)
	return nil
}

// Get returns the score for a (test, model) cell.
func (m *ScoreMatrix) Get(test, model string) (score.Score, bool) {
	row, ok := m.rows[test]
	if !ok {
		return score.Score{}, false
	}
	return row.Get(model)
}

// Tests returns the test names in judging order.
func (m *ScoreMatrix) Tests() []string {
	out := make([]string, len(m.tests))
	copy(out, m.tests)
	return out
}

// Models returns the model names in judging order.
func (m *ScoreMatrix) Models() []string {
	out := make([]string, len(m.models))
	copy(out, m.models)
	return out
}

// ByTest returns one test's row as a ScoreArray.
func (m *ScoreMatrix) ByTest(test string) (*ScoreArray, bool) {
	row, ok := m.rows[test]
	return row, ok
}

// ByModel returns one model's column in test order.
func (m *ScoreMatrix) ByModel(model string) []score.Score {
	out := make([]score.Score, 0, len(m.tests))
	for _, t := range m.tests {
		if s, ok := m.rows[t].Get(model); ok {
			out = append(out, s)
		}
	}
	return out
}

// MeanNormScore averages one model's normalized scores across tests,
// weighting each test by weights (defaulting to 1). Incomplete scores
// are excluded and the remaining weights renormalized; a model with no
// complete scores averages to 0.
func (m *ScoreMatrix) MeanNormScore(model string, weights map[string]float64) float64 {
	var sum, totalWeight float64
	for _, t := range m.tests {
		s, ok := m.rows[t].Get(model)
		if !ok || !s.Complete() {
			continue
		}
		w := 1.0
		if weights != nil {
			if ww, ok := weights[t]; ok {
				w = ww
			}
		}
		sum += w * s.SortValue()
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// Len returns the number of populated cells.
func (m *ScoreMatrix) Len() int {
	n := 0
	for _, row := range m.rows {
		n += row.Len()
	}
	return n
}
