// Package reporting turns score matrices into run records, JUnit XML,
// and terminal tables.
package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/verimod/verimod/internal/statistics"
	"github.com/verimod/verimod/internal/suite"
)

// CellRecord is one (test, model) judgment in a run record.
type CellRecord struct {
	Test        string  `json:"test"`
	Model       string  `json:"model"`
	Kind        string  `json:"kind"`
	Display     string  `json:"display"`
	Complete    bool    `json:"complete"`
	NormScore   float64 `json:"norm_score"`
	SortValue   float64 `json:"sort_value"`
	Description string  `json:"description,omitempty"`
}

// ModelDigest summarizes one model's column. MeanNormScore honors the
// suite's per-test weights; Summary stays unweighted.
type ModelDigest struct {
	Model         string                         `json:"model"`
	Complete      int                            `json:"complete"`
	Incomplete    int                            `json:"incomplete"`
	MeanNormScore float64                        `json:"mean_norm_score"`
	Summary       statistics.Summary             `json:"summary"`
	Confidence    *statistics.ConfidenceInterval `json:"confidence,omitempty"`
}

// RunOutcome is the persistent record of one suite run.
type RunOutcome struct {
	RunID     string        `json:"run_id"`
	Suite     string        `json:"suite"`
	Timestamp time.Time     `json:"timestamp"`
	Tests     []string      `json:"tests"`
	Models    []string      `json:"models"`
	Cells     []CellRecord  `json:"cells"`
	Digests   []ModelDigest `json:"digests"`
}

// BuildOutcome assembles the run record for a judged matrix. Cell order
// follows the matrix: tests outermost, models innermost. weights are the
// suite's per-test weights; nil means every test counts equally.
func BuildOutcome(suiteName string, matrix *suite.ScoreMatrix, weights map[string]float64) *RunOutcome {
	outcome := &RunOutcome{
		RunID:     uuid.NewString(),
		Suite:     suiteName,
		Timestamp: time.Now().UTC(),
		Tests:     matrix.Tests(),
		Models:    matrix.Models(),
	}

	for _, test := range outcome.Tests {
		for _, model := range outcome.Models {
			s, ok := matrix.Get(test, model)
			if !ok {
				continue
			}
			// Float scores have no canonical normalization; record the
			// sort value instead so the JSON stays encodable.
			norm := s.NormScore()
			if math.IsNaN(norm) {
				norm = s.SortValue()
			}
			outcome.Cells = append(outcome.Cells, CellRecord{
				Test:        test,
				Model:       model,
				Kind:        string(s.Kind()),
				Display:     s.String(),
				Complete:    s.Complete(),
				NormScore:   norm,
				SortValue:   s.SortValue(),
				Description: s.Describe(),
			})
		}
	}

	for _, model := range outcome.Models {
		digest := ModelDigest{
			Model:         model,
			MeanNormScore: matrix.MeanNormScore(model, weights),
		}
		var norms []float64
		for _, s := range matrix.ByModel(model) {
			if s.Complete() {
				digest.Complete++
				norms = append(norms, s.SortValue())
			} else {
				digest.Incomplete++
			}
		}
		digest.Summary = statistics.Summarize(norms)
		if len(norms) >= 2 {
			ci := statistics.BootstrapCI(norms, 0.95)
			digest.Confidence = &ci
		}
		outcome.Digests = append(outcome.Digests, digest)
	}

	return outcome
}

// WriteJSON writes the run record to path as indented JSON.
func (o *RunOutcome) WriteJSON(path string) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
