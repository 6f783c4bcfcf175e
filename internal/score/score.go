// Package score defines the typed judgment results produced by tests.
//
// A Score is a closed tagged variant: complete kinds carry a comparison
// payload and support ordering by a normalized goodness value; incomplete
// kinds carry only the reason judgment could not complete. Scores have
// value semantics; once bound to a (test, model) pair they are never
// mutated, and attaching a description yields a copy.
package score

import (
	"fmt"
	"math"
	"sort"
)

// Kind tags the variant a Score carries.
type Kind string

const (
	KindBoolean Kind = "boolean"
	KindZ       Kind = "z"
	KindCohenD  Kind = "cohen_d"
	KindRatio   Kind = "ratio"
	KindPercent Kind = "percent"
	KindFloat   Kind = "float"

	KindNone             Kind = "none"
	KindTBD              Kind = "tbd"
	KindNA               Kind = "na"
	KindInsufficientData Kind = "insufficient_data"
)

// Complete reports whether the kind carries a comparison result.
func (k Kind) Complete() bool {
	switch k {
	case KindBoolean, KindZ, KindCohenD, KindRatio, KindPercent, KindFloat:
		return true
	}
	return false
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBoolean, KindZ, KindCohenD, KindRatio, KindPercent, KindFloat,
		KindNone, KindTBD, KindNA, KindInsufficientData:
		return true
	}
	return false
}

// Score is an immutable typed judgment result with provenance links.
type Score struct {
	kind        Kind
	passed      bool    // payload for KindBoolean
	value       float64 // payload for the numeric kinds
	reason      string  // payload for the incomplete kinds
	description string

	bound       bool
	test        string
	model       string
	observation any
	prediction  any
}

// Provenance links a score to the judgment that produced it.
type Provenance struct {
	Test        string
	Model       string
	Observation any
	Prediction  any
}

// NewBoolean returns a Pass (true) or Fail (false) score.
func NewBoolean(passed bool) Score {
	return Score{kind: KindBoolean, passed: passed}
}

// NewFloat returns a raw float score. Float scores have no canonical
// normalization.
func NewFloat(v float64) Score {
	return Score{kind: KindFloat, value: v}
}

// NewPercent returns a percent score, range-checked to [0, 100].
func NewPercent(v float64) (Score, error) {
	if v < 0 || v > 100 {
		return Score{}, &InvalidScoreError{Reason: fmt.Sprintf("percent score %g must be in range [0, 100]", v)}
	}
	return Score{kind: KindPercent, value: v}, nil
}

// NewRatio returns a ratio score, which must be non-negative.
func NewRatio(v float64) (Score, error) {
	if v < 0 {
		return Score{}, &InvalidScoreError{Reason: fmt.Sprintf("ratio score %g must be non-negative", v)}
	}
	return Score{kind: KindRatio, value: v}, nil
}

// NewNumeric builds a score of the given numeric kind, applying the kind's
// payload constraints. Boolean and incomplete kinds have their own
// constructors.
func NewNumeric(kind Kind, v float64) (Score, error) {
	switch kind {
	case KindZ, KindCohenD, KindFloat:
		return Score{kind: kind, value: v}, nil
	case KindRatio:
		return NewRatio(v)
	case KindPercent:
		return NewPercent(v)
	default:
		return Score{}, &InvalidScoreError{Reason: fmt.Sprintf("kind %q does not carry a numeric payload", kind)}
	}
}

// NewNone marks a judgment that was never attempted.
func NewNone(reason string) Score { return Score{kind: KindNone, reason: reason} }

// NewTBD marks a model that is capable of a test it has not yet taken.
func NewTBD(reason string) Score { return Score{kind: KindTBD, reason: reason} }

// NewNA marks a model that lacks a capability the test requires.
func NewNA(reason string) Score { return Score{kind: KindNA, reason: reason} }

// NewInsufficientData marks a judgment whose inputs could not support a
// comparison.
func NewInsufficientData(reason string) Score {
	return Score{kind: KindInsufficientData, reason: reason}
}

// Kind returns the variant tag.
func (s Score) Kind() Kind { return s.kind }

// Complete reports whether the score carries a comparison result.
func (s Score) Complete() bool { return s.kind.Complete() }

// Passed returns the boolean payload. It is meaningful only for
// KindBoolean scores.
func (s Score) Passed() bool { return s.kind == KindBoolean && s.passed }

// Value returns the numeric payload. It is meaningful only for the numeric
// complete kinds.
func (s Score) Value() float64 { return s.value }

// Reason returns why an incomplete judgment could not complete.
func (s Score) Reason() string { return s.reason }

// Bind attaches provenance and returns the finalized score. Binding is the
// last step of the judging protocol; the result is immutable apart from
// WithDescription.
func (s Score) Bind(p Provenance) Score {
	s.bound = true
	s.test = p.Test
	s.model = p.Model
	s.observation = p.Observation
	s.prediction = p.Prediction
	return s
}

// Bound reports whether provenance has been attached.
func (s Score) Bound() bool { return s.bound }

// TestName returns the name of the test that produced the score.
func (s Score) TestName() string { return s.test }

// ModelName returns the name of the model the score was computed for.
func (s Score) ModelName() string { return s.model }

// Observation returns the observation used for this judgment.
func (s Score) Observation() any { return s.observation }

// Prediction returns the prediction used for this judgment.
func (s Score) Prediction() any { return s.prediction }

// WithDescription returns a copy carrying a free-text rationale.
func (s Score) WithDescription(d string) Score {
	s.description = d
	return s
}

// Describe returns the free-text rationale attached to the score.
func (s Score) Describe() string {
	if s.description != "" {
		return s.description
	}
	if !s.kind.Complete() && s.reason != "" {
		return s.reason
	}
	return "No description available"
}

// Summarize returns a one-line provenance statement.
func (s Score) Summarize() string {
	return fmt.Sprintf("Model %s achieved score %s on test '%s'.", s.model, s.String(), s.test)
}

// String renders the short display form of the score.
func (s Score) String() string {
	switch s.kind {
	case KindBoolean:
		if s.passed {
			return "Pass"
		}
		return "Fail"
	case KindZ:
		return fmt.Sprintf("Z = %.2f", s.value)
	case KindCohenD:
		return fmt.Sprintf("D = %.2f", s.value)
	case KindRatio:
		return fmt.Sprintf("Ratio = %.2f", s.value)
	case KindPercent:
		return fmt.Sprintf("%.1f%%", s.value)
	case KindFloat:
		return fmt.Sprintf("%.3g", s.value)
	case KindNone:
		return "Unknown"
	case KindTBD:
		return "TBD"
	case KindNA:
		return "N/A"
	case KindInsufficientData:
		return "Insufficient Data"
	}
	return string(s.kind)
}

// NormScore maps the score onto [0, 1], 1 being perfect agreement. Float
// scores have no canonical mapping and return NaN; incomplete scores
// return 0.
func (s Score) NormScore() float64 {
	switch s.kind {
	case KindBoolean:
		if s.passed {
			return 1.0
		}
		return 0.0
	case KindZ, KindCohenD:
		return foldedCDF(s.value)
	case KindRatio:
		if s.value <= 0 {
			return 0.0
		}
		return foldedCDF(math.Log10(s.value))
	case KindPercent:
		return s.value / 100.0
	case KindFloat:
		return math.NaN()
	}
	return 0.0
}

// foldedCDF is 1 at v == 0 and falls toward 0 for extreme values in either
// direction.
func foldedCDF(v float64) float64 {
	cdf := (1.0 + math.Erf(v/math.Sqrt2)) / 2.0
	return 1.0 - 2.0*math.Abs(0.5-cdf)
}

// SortValue defines the total order used to rank scores across kinds.
// Incomplete scores sort below every complete score; Float scores, lacking
// a canonical normalization, sit just above the incomplete band.
func (s Score) SortValue() float64 {
	if !s.kind.Complete() {
		return -1.0
	}
	n := s.NormScore()
	if math.IsNaN(n) {
		return 0.0
	}
	return n
}

// Less orders s before other when s ranks worse.
func (s Score) Less(other Score) bool {
	return s.SortValue() < other.SortValue()
}

// EqualValue reports whether two scores carry the same judgment,
// disregarding provenance and description.
func (s Score) EqualValue(other Score) bool {
	return s.kind == other.kind &&
		s.passed == other.passed &&
		s.value == other.value &&
		s.reason == other.reason
}

// SortBestFirst sorts scores in place from best to worst, preserving the
// original order of equals.
func SortBestFirst(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[j].Less(scores[i])
	})
}
