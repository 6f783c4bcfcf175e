// Package convert rewrites scores from one kind to another after a test
// has computed them, so a single scoring routine can serve tests with
// different verdict shapes.
package convert

import (
	"fmt"

	"github.com/verimod/verimod/internal/score"
)

// Converter rewrites a completed score. Conversion runs before the score
// is bound to its test and model; incomplete scores pass through every
// converter unchanged.
type Converter interface {
	// Name identifies the converter in configuration and reports.
	Name() string
	// SourceKind is the score kind the converter accepts. Empty means
	// the converter is not restricted to one kind; the threshold
	// converters take any numeric complete kind.
	SourceKind() score.Kind
	// Convert rewrites s. A score whose kind does not match the declared
	// source fails with *score.InvalidScoreError. Implementations must
	// not be called with incomplete scores; the judging protocol filters
	// those out.
	Convert(s score.Score) (score.Score, error)
}

// numericValue extracts the payload of a numeric complete score. Any
// other kind is a contract violation.
func numericValue(name string, s score.Score) (float64, error) {
	switch s.Kind() {
	case score.KindZ, score.KindCohenD, score.KindRatio, score.KindPercent, score.KindFloat:
		return s.Value(), nil
	}
	return 0, &score.InvalidScoreError{
		Reason: fmt.Sprintf("converter %s takes a numeric score, got %s", name, s.Kind()),
	}
}

// NoConversion passes scores through untouched.
type NoConversion struct{}

func (NoConversion) Name() string           { return "NoConversion" }
func (NoConversion) SourceKind() score.Kind { return "" }
func (NoConversion) Convert(s score.Score) (score.Score, error) {
	return s, nil
}

// RangeToBoolean converts a numeric score to Pass when its value lies in
// [Min, Max], bounds inclusive.
type RangeToBoolean struct {
	Min float64
	Max float64
}

func (c RangeToBoolean) Name() string {
	return fmt.Sprintf("RangeToBoolean[%g, %g]", c.Min, c.Max)
}

func (c RangeToBoolean) SourceKind() score.Kind { return "" }

func (c RangeToBoolean) Convert(s score.Score) (score.Score, error) {
	v, err := numericValue(c.Name(), s)
	if err != nil {
		return score.Score{}, err
	}
	return score.NewBoolean(v >= c.Min && v <= c.Max).
		WithDescription(fmt.Sprintf("value %g checked against range [%g, %g]", v, c.Min, c.Max)), nil
}

// AtLeastToBoolean converts a numeric score to Pass when its value is at
// least Cutoff, inclusive.
type AtLeastToBoolean struct {
	Cutoff float64
}

func (c AtLeastToBoolean) Name() string {
	return fmt.Sprintf("AtLeastToBoolean[%g]", c.Cutoff)
}

func (c AtLeastToBoolean) SourceKind() score.Kind { return "" }

func (c AtLeastToBoolean) Convert(s score.Score) (score.Score, error) {
	v, err := numericValue(c.Name(), s)
	if err != nil {
		return score.Score{}, err
	}
	return score.NewBoolean(v >= c.Cutoff).
		WithDescription(fmt.Sprintf("value %g checked against cutoff >= %g", v, c.Cutoff)), nil
}

// AtMostToBoolean converts a numeric score to Pass when its value is at
// most Cutoff, inclusive.
type AtMostToBoolean struct {
	Cutoff float64
}

func (c AtMostToBoolean) Name() string {
	return fmt.Sprintf("AtMostToBoolean[%g]", c.Cutoff)
}

func (c AtMostToBoolean) SourceKind() score.Kind { return "" }

func (c AtMostToBoolean) Convert(s score.Score) (score.Score, error) {
	v, err := numericValue(c.Name(), s)
	if err != nil {
		return score.Score{}, err
	}
	return score.NewBoolean(v <= c.Cutoff).
		WithDescription(fmt.Sprintf("value %g checked against cutoff <= %g", v, c.Cutoff)), nil
}

// Func adapts an arbitrary function into a named Converter. When Kind is
// set, scores of any other kind are rejected before Fn runs.
type Func struct {
	ConverterName string
	Kind          score.Kind
	Fn            func(score.Score) (score.Score, error)
}

func (c Func) Name() string {
	if c.ConverterName != "" {
		return c.ConverterName
	}
	return "Func"
}

func (c Func) SourceKind() score.Kind { return c.Kind }

func (c Func) Convert(s score.Score) (score.Score, error) {
	if c.Kind != "" && s.Kind() != c.Kind {
		return score.Score{}, &score.InvalidScoreError{
			Reason: fmt.Sprintf("converter %s takes a %s score, got %s", c.Name(), c.Kind, s.Kind()),
		}
	}
	if c.Fn == nil {
		return s, nil
	}
	return c.Fn(s)
}
