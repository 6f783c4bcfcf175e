package judge

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/verimod/verimod/internal/capability"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
)

// Observation schemas for the built-in tests. Compiled once; a schema
// that fails to compile is a programming error.
var (
	valueObservationSchema *jsonschema.Schema
	rangeObservationSchema *jsonschema.Schema
	distObservationSchema  *jsonschema.Schema
)

const (
	valueObservationSchemaJSON = `{
		"type": "object",
		"properties": {"value": {"type": "number"}},
		"required": ["value"]
	}`
	rangeObservationSchemaJSON = `{
		"type": "object",
		"properties": {
			"min": {"type": "number"},
			"max": {"type": "number"}
		},
		"required": ["min", "max"]
	}`
	distObservationSchemaJSON = `{
		"type": "object",
		"properties": {
			"mean": {"type": "number"},
			"std": {"type": "number", "exclusiveMinimum": 0},
			"n": {"type": "integer", "minimum": 1}
		},
		"required": ["mean", "std"]
	}`
)

func init() {
	valueObservationSchema = mustCompileSchema(valueObservationSchemaJSON, "value.observation.schema.json")
	rangeObservationSchema = mustCompileSchema(rangeObservationSchemaJSON, "range.observation.schema.json")
	distObservationSchema = mustCompileSchema(distObservationSchemaJSON, "dist.observation.schema.json")
}

// predictNumber asks the model for a single number. All built-in tests
// require the ProducesNumber capability, so the assertion cannot fail
// after the capability check.
func predictNumber(ctx context.Context, m model.Model) (any, error) {
	producer, ok := m.(capability.ProducesNumber)
	if !ok {
		return nil, fmt.Errorf("model %q does not produce numbers", m.Name())
	}
	return producer.ProduceNumber(ctx)
}

// NewEqualityTest passes a model whose produced number equals the
// observation's "value" entry.
func NewEqualityTest(name string, observation map[string]any, opts ...TestOption) (*Test, error) {
	return newBuiltin(Definition{
		Name:              name,
		Description:       "Checks that the model produces exactly the observed value.",
		Observation:       observation,
		ObservationSchema: valueObservationSchema,
		Capabilities:      []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:         score.KindBoolean,
		Predict:           predictNumber,
		Compute: func(obs, pred any) (score.Score, error) {
			want, _ := score.Numeric(obs.(map[string]any)["value"])
			got, ok := score.Numeric(pred)
			if !ok {
				return score.NewInsufficientData(fmt.Sprintf("prediction %v is not numeric", pred)), nil
			}
			return score.NewBoolean(got == want).
				WithDescription(fmt.Sprintf("produced %g, observed %g", got, want)), nil
		},
	}, opts...)
}

// NewRangeTest passes a model whose produced number lies within the
// observation's [min, max] interval, bounds inclusive.
func NewRangeTest(name string, observation map[string]any, opts ...TestOption) (*Test, error) {
	lo, _ := score.Numeric(observation["min"])
	hi, _ := score.Numeric(observation["max"])
	return newBuiltin(Definition{
		Name:              name,
		Description:       "Checks that the model produces a value in the observed range.",
		Observation:       observation,
		ObservationSchema: rangeObservationSchema,
		ValidateObservation: func(any) error {
			if hi < lo {
				return fmt.Errorf("max %g is below min %g", hi, lo)
			}
			return nil
		},
		Capabilities:      []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:         score.KindBoolean,
		Predict:           predictNumber,
		Compute: func(obs, pred any) (score.Score, error) {
			got, ok := score.Numeric(pred)
			if !ok {
				return score.NewInsufficientData(fmt.Sprintf("prediction %v is not numeric", pred)), nil
			}
			return score.NewBoolean(got >= lo && got <= hi).
				WithDescription(fmt.Sprintf("produced %g, observed range [%g, %g]", got, lo, hi)), nil
		},
	}, opts...)
}

// NewZTest standardizes the model's produced number against an observed
// distribution with "mean" and "std".
func NewZTest(name string, observation map[string]any, opts ...TestOption) (*Test, error) {
	return newBuiltin(Definition{
		Name:              name,
		Description:       "Standardizes the model's value against the observed distribution.",
		Observation:       observation,
		ObservationSchema: distObservationSchema,
		Capabilities:      []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:         score.KindZ,
		Predict:           predictNumber,
		Compute: func(obs, pred any) (score.Score, error) {
			return score.ComputeZ(obs.(map[string]any), pred), nil
		},
	}, opts...)
}

// NewRatioTest divides the model's produced number by the observation's
// "value" entry.
func NewRatioTest(name string, observation map[string]any, opts ...TestOption) (*Test, error) {
	return newBuiltin(Definition{
		Name:              name,
		Description:       "Compares the model's value to the observed value as a ratio.",
		Observation:       observation,
		ObservationSchema: valueObservationSchema,
		Capabilities:      []capability.Capability{capability.ProducesNumberCap},
		ScoreKind:         score.KindRatio,
		Predict:           predictNumber,
		Compute: func(obs, pred any) (score.Score, error) {
			return score.ComputeRatio(obs.(map[string]any)["value"], pred)
		},
	}, opts...)
}

// newBuiltin applies construction options to a built-in definition.
func newBuiltin(def Definition, opts ...TestOption) (*Test, error) {
	for _, opt := range opts {
		opt(&def)
	}
	return New(def)
}
