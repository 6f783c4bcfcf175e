// Package judge implements the judging protocol: a test holds an
// observation, checks a model's capabilities, asks the model for a
// prediction, and scores the prediction against the observation.
//
// Judging separates data-dependent failures from contract violations.
// A model that lacks a capability or cannot produce a usable prediction
// yields an incomplete score under batch judging; a test whose scoring
// logic produces an ill-formed score, or a backend handed parameters it
// cannot accept, always surfaces as an error.
package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/verimod/verimod/internal/backend"
	"github.com/verimod/verimod/internal/capability"
	"github.com/verimod/verimod/internal/convert"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
)

// PredictFunc extracts a prediction from a model. It runs only after the
// model has passed the test's capability check.
type PredictFunc func(ctx context.Context, m model.Model) (any, error)

// ComputeFunc scores a prediction against the test's observation.
type ComputeFunc func(observation, prediction any) (score.Score, error)

// Definition describes a test before construction. New validates it and
// returns an immutable Test.
type Definition struct {
	Name        string
	Description string

	// Observation is the empirical data models are judged against. When
	// ObservationSchema is set, New validates the observation against it
	// and fails with *ObservationError on mismatch.
	Observation       any
	ObservationSchema *jsonschema.Schema

	// ValidateObservation runs after the schema check and can reject
	// observations the schema cannot express, such as cross-field
	// constraints. Its error becomes an *ObservationError.
	ValidateObservation func(observation any) error

	// Capabilities a model must implement to take this test.
	Capabilities []capability.Capability

	// ScoreKind is the kind of complete score the test produces, after
	// conversion if a Converter is set.
	ScoreKind score.Kind

	// Converter optionally rewrites the computed score before the kind
	// check, for example a float difference into a pass/fail verdict.
	Converter convert.Converter

	Predict PredictFunc
	Compute ComputeFunc

	Logger *slog.Logger
}

// TestOption adjusts a definition before construction. The built-in
// test constructors accept options so configuration can attach
// converters without redefining the test.
type TestOption func(*Definition)

// WithConverter attaches a converter and declares the kind the test
// produces after conversion.
func WithConverter(c convert.Converter, produces score.Kind) TestOption {
	return func(d *Definition) {
		d.Converter = c
		d.ScoreKind = produces
	}
}

// Test judges models against one observation.
type Test struct {
	name        string
	description string
	observation any
	caps        []capability.Capability
	scoreKind   score.Kind
	converter   convert.Converter
	predict     PredictFunc
	compute     ComputeFunc
	logger      *slog.Logger
}

// New validates a definition and builds the test. Observation problems
// are reported here as *ObservationError so a malformed test never
// reaches a model.
func New(def Definition) (*Test, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("test name must not be empty")
	}
	if !def.ScoreKind.Valid() || !def.ScoreKind.Complete() {
		return nil, fmt.Errorf("test %q: score kind %q is not a complete kind", def.Name, def.ScoreKind)
	}
	if def.Predict == nil {
		return nil, fmt.Errorf("test %q: a predict function is required", def.Name)
	}
	if def.Compute == nil {
		return nil, fmt.Errorf("test %q: a compute function is required", def.Name)
	}
	if def.ObservationSchema != nil {
		if problems := validateObservation(def.ObservationSchema, def.Observation); len(problems) > 0 {
			return nil, &ObservationError{Test: def.Name, Problems: problems}
		}
	}
	if def.ValidateObservation != nil {
		if err := def.ValidateObservation(def.Observation); err != nil {
			return nil, &ObservationError{Test: def.Name, Problems: []string{err.Error()}}
		}
	}

	logger := def.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Test{
		name:        def.Name,
		description: def.Description,
		observation: def.Observation,
		caps:        def.Capabilities,
		scoreKind:   def.ScoreKind,
		converter:   def.Converter,
		predict:     def.Predict,
		compute:     def.Compute,
		logger:      logger,
	}, nil
}

// Name returns the test's display name.
func (t *Test) Name() string { return t.name }

// Describe returns the test's free-text description.
func (t *Test) Describe() string { return t.description }

// Observation returns the data the test judges against.
func (t *Test) Observation() any { return t.observation }

// ScoreKind returns the complete score kind the test produces.
func (t *Test) ScoreKind() score.Kind { return t.scoreKind }

// Capabilities returns the capabilities a model needs to take the test.
func (t *Test) Capabilities() []capability.Capability { return t.caps }

// CheckCapabilities reports whether m can take the test, returning a
// *capability.CapabilityError naming the first missing capability.
func (t *Test) CheckCapabilities(m model.Model) error {
	return capability.CheckRequired(m, t.caps)
}

// Check reports takeability without running the model: a bound TBD score
// when the model is capable, a bound NA score when it is not.
func (t *Test) Check(ctx context.Context, m model.Model) score.Score {
	var s score.Score
	if err := t.CheckCapabilities(m); err != nil {
		s = score.NewNA(err.Error())
	} else {
		s = score.NewTBD(fmt.Sprintf("model %q is capable of test %q but has not taken it", m.Name(), t.name))
	}
	return s.Bind(score.Provenance{Test: t.name, Model: m.Name(), Observation: t.observation})
}

// Judge runs the full protocol strictly: a missing capability or a failed
// prediction is returned as an error rather than absorbed into the score.
func (t *Test) Judge(ctx context.Context, m model.Model) (score.Score, error) {
	return t.judge(ctx, m, false)
}

// JudgeIsolated runs the protocol with batch semantics: a missing
// capability binds an NA score and a failed prediction binds an
// insufficient-data score. Contract violations still return errors.
func (t *Test) JudgeIsolated(ctx context.Context, m model.Model) (score.Score, error) {
	return t.judge(ctx, m, true)
}

func (t *Test) judge(ctx context.Context, m model.Model, isolated bool) (score.Score, error) {
	if err := t.CheckCapabilities(m); err != nil {
		if !isolated {
			return score.Score{}, err
		}
		t.logger.Debug("model lacks a required capability", "test", t.name, "model", m.Name(), "error", err)
		return t.bind(m, nil, score.NewNA(err.Error())), nil
	}

	prediction, err := t.predict(ctx, m)
	if err != nil {
		if isContractViolation(err) || ctx.Err() != nil {
			return score.Score{}, err
		}
		// A partial model may satisfy the interface but leave the method
		// unimplemented. That is a capability gap, not a prediction
		// failure.
		if errors.Is(err, capability.ErrNotImplemented) {
			if !isolated {
				return score.Score{}, &capability.CapabilityError{Model: m.Name(), Capability: err.Error()}
			}
			return t.bind(m, nil, score.NewNA(err.Error())), nil
		}
		predErr := &PredictionError{Test: t.name, Model: m.Name(), Err: err}
		if !isolated {
			return score.Score{}, predErr
		}
		t.logger.Debug("prediction failed", "test", t.name, "model", m.Name(), "error", err)
		return t.bind(m, nil, score.NewInsufficientData(predErr.Error())), nil
	}

	s, err := t.compute(t.observation, prediction)
	if err != nil {
		return score.Score{}, fmt.Errorf("test %q scoring model %q: %w", t.name, m.Name(), err)
	}

	if s.Complete() && t.converter != nil {
		s, err = t.converter.Convert(s)
		if err != nil {
			return score.Score{}, fmt.Errorf("test %q: converter %s: %w", t.name, t.converter.Name(), err)
		}
	}

	if s.Complete() && s.Kind() != t.scoreKind {
		return score.Score{}, &score.InvalidScoreError{
			Reason: fmt.Sprintf("test %q produced a %s score but declares %s", t.name, s.Kind(), t.scoreKind),
		}
	}

	return t.bind(m, prediction, s), nil
}

func (t *Test) bind(m model.Model, prediction any, s score.Score) score.Score {
	return s.Bind(score.Provenance{
		Test:        t.name,
		Model:       m.Name(),
		Observation: t.observation,
		Prediction:  prediction,
	})
}

// isContractViolation reports errors that must never be absorbed into an
// incomplete score.
func isContractViolation(err error) bool {
	var ise *score.InvalidScoreError
	var pe *backend.ParametersError
	return errors.As(err, &ise) || errors.As(err, &pe)
}
