package config

import (
	"fmt"
	"log/slog"

	"github.com/verimod/verimod/internal/backend"
	"github.com/verimod/verimod/internal/convert"
	"github.com/verimod/verimod/internal/judge"
	"github.com/verimod/verimod/internal/model"
	"github.com/verimod/verimod/internal/score"
	"github.com/verimod/verimod/internal/suite"
)

// BuildResult is everything a validated suite definition expands into.
type BuildResult struct {
	Suite    *suite.Suite
	Models   []model.Model
	Registry *backend.Registry
}

// BuildOption configures suite construction.
type BuildOption func(*builder)

// WithResultCache enables run caching for all runnable models.
func WithResultCache(c backend.Cache) BuildOption {
	return func(b *builder) { b.cache = c }
}

// WithBuildLogger routes construction and run logging.
func WithBuildLogger(l *slog.Logger) BuildOption {
	return func(b *builder) { b.logger = l }
}

type builder struct {
	cache  backend.Cache
	logger *slog.Logger
}

// Build turns a validated spec into a runnable suite, its models, and
// the backend registry they share. Misconfiguration the schema cannot
// express, such as a model naming an unregistered backend, fails here.
func Build(spec *SuiteSpec, opts ...BuildOption) (*BuildResult, error) {
	b := &builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	registry := backend.NewRegistry()
	for _, bs := range spec.Backends {
		be, err := buildBackend(bs)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(be); err != nil {
			return nil, fmt.Errorf("suite %q: %w", spec.Name, err)
		}
	}

	models := make([]model.Model, 0, len(spec.Models))
	for _, ms := range spec.Models {
		m, err := b.buildModel(ms, registry)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", spec.Name, err)
		}
		models = append(models, m)
	}

	tests := make([]*judge.Test, 0, len(spec.Tests))
	for _, ts := range spec.Tests {
		t, err := buildTest(ts)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", spec.Name, err)
		}
		tests = append(tests, t)
	}

	options := []suite.Option{suite.WithLogger(b.logger)}
	if spec.Parallel > 0 {
		options = append(options, suite.WithParallel(spec.Parallel))
	}
	if len(spec.IncludeModels) > 0 {
		options = append(options, suite.WithIncludeModels(spec.IncludeModels...))
	}
	if len(spec.SkipModels) > 0 {
		options = append(options, suite.WithSkipModels(spec.SkipModels...))
	}
	if len(spec.Weights) > 0 {
		options = append(options, suite.WithWeights(spec.Weights))
	}

	s, err := suite.New(spec.Name, tests, options...)
	if err != nil {
		return nil, err
	}
	return &BuildResult{Suite: s, Models: models, Registry: registry}, nil
}

func buildBackend(bs BackendSpec) (backend.Backend, error) {
	switch bs.Kind {
	case "constant":
		return &backend.ConstantBackend{BackendName: bs.Name, Value: bs.Value}, nil
	case "program":
		if bs.Command == "" {
			return nil, fmt.Errorf("backend %q: program backends need a command", bs.Name)
		}
		return &backend.ProgramBackend{BackendName: bs.Name, Command: bs.Command, Args: bs.Args}, nil
	default:
		return nil, fmt.Errorf("backend %q: unknown kind %q", bs.Name, bs.Kind)
	}
}

func (b *builder) buildModel(ms ModelSpec, registry *backend.Registry) (model.Model, error) {
	switch ms.Kind {
	case "constant":
		return model.NewConst(ms.Name, ms.Value), nil
	case "uniform":
		return model.NewUniform(ms.Name, ms.Low, ms.High, ms.Seed)
	case "runnable":
		opts := []model.RunnableOption{model.WithLogger(b.logger)}
		if b.cache != nil {
			opts = append(opts, model.WithCache(b.cache))
		}
		m := model.NewRunnable(ms.Name, registry, opts...)
		if ms.Backend == "" {
			return nil, fmt.Errorf("model %q: runnable models need a backend", ms.Name)
		}
		if err := m.SetBackend(ms.Backend); err != nil {
			return nil, err
		}
		if len(ms.Params) > 0 {
			if err := m.SetRunParams(ms.Params); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("model %q: unknown kind %q", ms.Name, ms.Kind)
	}
}

func buildTest(ts TestSpec) (*judge.Test, error) {
	var opts []judge.TestOption
	if ts.Converter != nil && ts.Converter.Kind != "none" {
		switch ts.Kind {
		case "zscore", "ratio":
		default:
			return nil, fmt.Errorf("test %q: converters apply only to numeric test kinds, not %q", ts.Name, ts.Kind)
		}
		c, err := buildConverter(*ts.Converter)
		if err != nil {
			return nil, fmt.Errorf("test %q: %w", ts.Name, err)
		}
		opts = append(opts, judge.WithConverter(c, score.KindBoolean))
	}

	switch ts.Kind {
	case "equality":
		return judge.NewEqualityTest(ts.Name, ts.Observation, opts...)
	case "range":
		return judge.NewRangeTest(ts.Name, ts.Observation, opts...)
	case "zscore":
		return judge.NewZTest(ts.Name, ts.Observation, opts...)
	case "ratio":
		return judge.NewRatioTest(ts.Name, ts.Observation, opts...)
	default:
		return nil, fmt.Errorf("test %q: unknown kind %q", ts.Name, ts.Kind)
	}
}

func buildConverter(cs ConverterSpec) (convert.Converter, error) {
	switch cs.Kind {
	case "range_to_boolean":
		return convert.RangeToBoolean{Min: cs.Min, Max: cs.Max}, nil
	case "at_least":
		return convert.AtLeastToBoolean{Cutoff: cs.Cutoff}, nil
	case "at_most":
		return convert.AtMostToBoolean{Cutoff: cs.Cutoff}, nil
	case "none":
		return convert.NoConversion{}, nil
	default:
		return nil, fmt.Errorf("unknown converter kind %q", cs.Kind)
	}
}
