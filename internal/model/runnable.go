package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verimod/verimod/internal/backend"
	"github.com/verimod/verimod/internal/capability"
)

// RunnableModel delegates execution to a backend resolved from an
// explicit registry. It implements both Runnable and ProducesNumber so
// numeric tests can judge backend-driven models directly.
type RunnableModel struct {
	Base

	registry *backend.Registry
	backend  backend.Backend
	params   map[string]any
	cache    backend.Cache
	logger   *slog.Logger
}

// RunnableOption configures a RunnableModel at construction.
type RunnableOption func(*RunnableModel)

// WithCache enables result caching for the model's runs.
func WithCache(c backend.Cache) RunnableOption {
	return func(m *RunnableModel) { m.cache = c }
}

// WithLogger routes the model's run logging.
func WithLogger(l *slog.Logger) RunnableOption {
	return func(m *RunnableModel) { m.logger = l }
}

// NewRunnable returns a model that executes through backends from
// registry. A backend must be selected with SetBackend before Run.
func NewRunnable(name string, registry *backend.Registry, opts ...RunnableOption) *RunnableModel {
	m := &RunnableModel{
		Base:     Base{ModelName: name},
		registry: registry,
		params:   map[string]any{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetBackend resolves and pins the named backend. Resolution happens
// here, not at run time, so a misconfigured suite fails before any
// judging starts.
func (m *RunnableModel) SetBackend(name string) error {
	b, err := m.registry.Resolve(name)
	if err != nil {
		return fmt.Errorf("model %q: %w", m.ModelName, err)
	}
	m.backend = b
	return nil
}

// Backend returns the currently selected backend, or nil.
func (m *RunnableModel) Backend() backend.Backend { return m.backend }

// SetRunParams replaces the run parameters, validating them against the
// selected backend when it supports validation. Rejected parameters
// surface as *backend.ParametersError.
func (m *RunnableModel) SetRunParams(params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	if v, ok := m.backend.(backend.ParamsValidator); ok {
		if err := v.ValidateParams(params); err != nil {
			return err
		}
	}
	m.params = params
	return nil
}

// RunParams returns the current run parameters.
func (m *RunnableModel) RunParams() map[string]any { return m.params }

// Run executes the selected backend with the current parameters,
// consulting the result cache first when one is configured.
func (m *RunnableModel) Run(ctx context.Context) (any, error) {
	if m.backend == nil {
		return nil, fmt.Errorf("model %q has no backend selected", m.ModelName)
	}

	var key string
	if m.cache != nil {
		key = backend.CacheKey(m.backend.Name(), m.params)
		if v, ok, err := m.cache.Get(key); err != nil {
			return nil, fmt.Errorf("model %q: reading result cache: %w", m.ModelName, err)
		} else if ok {
			m.logger.Debug("run served from cache", "model", m.ModelName, "backend", m.backend.Name())
			return v, nil
		}
	}

	m.logger.Debug("running model", "model", m.ModelName, "backend", m.backend.Name())
	result, err := m.backend.Run(ctx, m.params)
	if err != nil {
		return nil, fmt.Errorf("model %q: backend %q: %w", m.ModelName, m.backend.Name(), err)
	}

	if m.cache != nil {
		if err := m.cache.Put(key, result); err != nil {
			return nil, fmt.Errorf("model %q: writing result cache: %w", m.ModelName, err)
		}
	}
	return result, nil
}

// ProduceNumber runs the model and coerces the result to a number.
func (m *RunnableModel) ProduceNumber(ctx context.Context) (float64, error) {
	result, err := m.Run(ctx)
	if err != nil {
		return 0, err
	}
	n, ok := coerceNumber(result)
	if !ok {
		return 0, fmt.Errorf("model %q: backend result %v (%T) is not numeric", m.ModelName, result, result)
	}
	return n, nil
}

func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	if m, ok := v.(map[string]any); ok {
		if n, ok := coerceNumber(m["value"]); ok {
			return n, true
		}
	}
	return 0, false
}

var (
	_ capability.Runnable       = (*RunnableModel)(nil)
	_ capability.ProducesNumber = (*RunnableModel)(nil)
)
