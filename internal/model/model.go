// Package model defines the subjects of judgment. A model is anything
// with a name; what a model can do is expressed through the capability
// interfaces it implements, not through a class hierarchy.
package model

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/verimod/verimod/internal/capability"
)

// Model is the minimal contract for anything a test can judge.
type Model interface {
	Name() string
}

// Base carries the identity and free-form attributes shared by the
// built-in models. Embed it to satisfy Model.
type Base struct {
	ModelName string
	Attrs     map[string]any
}

func (b *Base) Name() string { return b.ModelName }

// Attributes returns the model's free-form metadata.
func (b *Base) Attributes() map[string]any { return b.Attrs }

// ConstModel produces the same number on every run.
type ConstModel struct {
	Base
	Constant float64
}

// NewConst returns a model that always produces c.
func NewConst(name string, c float64) *ConstModel {
	return &ConstModel{Base: Base{ModelName: name}, Constant: c}
}

func (m *ConstModel) ProduceNumber(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Constant, nil
}

// UniformModel produces numbers drawn uniformly from [Low, High). Seeded
// construction makes runs reproducible.
type UniformModel struct {
	Base
	Low  float64
	High float64
	rng  *rand.Rand
}

// NewUniform returns a model drawing from [low, high) with the given
// seed.
func NewUniform(name string, low, high float64, seed uint64) (*UniformModel, error) {
	if high < low {
		return nil, fmt.Errorf("uniform model %q: high %g is below low %g", name, high, low)
	}
	return &UniformModel{
		Base: Base{ModelName: name},
		Low:  low,
		High: high,
		rng:  rand.New(rand.NewPCG(seed, seed)),
	}, nil
}

func (m *UniformModel) ProduceNumber(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Low + m.rng.Float64()*(m.High-m.Low), nil
}

var (
	_ Model                     = (*ConstModel)(nil)
	_ capability.ProducesNumber = (*ConstModel)(nil)
	_ capability.ProducesNumber = (*UniformModel)(nil)
)
