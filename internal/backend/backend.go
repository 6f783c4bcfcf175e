// Package backend isolates simulation execution from model semantics.
// Models delegate their runs to a Backend resolved from an explicit
// Registry, so the same model definition can execute in-process, shell
// out to an external program, or replay cached results.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend executes one run with the given parameters and returns the
// raw result.
type Backend interface {
	Name() string
	Run(ctx context.Context, params map[string]any) (any, error)
}

// ParamsValidator is implemented by backends that can reject run
// parameters before execution. Validation failures surface as
// *ParametersError.
type ParamsValidator interface {
	ValidateParams(params map[string]any) error
}

// ParametersError reports run parameters a backend cannot accept. It is
// a contract violation and is never absorbed into an incomplete score.
type ParametersError struct {
	Backend string
	Reason  string
}

func (e *ParametersError) Error() string {
	return fmt.Sprintf("invalid parameters for backend %q: %s", e.Backend, e.Reason)
}

// Registry holds named backends. Registration is write-once per name so
// a suite cannot silently swap the execution substrate mid-run. The zero
// value is not usable; call NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register adds b under its own name. Registering a second backend under
// an existing name fails.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("cannot register a nil backend")
	}
	return r.register(b.Name(), b)
}

// RegisterAll registers every backend in the mapping under its map key,
// which may alias the backend's own name. Registration stops at the
// first conflict.
func (r *Registry) RegisterAll(backends map[string]Backend) error {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.register(name, backends[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) register(name string, b Backend) error {
	if b == nil {
		return fmt.Errorf("cannot register a nil backend")
	}
	if name == "" {
		return fmt.Errorf("cannot register a backend with an empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %q is already registered", name)
	}
	r.backends[name] = b
	return nil
}

// Resolve returns the backend registered under name.
func (r *Registry) Resolve(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("no backend registered under %q (available: %v)", name, r.names())
	}
	return b, nil
}

// Names lists the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
