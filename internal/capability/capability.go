// Package capability defines the ability contracts that models declare and
// tests require, along with the conformance check used by the judging engine.
package capability

import (
	"errors"
	"fmt"
)

// Capability is a named contract describing an ability a model may expose.
// Conformance is a membership test against the underlying interface type;
// the check never invokes the methods it verifies.
type Capability struct {
	name  string
	check func(any) bool
}

// New builds a Capability whose conformance check is a type assertion
// against the interface T.
func New[T any](name string) Capability {
	return Capability{
		name: name,
		check: func(m any) bool {
			_, ok := m.(T)
			return ok
		},
	}
}

// Name returns the capability's name.
func (c Capability) Name() string { return c.name }

// Declarer lets a model disclaim a capability it structurally satisfies,
// e.g. when it embeds a partial implementation whose methods return
// [ErrNotImplemented].
type Declarer interface {
	HasCapability(name string) bool
}

// Check reports whether model m conforms to capability c. This is purely
// structural: a type-assertion membership test, refined by the model's own
// Declarer answer when it provides one.
func Check(m any, c Capability) bool {
	if c.check == nil || !c.check(m) {
		return false
	}
	if d, ok := m.(Declarer); ok {
		return d.HasCapability(c.name)
	}
	return true
}

// CheckRequired verifies that m conforms to every capability in caps.
// It returns a *CapabilityError naming the first unmet capability, or nil.
func CheckRequired(m any, caps []Capability) error {
	for _, c := range caps {
		if !Check(m, c) {
			return &CapabilityError{Model: nameOf(m), Capability: c.Name()}
		}
	}
	return nil
}

// CapabilityError indicates that a model does not conform to a required
// capability.
type CapabilityError struct {
	Model      string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("model %q does not implement required capability %q", e.Model, e.Capability)
}

// ErrNotImplemented is the sentinel returned by capability methods that a
// partial model deliberately leaves unimplemented. Judging distinguishes it
// from ordinary failures with errors.Is.
var ErrNotImplemented = errors.New("capability not implemented")

// NotImplemented wraps ErrNotImplemented with the capability and method
// that were invoked.
func NotImplemented(capability, method string) error {
	return fmt.Errorf("%s.%s: %w", capability, method, ErrNotImplemented)
}

func nameOf(m any) string {
	if n, ok := m.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}
