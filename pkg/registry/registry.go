// Package registry holds the static table of instrument driver descriptors.
//
// Descriptors are registered once at construction and the table is
// immutable afterwards; iteration order is registration order, which makes
// driver resolution reproducible.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/capability"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// Registry construction errors.
var (
	ErrNilDescriptor  = errors.New("nil descriptor")
	ErrDuplicateName  = errors.New("duplicate descriptor name")
	ErrIncompleteDesc = errors.New("incomplete descriptor")
)

// Factory produces a concrete driver instance bound to a transport
// dispatcher. The returned value is family-specific (an oscilloscope or
// power-supply driver); the facade asserts the expected driver interface.
type Factory func(id instrument.Identity, d *transport.Dispatcher) (any, error)

// MatchFunc decides whether a descriptor accepts an instrument identity.
type MatchFunc func(id instrument.Identity) bool

// Descriptor describes one registered driver.
type Descriptor struct {
	// Name uniquely identifies the descriptor, e.g. "siglent-sds800x-hd".
	Name string

	// Kind is the instrument family the driver implements.
	Kind instrument.Kind

	// Match is the model-match rule over parsed identities.
	Match MatchFunc

	// Capabilities is the advertised capability mapping.
	Capabilities capability.Map

	// New produces a driver instance for a resolved instrument.
	New Factory
}

// MatchMakeModelPrefix returns a MatchFunc accepting identities whose make
// equals maker and whose model starts with modelPrefix. Both comparisons
// are case-sensitive, matching the convention that *IDN? fields are stable
// vendor strings.
func MatchMakeModelPrefix(maker, modelPrefix string) MatchFunc {
	return func(id instrument.Identity) bool {
		return id.Make == maker && strings.HasPrefix(id.Model, modelPrefix)
	}
}

// Registry is an ordered, immutable collection of descriptors.
type Registry struct {
	descriptors []*Descriptor
}

// New builds a registry from descriptors in registration order.
func New(descriptors ...*Descriptor) (*Registry, error) {
	seen := make(map[string]struct{}, len(descriptors))
	out := make([]*Descriptor, 0, len(descriptors))
	for i, d := range descriptors {
		if d == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilDescriptor, i)
		}
		if d.Name == "" || d.Match == nil || d.New == nil {
			return nil, fmt.Errorf("%w: %q at position %d", ErrIncompleteDesc, d.Name, i)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
		}
		seen[d.Name] = struct{}{}
		out = append(out, d)
	}
	return &Registry{descriptors: out}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// default registries assembled from known-good descriptors.
func MustNew(descriptors ...*Descriptor) *Registry {
	r, err := New(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// ForKind returns the descriptors of one family in registration order.
func (r *Registry) ForKind(kind instrument.Kind) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.descriptors {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
