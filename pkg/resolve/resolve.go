// Package resolve turns a bus address into a driver descriptor.
//
// Resolution happens in two stages: Resolve performs the identification
// handshake and filters the registry down to the descriptors whose
// model-match rule accepts the identity (the candidates), then Select
// applies the caller's capability constraints and picks the first
// satisfying candidate in registration order. Both stages fail loudly;
// a degraded or guessed handle is never produced.
package resolve

import (
	"context"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/capability"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/registry"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// ResolvedIdentity is the transient result of the identification stage,
// consumed immediately by Select.
type ResolvedIdentity struct {
	// Identity is the parsed identity obtained from the handshake.
	Identity instrument.Identity

	// Kind is the requested instrument family.
	Kind instrument.Kind

	// Candidates are the matching descriptors in registration order.
	Candidates []*registry.Descriptor
}

// Resolver resolves addresses against a driver registry through a
// transport adapter. Resolvers are read-only with respect to the registry
// and safe for concurrent use on independent addresses.
type Resolver struct {
	reg    *registry.Registry
	tp     transport.Transport
	logger trace.Logger
}

// NewResolver creates a Resolver. A nil logger disables tracing.
func NewResolver(reg *registry.Registry, tp transport.Transport, logger trace.Logger) *Resolver {
	if logger == nil {
		logger = trace.NoopLogger{}
	}
	return &Resolver{reg: reg, tp: tp, logger: logger}
}

// Resolve performs the identification handshake with the instrument at
// address and returns the descriptors of the requested family that accept
// its identity. Fails with CommunicationError when the handshake fails and
// with NoMatchingDriverError when no descriptor matches; a caller asking
// for an oscilloscope and addressing a power supply gets the latter, never
// a generic handle.
func (r *Resolver) Resolve(ctx context.Context, address string, kind instrument.Kind) (ResolvedIdentity, error) {
	raw, err := r.tp.Identify(ctx, address)
	if err != nil {
		commErr := &instrument.CommunicationError{Address: address, Op: "identify", Err: err}
		r.logger.Log(trace.ErrorAt(address, "identify", commErr))
		return ResolvedIdentity{}, commErr
	}

	id := instrument.ParseIdentity(address, raw)
	family := r.reg.ForKind(kind)

	var candidates []*registry.Descriptor
	for _, d := range family {
		if d.Match(id) {
			candidates = append(candidates, d)
		}
	}

	r.logger.Log(trace.Event{
		Timestamp: time.Now(),
		Address:   address,
		Category:  trace.CategoryResolution,
		Resolution: &trace.ResolutionEvent{
			Kind:       kind.String(),
			Identity:   id.Raw,
			Candidates: len(candidates),
		},
	})

	if len(candidates) == 0 {
		return ResolvedIdentity{}, &instrument.NoMatchingDriverError{
			Identity:   id,
			Kind:       kind,
			Registered: len(family),
		}
	}

	return ResolvedIdentity{Identity: id, Kind: kind, Candidates: candidates}, nil
}

// Select picks the first candidate whose advertised capabilities satisfy
// every constraint. With no constraints the first candidate wins (the
// generic, make-agnostic path). When every candidate is rejected it fails
// with CapabilityUnsatisfiedError recording, per candidate, the first
// constraint it missed.
func Select(ri ResolvedIdentity, constraints []capability.Constraint) (*registry.Descriptor, error) {
	var rejections []instrument.Rejection

	for _, d := range ri.Candidates {
		failing, ok := d.Capabilities.SatisfiesAll(constraints)
		if ok {
			return d, nil
		}
		advertised, present := d.Capabilities[failing.Key()]
		rejections = append(rejections, instrument.Rejection{
			Driver:     d.Name,
			Constraint: failing,
			Advertised: advertised,
			Missing:    !present,
		})
	}

	return nil, &instrument.CapabilityUnsatisfiedError{
		Identity:   ri.Identity,
		Rejections: rejections,
	}
}

// ResolveAndSelect chains Resolve and Select.
func (r *Resolver) ResolveAndSelect(ctx context.Context, address string, kind instrument.Kind, constraints []capability.Constraint) (*registry.Descriptor, instrument.Identity, error) {
	ri, err := r.Resolve(ctx, address, kind)
	if err != nil {
		return nil, instrument.Identity{}, err
	}
	d, err := Select(ri, constraints)
	if err != nil {
		return nil, ri.Identity, err
	}
	return d, ri.Identity, nil
}
