package inctrl

import (
	"context"
	"fmt"

	"github.com/inctrl-project/inctrl-go/pkg/capability"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/psu"
	"github.com/inctrl-project/inctrl-go/pkg/registry"
	"github.com/inctrl-project/inctrl-go/pkg/resolve"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// Oscilloscope connects to the oscilloscope at target (an address or a
// bench alias) and returns its handle. Constraints narrow which drivers
// may claim the instrument; connection fails with a detailed error when
// no matching driver satisfies all of them. Channel names from the
// bench entry are installed on the handle.
func (s *Session) Oscilloscope(ctx context.Context, target string, constraints ...capability.Constraint) (*scope.Scope, error) {
	entry, err := s.resolveTarget(target, instrument.KindOscilloscope)
	if err != nil {
		return nil, err
	}

	desc, id, drv, err := s.connect(ctx, entry.Address, instrument.KindOscilloscope, constraints)
	if err != nil {
		return nil, err
	}
	scopeDrv, ok := drv.(scope.Driver)
	if !ok {
		return nil, fmt.Errorf("driver %s does not implement the oscilloscope surface", desc.Name)
	}

	handle := scope.New(scopeDrv, desc, id, entry.Address, s.logger)
	for name, n := range entry.Channels {
		if err := handle.NameChannel(name, n); err != nil {
			return nil, fmt.Errorf("bench channel %q: %w", name, err)
		}
	}
	return handle, nil
}

// PowerSupply connects to the power supply at target and returns its
// handle.
func (s *Session) PowerSupply(ctx context.Context, target string, constraints ...capability.Constraint) (*psu.PowerSupply, error) {
	entry, err := s.resolveTarget(target, instrument.KindPowerSupply)
	if err != nil {
		return nil, err
	}

	desc, id, drv, err := s.connect(ctx, entry.Address, instrument.KindPowerSupply, constraints)
	if err != nil {
		return nil, err
	}
	psuDrv, ok := drv.(psu.Driver)
	if !ok {
		return nil, fmt.Errorf("driver %s does not implement the power-supply surface", desc.Name)
	}

	return psu.New(psuDrv, desc, id, entry.Address, s.logger), nil
}

// connect runs handshake, driver selection and driver construction.
func (s *Session) connect(ctx context.Context, address string, kind instrument.Kind, constraints []capability.Constraint) (*registry.Descriptor, instrument.Identity, any, error) {
	resolver := resolve.NewResolver(s.reg, s.tp, s.logger)
	desc, id, err := resolver.ResolveAndSelect(ctx, address, kind, constraints)
	if err != nil {
		return nil, instrument.Identity{}, nil, err
	}

	disp := transport.NewDispatcher(s.tp, address, s.logger)
	drv, err := desc.New(id, disp)
	if err != nil {
		return nil, instrument.Identity{}, nil, fmt.Errorf("constructing driver %s: %w", desc.Name, err)
	}
	return desc, id, drv, nil
}
