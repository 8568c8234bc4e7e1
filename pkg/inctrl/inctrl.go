// Package inctrl is the user-facing entry point of the library.
//
// A Session binds a transport, a driver registry and an optional bench
// alias store. Its Oscilloscope and PowerSupply methods run the whole
// connect pipeline: alias resolution, identification handshake, driver
// matching, capability negotiation and handle construction.
//
//	session := inctrl.NewSession()
//	sc, err := session.Oscilloscope(ctx, "tcp://10.0.0.17:5025",
//	    capability.AtLeast(capability.KeyImpedanceList, 1e6))
package inctrl

import (
	"errors"
	"fmt"

	"github.com/inctrl-project/inctrl-go/pkg/alias"
	"github.com/inctrl-project/inctrl-go/pkg/drivers"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/registry"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// Session holds the pieces shared by every instrument connection.
type Session struct {
	tp      transport.Transport
	reg     *registry.Registry
	logger  trace.Logger
	aliases alias.Resolver
}

// Option configures a Session.
type Option func(*Session)

// WithTransport replaces the default TCP transport, e.g. with a
// simulated bench in tests.
func WithTransport(tp transport.Transport) Option {
	return func(s *Session) { s.tp = tp }
}

// WithRegistry replaces the bundled driver registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Session) { s.reg = reg }
}

// WithLogger enables instrument-interaction tracing.
func WithLogger(logger trace.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithAliases installs a bench alias store consulted before treating
// connection targets as raw addresses.
func WithAliases(store alias.Resolver) Option {
	return func(s *Session) { s.aliases = store }
}

// NewSession creates a Session. Defaults: raw-socket TCP transport, the
// bundled driver registry, no tracing, no aliases.
func NewSession(opts ...Option) *Session {
	s := &Session{
		tp:     transport.NewTCP(transport.DefaultTCPConfig()),
		reg:    drivers.DefaultRegistry(),
		logger: trace.NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveTarget maps a bench alias to its entry, falling through to the
// raw address when no store is installed or the name is not in it. A
// target that parses as an alias but names a different instrument kind
// is an error, caught before any network traffic.
func (s *Session) resolveTarget(target string, want instrument.Kind) (alias.Entry, error) {
	if s.aliases == nil {
		return alias.Entry{Address: target}, nil
	}
	entry, err := s.aliases.ResolveAlias(target)
	if errors.Is(err, alias.ErrUnknownAlias) {
		return alias.Entry{Address: target}, nil
	}
	if err != nil {
		return alias.Entry{}, err
	}
	if entry.Kind != "" {
		kind, err := instrument.ParseKind(entry.Kind)
		if err != nil {
			return alias.Entry{}, fmt.Errorf("alias %q: %w", target, err)
		}
		if kind != want {
			return alias.Entry{}, fmt.Errorf("alias %q names a %s, not a %s", target, entry.Kind, want)
		}
	}
	return entry, nil
}
