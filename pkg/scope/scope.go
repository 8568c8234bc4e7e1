// Package scope provides the vendor-agnostic oscilloscope handle.
//
// A Scope wraps a vendor Driver behind uniform configuration,
// acquisition and readout operations. The handle owns a mutex that
// serializes every hardware round trip, tracks the acquisition state
// machine, and implements the shared set-then-verify contract: each
// configuration mutator applies the request, reads back what the
// instrument actually did, and either returns the applied value
// (best-effort) or rejects the divergence (strict).
package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/registry"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

// ErrNoSuchChannel is returned for channel numbers outside the hardware
// range and for names that were never installed.
var ErrNoSuchChannel = errors.New("no such channel")

// timeWindowAttempts bounds the set-and-verify loop that walks a snapped
// time scale upward until the window request is covered.
const timeWindowAttempts = 50

// Scope is a thread-safe handle to one oscilloscope.
type Scope struct {
	mu  sync.Mutex
	drv Driver

	desc     *registry.Descriptor
	identity instrument.Identity
	address  string
	logger   trace.Logger

	state        State
	channelNames map[string]int
}

// New wraps a driver in a Scope handle. A nil logger disables tracing.
func New(drv Driver, desc *registry.Descriptor, identity instrument.Identity, address string, logger trace.Logger) *Scope {
	if logger == nil {
		logger = trace.NoopLogger{}
	}
	return &Scope{
		drv:          drv,
		desc:         desc,
		identity:     identity,
		address:      address,
		logger:       logger,
		state:        StateDisarmed,
		channelNames: make(map[string]int),
	}
}

// Identity returns the instrument identity from the handshake.
func (s *Scope) Identity() instrument.Identity {
	return s.identity
}

// Descriptor returns the registry descriptor the handle was built from,
// nil when the handle was constructed directly.
func (s *Scope) Descriptor() *registry.Descriptor {
	return s.desc
}

// Address returns the bus address of the instrument.
func (s *Scope) Address() string {
	return s.address
}

// Properties reports the fixed hardware characteristics.
func (s *Scope) Properties() Properties {
	return s.drv.Properties()
}

// Reset restores instrument defaults and disarms the acquisition state.
func (s *Scope) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.drv.Reset(ctx); err != nil {
		return err
	}
	s.setStateLocked(StateDisarmed, "reset")
	return nil
}

// SetTimeScale applies a horizontal scale and returns the value the
// instrument actually applied. With strict set, a readback differing
// from the request is rejected.
func (s *Scope) SetTimeScale(ctx context.Context, scale duration.Duration, strict bool) (duration.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actual, err := s.setTimeScaleLocked(ctx, scale)
	if err != nil {
		return duration.Duration{}, err
	}
	if err := instrument.CheckStrict(strict, "time_scale", scale.Seconds(), actual.Seconds(), false); err != nil {
		return duration.Duration{}, err
	}
	return actual, nil
}

func (s *Scope) setTimeScaleLocked(ctx context.Context, scale duration.Duration) (duration.Duration, error) {
	if err := s.drv.SetTimeScale(ctx, scale); err != nil {
		return duration.Duration{}, err
	}
	actual, err := s.drv.TimeScale(ctx)
	if err != nil {
		return duration.Duration{}, err
	}
	return actual.Optimize(), nil
}

// TimeScale reads back the applied horizontal scale.
func (s *Scope) TimeScale(ctx context.Context) (duration.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actual, err := s.drv.TimeScale(ctx)
	if err != nil {
		return duration.Duration{}, err
	}
	return actual.Optimize(), nil
}

// SetTimeWindow configures the horizontal scale so the full screen spans
// at least the requested window, and returns the window the instrument
// actually shows. Scales snap to a vendor table, so the request is
// walked upward until the readback covers it; a request beyond the
// largest scale settles at the hardware maximum. With strict set, a
// window that still falls short of the request is rejected.
func (s *Scope) SetTimeWindow(ctx context.Context, window duration.Duration, strict bool) (duration.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	divs := float64(s.drv.Properties().TimeDivisions)
	want := window.Seconds()

	perDiv := want / divs
	var actual float64
	for i := 0; i < timeWindowAttempts; i++ {
		applied, err := s.setTimeScaleLocked(ctx, duration.FromSeconds(perDiv))
		if err != nil {
			return duration.Duration{}, err
		}
		actual = applied.Seconds() * divs
		if actual >= want || instrument.Approx(actual, want) {
			break
		}
		// Snapped below the request; grow the request until it falls
		// into the next table step. Vendor tables step by at most
		// 2.5x, so this converges in a handful of iterations.
		perDiv *= 1.1
	}

	if strict && actual < want && !instrument.Approx(actual, want) {
		return duration.Duration{}, &instrument.SetValueRejectedError{
			Property:  "time_window",
			Requested: want,
			Actual:    actual,
		}
	}
	return duration.FromSeconds(actual).Optimize(), nil
}

// TimeWindow returns the time span of the full screen.
func (s *Scope) TimeWindow(ctx context.Context) (duration.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scale, err := s.drv.TimeScale(ctx)
	if err != nil {
		return duration.Duration{}, err
	}
	divs := float64(s.drv.Properties().TimeDivisions)
	return scale.Mul(divs).Optimize(), nil
}

// Channel returns the handle for input channel n (1-based).
func (s *Scope) Channel(n int) (*Channel, error) {
	max := s.drv.Properties().Channels
	if n < 1 || n > max {
		return nil, fmt.Errorf("%w: %d (instrument has channels 1..%d)", ErrNoSuchChannel, n, max)
	}
	return &Channel{scope: s, n: n}, nil
}

// NameChannel installs a human-readable name for a channel, available to
// ChannelByName afterwards. Names come from bench configuration.
func (s *Scope) NameChannel(name string, n int) error {
	if _, err := s.Channel(n); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelNames[name] = n
	return nil
}

// ChannelByName returns the channel previously installed under name.
func (s *Scope) ChannelByName(name string) (*Channel, error) {
	s.mu.Lock()
	n, ok := s.channelNames[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: name %q not configured", ErrNoSuchChannel, name)
	}
	return s.Channel(n)
}

// Trigger returns the acquisition control surface.
func (s *Scope) Trigger() *Trigger {
	return &Trigger{scope: s}
}

// setStateLocked transitions the acquisition state and traces the change.
// Callers hold s.mu.
func (s *Scope) setStateLocked(next State, reason string) {
	if s.state == next {
		return
	}
	old := s.state
	s.state = next
	s.logger.Log(trace.StateChange(s.address, old.String(), next.String(), reason))
}

// As returns the concrete vendor driver behind a handle, for access to
// capabilities the uniform surface does not expose. A handle bound to a
// different driver type yields a DriverTypeMismatchError.
func As[T any](s *Scope) (T, error) {
	drv, ok := s.drv.(T)
	if !ok {
		var zero T
		return zero, &instrument.DriverTypeMismatchError{
			Want: fmt.Sprintf("%T", zero),
			Have: fmt.Sprintf("%T", s.drv),
		}
	}
	return drv, nil
}
