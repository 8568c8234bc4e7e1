// Package psu provides the vendor-agnostic power supply handle.
//
// A PowerSupply wraps a vendor Driver the same way pkg/scope wraps an
// oscilloscope driver: one mutex serializing hardware round trips, and
// configuration mutators that apply, read back, and honor the strict
// flag.
package psu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/registry"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

// ErrNoSuchOutput is returned for output numbers outside the hardware
// range.
var ErrNoSuchOutput = errors.New("no such output")

// Properties are the fixed characteristics a driver reports.
type Properties struct {
	// Outputs is the number of independent output channels.
	Outputs int

	// MaxVoltageV and MaxCurrentA bound what any output can source.
	MaxVoltageV float64
	MaxCurrentA float64
}

// Driver is the vendor-specific primitive layer beneath a PowerSupply
// handle. Output numbers are 1-based and already range-checked by the
// handle.
type Driver interface {
	Properties() Properties
	Reset(ctx context.Context) error

	SetVoltage(ctx context.Context, output int, volts float64) error
	Voltage(ctx context.Context, output int) (float64, error)

	SetCurrentLimit(ctx context.Context, output int, amps float64) error
	CurrentLimit(ctx context.Context, output int) (float64, error)

	SetOutputEnabled(ctx context.Context, output int, on bool) error
	OutputEnabled(ctx context.Context, output int) (bool, error)

	// MeasureVoltage and MeasureCurrent read the actual terminal values,
	// as opposed to the programmed setpoints.
	MeasureVoltage(ctx context.Context, output int) (float64, error)
	MeasureCurrent(ctx context.Context, output int) (float64, error)
}

// PowerSupply is a thread-safe handle to one power supply.
type PowerSupply struct {
	mu  sync.Mutex
	drv Driver

	desc     *registry.Descriptor
	identity instrument.Identity
	address  string
	logger   trace.Logger
}

// New wraps a driver in a PowerSupply handle. A nil logger disables
// tracing.
func New(drv Driver, desc *registry.Descriptor, identity instrument.Identity, address string, logger trace.Logger) *PowerSupply {
	if logger == nil {
		logger = trace.NoopLogger{}
	}
	return &PowerSupply{drv: drv, desc: desc, identity: identity, address: address, logger: logger}
}

// Identity returns the instrument identity from the handshake.
func (p *PowerSupply) Identity() instrument.Identity {
	return p.identity
}

// Descriptor returns the registry descriptor the handle was built from.
func (p *PowerSupply) Descriptor() *registry.Descriptor {
	return p.desc
}

// Address returns the bus address of the instrument.
func (p *PowerSupply) Address() string {
	return p.address
}

// Properties reports the fixed hardware characteristics.
func (p *PowerSupply) Properties() Properties {
	return p.drv.Properties()
}

// Reset restores instrument defaults, disabling all outputs.
func (p *PowerSupply) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drv.Reset(ctx)
}

// Output returns the handle for output n (1-based).
func (p *PowerSupply) Output(n int) (*Output, error) {
	max := p.drv.Properties().Outputs
	if n < 1 || n > max {
		return nil, fmt.Errorf("%w: %d (instrument has outputs 1..%d)", ErrNoSuchOutput, n, max)
	}
	return &Output{psu: p, n: n}, nil
}

// As returns the concrete vendor driver behind a handle.
func As[T any](p *PowerSupply) (T, error) {
	drv, ok := p.drv.(T)
	if !ok {
		var zero T
		return zero, &instrument.DriverTypeMismatchError{
			Want: fmt.Sprintf("%T", zero),
			Have: fmt.Sprintf("%T", p.drv),
		}
	}
	return drv, nil
}

// Output is the per-channel surface of a PowerSupply.
type Output struct {
	psu *PowerSupply
	n   int
}

// Number returns the 1-based output number.
func (o *Output) Number() int {
	return o.n
}

// SetVoltageV programs the output voltage setpoint and returns the
// readback. Requests beyond the hardware maximum clamp to it; strict
// mode rejects any divergence from the request.
func (o *Output) SetVoltageV(ctx context.Context, volts float64, strict bool) (float64, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()

	clamped := instrument.Clamp(volts, 0, o.psu.drv.Properties().MaxVoltageV)
	if err := o.psu.drv.SetVoltage(ctx, o.n, clamped); err != nil {
		return 0, err
	}
	actual, err := o.psu.drv.Voltage(ctx, o.n)
	if err != nil {
		return 0, err
	}
	if err := instrument.CheckStrict(strict, "voltage", volts, actual, false); err != nil {
		return 0, err
	}
	return actual, nil
}

// VoltageV reads back the programmed voltage setpoint.
func (o *Output) VoltageV(ctx context.Context) (float64, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()
	return o.psu.drv.Voltage(ctx, o.n)
}

// SetCurrentLimitA programs the current limit and returns the readback.
func (o *Output) SetCurrentLimitA(ctx context.Context, amps float64, strict bool) (float64, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()

	clamped := instrument.Clamp(amps, 0, o.psu.drv.Properties().MaxCurrentA)
	if err := o.psu.drv.SetCurrentLimit(ctx, o.n, clamped); err != nil {
		return 0, err
	}
	actual, err := o.psu.drv.CurrentLimit(ctx, o.n)
	if err != nil {
		return 0, err
	}
	if err := instrument.CheckStrict(strict, "current_limit", amps, actual, false); err != nil {
		return 0, err
	}
	return actual, nil
}

// CurrentLimitA reads back the programmed current limit.
func (o *Output) CurrentLimitA(ctx context.Context) (float64, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()
	return o.psu.drv.CurrentLimit(ctx, o.n)
}

// Enable switches the output on and verifies the readback.
func (o *Output) Enable(ctx context.Context) error {
	return o.setEnabled(ctx, true)
}

// Disable switches the output off and verifies the readback.
func (o *Output) Disable(ctx context.Context) error {
	return o.setEnabled(ctx, false)
}

func (o *Output) setEnabled(ctx context.Context, on bool) error {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()

	if err := o.psu.drv.SetOutputEnabled(ctx, o.n, on); err != nil {
		return err
	}
	actual, err := o.psu.drv.OutputEnabled(ctx, o.n)
	if err != nil {
		return err
	}
	if actual != on {
		return &instrument.SetValueRejectedError{Property: "output_enabled", Requested: on, Actual: actual}
	}
	return nil
}

// Enabled reads back whether the output is on.
func (o *Output) Enabled(ctx context.Context) (bool, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()
	return o.psu.drv.OutputEnabled(ctx, o.n)
}

// MeasureVoltageV reads the actual terminal voltage.
func (o *Output) MeasureVoltageV(ctx context.Context) (float64, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()
	return o.psu.drv.MeasureVoltage(ctx, o.n)
}

// MeasureCurrentA reads the actual output current.
func (o *Output) MeasureCurrentA(ctx context.Context) (float64, error) {
	o.psu.mu.Lock()
	defer o.psu.mu.Unlock()
	return o.psu.drv.MeasureCurrent(ctx, o.n)
}
