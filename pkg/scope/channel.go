package scope

import (
	"context"
	"fmt"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/waveform"
)

// Channel is the per-input configuration and readout surface of a Scope.
// It shares the parent handle's lock, so channel operations interleave
// safely with scope-level ones.
type Channel struct {
	scope *Scope
	n     int
}

// Number returns the 1-based channel number.
func (c *Channel) Number() int {
	return c.n
}

// SetCoupling selects the input coupling and returns the readback. With
// strict set, an instrument that kept a different coupling is rejected.
func (c *Channel) SetCoupling(ctx context.Context, coupling Coupling, strict bool) (Coupling, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	if err := c.scope.drv.SetCoupling(ctx, c.n, coupling); err != nil {
		return "", err
	}
	actual, err := c.scope.drv.Coupling(ctx, c.n)
	if err != nil {
		return "", err
	}
	if strict && actual != coupling {
		return "", &instrument.SetValueRejectedError{
			Property:  "coupling",
			Requested: string(coupling),
			Actual:    string(actual),
		}
	}
	return actual, nil
}

// Coupling reads back the input coupling.
func (c *Channel) Coupling(ctx context.Context) (Coupling, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.scope.drv.Coupling(ctx, c.n)
}

// SetImpedanceOhm selects the input impedance. The request snaps to the
// nearest value the hardware supports; strict mode rejects any snap.
func (c *Channel) SetImpedanceOhm(ctx context.Context, ohms float64, strict bool) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.setImpedanceLocked(ctx, ohms, strict)
}

func (c *Channel) setImpedanceLocked(ctx context.Context, ohms float64, strict bool) (float64, error) {
	snapped := instrument.Nearest(ohms, c.scope.drv.Properties().ValidImpedanceOhm)
	if err := c.scope.drv.SetImpedance(ctx, c.n, snapped); err != nil {
		return 0, err
	}
	actual, err := c.scope.drv.Impedance(ctx, c.n)
	if err != nil {
		return 0, err
	}
	if err := instrument.CheckStrict(strict, "impedance", ohms, actual, true); err != nil {
		return 0, err
	}
	return actual, nil
}

// SetImpedanceMin selects the smallest supported input impedance.
func (c *Channel) SetImpedanceMin(ctx context.Context) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	allowed := c.scope.drv.Properties().ValidImpedanceOhm
	if len(allowed) == 0 {
		return 0, fmt.Errorf("channel %d: no selectable impedances", c.n)
	}
	return c.setImpedanceLocked(ctx, allowed[0], false)
}

// SetImpedanceMax selects the largest supported input impedance.
func (c *Channel) SetImpedanceMax(ctx context.Context) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	allowed := c.scope.drv.Properties().ValidImpedanceOhm
	if len(allowed) == 0 {
		return 0, fmt.Errorf("channel %d: no selectable impedances", c.n)
	}
	return c.setImpedanceLocked(ctx, allowed[len(allowed)-1], false)
}

// ImpedanceOhm reads back the input impedance.
func (c *Channel) ImpedanceOhm(ctx context.Context) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.scope.drv.Impedance(ctx, c.n)
}

// SetScaleV applies a vertical scale in volts per division and returns
// the readback. Strict mode rejects a readback outside tolerance.
func (c *Channel) SetScaleV(ctx context.Context, voltsPerDiv float64, strict bool) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.setScaleLocked(ctx, voltsPerDiv, strict)
}

func (c *Channel) setScaleLocked(ctx context.Context, voltsPerDiv float64, strict bool) (float64, error) {
	if err := c.scope.drv.SetScaleV(ctx, c.n, voltsPerDiv); err != nil {
		return 0, err
	}
	actual, err := c.scope.drv.ScaleV(ctx, c.n)
	if err != nil {
		return 0, err
	}
	if err := instrument.CheckStrict(strict, "vertical_scale", voltsPerDiv, actual, false); err != nil {
		return 0, err
	}
	return actual, nil
}

// ScaleV reads back the vertical scale in volts per division.
func (c *Channel) ScaleV(ctx context.Context) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.scope.drv.ScaleV(ctx, c.n)
}

// SetOffsetV applies a vertical offset and returns the readback.
func (c *Channel) SetOffsetV(ctx context.Context, volts float64, strict bool) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.setOffsetLocked(ctx, volts, strict)
}

func (c *Channel) setOffsetLocked(ctx context.Context, volts float64, strict bool) (float64, error) {
	if err := c.scope.drv.SetOffsetV(ctx, c.n, volts); err != nil {
		return 0, err
	}
	actual, err := c.scope.drv.OffsetV(ctx, c.n)
	if err != nil {
		return 0, err
	}
	if err := instrument.CheckStrict(strict, "vertical_offset", volts, actual, false); err != nil {
		return 0, err
	}
	return actual, nil
}

// OffsetV reads back the vertical offset.
func (c *Channel) OffsetV(ctx context.Context) (float64, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	return c.scope.drv.OffsetV(ctx, c.n)
}

// SetRangeV makes the display span [vmin, vmax] by combining vertical
// scale and offset. Both settings are applied under one lock hold.
func (c *Channel) SetRangeV(ctx context.Context, vmin, vmax float64, strict bool) error {
	if vmin >= vmax {
		return fmt.Errorf("channel %d: invalid range [%g, %g]: lower bound must be below upper", c.n, vmin, vmax)
	}
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()

	divs := float64(c.scope.drv.Properties().VerticalDivisions)
	span := vmax - vmin
	if _, err := c.setScaleLocked(ctx, span/divs, strict); err != nil {
		return err
	}
	if _, err := c.setOffsetLocked(ctx, span/2-vmax, strict); err != nil {
		return err
	}
	return nil
}

// RangeV returns the [vmin, vmax] interval the display currently spans,
// derived from the applied scale and offset.
func (c *Channel) RangeV(ctx context.Context) (vmin, vmax float64, err error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()

	scale, err := c.scope.drv.ScaleV(ctx, c.n)
	if err != nil {
		return 0, 0, err
	}
	offset, err := c.scope.drv.OffsetV(ctx, c.n)
	if err != nil {
		return 0, 0, err
	}
	span := scale * float64(c.scope.drv.Properties().VerticalDivisions)
	vmax = span/2 - offset
	return vmax - span, vmax, nil
}

// Waveform downloads the captured samples of this channel. The lock is
// held for the whole download. An empty name defaults to "C<n>".
func (c *Channel) Waveform(ctx context.Context, name string) (*waveform.Waveform, error) {
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()

	wf, err := c.scope.drv.Waveform(ctx, c.n)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = fmt.Sprintf("C%d", c.n)
	}
	return wf.WithName(name).WithCapturedAt(time.Now()), nil
}
