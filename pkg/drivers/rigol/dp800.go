package rigol

import (
	"context"
	"fmt"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/drivers/scpi"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/psu"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// DP800 drives the Rigol DP800 series of bench power supplies. Output
// count and per-output limits vary by model; the table covers the
// common three-output DP832 and the single-output DP811.
type DP800 struct {
	disp     *transport.Dispatcher
	identity instrument.Identity
	props    psu.Properties
}

// NewDP800 creates the driver, sizing the output table from the model.
func NewDP800(id instrument.Identity, disp *transport.Dispatcher) *DP800 {
	props := psu.Properties{Outputs: 3, MaxVoltageV: 30, MaxCurrentA: 3}
	if strings.HasPrefix(id.Model, "DP811") {
		props = psu.Properties{Outputs: 1, MaxVoltageV: 40, MaxCurrentA: 10}
	}
	return &DP800{disp: disp, identity: id, props: props}
}

// Compile-time interface satisfaction check.
var _ psu.Driver = (*DP800)(nil)

func (d *DP800) Properties() psu.Properties {
	return d.props
}

func (d *DP800) Reset(ctx context.Context) error {
	return d.disp.Write(ctx, "*RST")
}

func (d *DP800) SetVoltage(ctx context.Context, output int, volts float64) error {
	return d.disp.Write(ctx, fmt.Sprintf(":SOURce%d:VOLTage %s", output, scpi.FormatFloat(volts)))
}

func (d *DP800) Voltage(ctx context.Context, output int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":SOURce%d:VOLTage?", output))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *DP800) SetCurrentLimit(ctx context.Context, output int, amps float64) error {
	return d.disp.Write(ctx, fmt.Sprintf(":SOURce%d:CURRent %s", output, scpi.FormatFloat(amps)))
}

func (d *DP800) CurrentLimit(ctx context.Context, output int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":SOURce%d:CURRent?", output))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *DP800) SetOutputEnabled(ctx context.Context, output int, on bool) error {
	return d.disp.Write(ctx, fmt.Sprintf(":OUTPut CH%d,%s", output, scpi.OnOff(on)))
}

func (d *DP800) OutputEnabled(ctx context.Context, output int) (bool, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":OUTPut? CH%d", output))
	if err != nil {
		return false, err
	}
	return scpi.ParseOnOff(resp)
}

func (d *DP800) MeasureVoltage(ctx context.Context, output int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":MEASure:VOLTage? CH%d", output))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *DP800) MeasureCurrent(ctx context.Context, output int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":MEASure:CURRent? CH%d", output))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

// OverVoltageProtection programs the OVP threshold of an output, a
// DP800-specific safety feature.
func (d *DP800) OverVoltageProtection(ctx context.Context, output int, volts float64) error {
	if err := d.disp.Write(ctx, fmt.Sprintf(":SOURce%d:VOLTage:PROTection %s", output, scpi.FormatFloat(volts))); err != nil {
		return err
	}
	return d.disp.Write(ctx, fmt.Sprintf(":SOURce%d:VOLTage:PROTection:STATe ON", output))
}
