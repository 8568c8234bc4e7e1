package psu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
)

// fakeDriver emulates a two-output supply that quantizes voltage
// setpoints to millivolts.
type fakeDriver struct {
	voltage map[int]float64
	limit   map[int]float64
	enabled map[int]bool

	// load models a resistive load per output for measurement reads.
	loadOhm float64
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		voltage: map[int]float64{},
		limit:   map[int]float64{},
		enabled: map[int]bool{},
		loadOhm: 100,
	}
}

func (d *fakeDriver) Properties() Properties {
	return Properties{Outputs: 2, MaxVoltageV: 30, MaxCurrentA: 3}
}

func (d *fakeDriver) Reset(ctx context.Context) error {
	for n := range d.enabled {
		d.enabled[n] = false
	}
	return nil
}

func (d *fakeDriver) SetVoltage(ctx context.Context, n int, v float64) error {
	// Millivolt resolution, like the real front panel.
	d.voltage[n] = float64(int(v*1000+0.5)) / 1000
	return nil
}

func (d *fakeDriver) Voltage(ctx context.Context, n int) (float64, error) {
	return d.voltage[n], nil
}

func (d *fakeDriver) SetCurrentLimit(ctx context.Context, n int, a float64) error {
	d.limit[n] = a
	return nil
}

func (d *fakeDriver) CurrentLimit(ctx context.Context, n int) (float64, error) {
	return d.limit[n], nil
}

func (d *fakeDriver) SetOutputEnabled(ctx context.Context, n int, on bool) error {
	d.enabled[n] = on
	return nil
}

func (d *fakeDriver) OutputEnabled(ctx context.Context, n int) (bool, error) {
	return d.enabled[n], nil
}

func (d *fakeDriver) MeasureVoltage(ctx context.Context, n int) (float64, error) {
	if !d.enabled[n] {
		return 0, nil
	}
	return d.voltage[n], nil
}

func (d *fakeDriver) MeasureCurrent(ctx context.Context, n int) (float64, error) {
	if !d.enabled[n] {
		return 0, nil
	}
	return d.voltage[n] / d.loadOhm, nil
}

// Compile-time interface satisfaction check.
var _ Driver = (*fakeDriver)(nil)

func newTestSupply(t *testing.T) (*PowerSupply, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	id := instrument.ParseIdentity("tcp://fake:5555", "Fake Instruments,PS300,SN9,2.1")
	return New(drv, nil, id, "tcp://fake:5555", nil), drv
}

func TestOutputRange(t *testing.T) {
	p, _ := newTestSupply(t)

	out, err := p.Output(2)
	require.NoError(t, err)
	require.Equal(t, 2, out.Number())

	for _, n := range []int{0, 3} {
		_, err := p.Output(n)
		require.ErrorIs(t, err, ErrNoSuchOutput)
	}
}

func TestSetVoltage(t *testing.T) {
	p, _ := newTestSupply(t)
	ctx := context.Background()
	out, err := p.Output(1)
	require.NoError(t, err)

	got, err := out.SetVoltageV(ctx, 12.5, true)
	require.NoError(t, err)
	require.Equal(t, 12.5, got)

	// Sub-millivolt requests quantize; best-effort reports the readback,
	// strict rejects it.
	got, err = out.SetVoltageV(ctx, 1.23456, false)
	require.NoError(t, err)
	require.InDelta(t, 1.235, got, 1e-9)

	_, err = out.SetVoltageV(ctx, 1.23456, true)
	var rejected *instrument.SetValueRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "voltage", rejected.Property)

	// Repeating the quantized request is idempotent; the second call
	// reports the same applied value.
	again, err := out.SetVoltageV(ctx, 1.23456, false)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestSetVoltageClampsToMax(t *testing.T) {
	p, _ := newTestSupply(t)
	ctx := context.Background()
	out, err := p.Output(1)
	require.NoError(t, err)

	got, err := out.SetVoltageV(ctx, 100, false)
	require.NoError(t, err)
	require.Equal(t, 30.0, got)

	_, err = out.SetVoltageV(ctx, 100, true)
	var rejected *instrument.SetValueRejectedError
	require.ErrorAs(t, err, &rejected)
}

func TestCurrentLimit(t *testing.T) {
	p, _ := newTestSupply(t)
	ctx := context.Background()
	out, err := p.Output(2)
	require.NoError(t, err)

	got, err := out.SetCurrentLimitA(ctx, 1.5, true)
	require.NoError(t, err)
	require.Equal(t, 1.5, got)

	got, err = out.CurrentLimitA(ctx)
	require.NoError(t, err)
	require.Equal(t, 1.5, got)

	// Beyond the hardware maximum clamps.
	got, err = out.SetCurrentLimitA(ctx, 10, false)
	require.NoError(t, err)
	require.Equal(t, 3.0, got)
}

func TestEnableMeasure(t *testing.T) {
	p, _ := newTestSupply(t)
	ctx := context.Background()
	out, err := p.Output(1)
	require.NoError(t, err)

	_, err = out.SetVoltageV(ctx, 10, true)
	require.NoError(t, err)

	v, err := out.MeasureVoltageV(ctx)
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, out.Enable(ctx))
	on, err := out.Enabled(ctx)
	require.NoError(t, err)
	require.True(t, on)

	v, err = out.MeasureVoltageV(ctx)
	require.NoError(t, err)
	require.Equal(t, 10.0, v)

	i, err := out.MeasureCurrentA(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.1, i, 1e-9)

	require.NoError(t, out.Disable(ctx))
	on, err = out.Enabled(ctx)
	require.NoError(t, err)
	require.False(t, on)
}

func TestResetDisablesOutputs(t *testing.T) {
	p, drv := newTestSupply(t)
	ctx := context.Background()
	out, err := p.Output(1)
	require.NoError(t, err)

	require.NoError(t, out.Enable(ctx))
	require.NoError(t, p.Reset(ctx))
	require.False(t, drv.enabled[1])
}

func TestAs(t *testing.T) {
	p, drv := newTestSupply(t)

	got, err := As[*fakeDriver](p)
	require.NoError(t, err)
	require.Same(t, drv, got)

	_, err = As[*PowerSupply](p)
	var mismatch *instrument.DriverTypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}
