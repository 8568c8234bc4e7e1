package siglent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inctrl-project/inctrl-go/internal/sim"
	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

const address = "tcp://10.0.0.17:5025"

func newTestDriver(t *testing.T) (*SDS800XHD, *sim.Scope) {
	t.Helper()
	device := sim.NewSiglentSDS824("SIM001")
	bench := sim.NewBench()
	bench.Add(address, device)

	disp := transport.NewDispatcher(bench, address, nil)
	id := instrument.ParseIdentity(address, device.IDN)
	return NewSDS800XHD(id, disp), device
}

func TestChannelCountFromModel(t *testing.T) {
	two := instrument.ParseIdentity("a", "Siglent Technologies,SDS802X HD,S1,3.8")
	four := instrument.ParseIdentity("a", "Siglent Technologies,SDS824X HD,S2,3.8")

	require.Equal(t, 2, NewSDS800XHD(two, nil).Properties().Channels)
	require.Equal(t, 4, NewSDS800XHD(four, nil).Properties().Channels)
}

func TestTimeScaleRoundTrip(t *testing.T) {
	drv, _ := newTestDriver(t)
	ctx := context.Background()

	require.NoError(t, drv.SetTimeScale(ctx, duration.MustParse("2 ms")))
	got, err := drv.TimeScale(ctx)
	require.NoError(t, err)
	require.InEpsilon(t, 2e-3, got.Seconds(), 1e-9)

	// The instrument snaps off-table requests.
	require.NoError(t, drv.SetTimeScale(ctx, duration.MustParse("3 ms")))
	got, err = drv.TimeScale(ctx)
	require.NoError(t, err)
	require.InEpsilon(t, 2e-3, got.Seconds(), 1e-9)
}

func TestChannelSettings(t *testing.T) {
	drv, _ := newTestDriver(t)
	ctx := context.Background()

	require.NoError(t, drv.SetCoupling(ctx, 2, scope.CouplingAC))
	c, err := drv.Coupling(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, scope.CouplingAC, c)

	require.NoError(t, drv.SetImpedance(ctx, 2, 50))
	z, err := drv.Impedance(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 50.0, z)

	require.NoError(t, drv.SetScaleV(ctx, 2, 0.5))
	v, err := drv.ScaleV(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 0.5, v)

	require.NoError(t, drv.SetOffsetV(ctx, 2, -0.1))
	v, err = drv.OffsetV(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, -0.1, v)
}

func TestTriggerAndAcquisition(t *testing.T) {
	drv, device := newTestDriver(t)
	ctx := context.Background()
	device.FireAfterPolls = 1

	err := drv.ConfigureTrigger(ctx, scope.EdgeTrigger{
		Source: scope.ChannelSource(1),
		LevelV: 0.5,
		Slope:  scope.SlopeRising,
	})
	require.NoError(t, err)

	require.NoError(t, drv.Arm(ctx, scope.ArmSingle))

	st, err := drv.TriggerStatus(ctx)
	require.NoError(t, err)
	require.True(t, st.Armed)

	st, err = drv.TriggerStatus(ctx)
	require.NoError(t, err)
	require.True(t, st.DataReady)

	wf, err := drv.Waveform(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 200, wf.Len())
	require.Equal(t, 100, wf.TriggerIndex())
	require.Positive(t, wf.DxSeconds())
}

func TestDisarm(t *testing.T) {
	drv, device := newTestDriver(t)
	ctx := context.Background()
	device.FireAfterPolls = -1

	require.NoError(t, drv.Arm(ctx, scope.ArmNormal))
	require.NoError(t, drv.Disarm(ctx))

	st, err := drv.TriggerStatus(ctx)
	require.NoError(t, err)
	require.False(t, st.Armed)
	require.False(t, st.DataReady)
}

func TestMemoryDepth(t *testing.T) {
	drv, _ := newTestDriver(t)

	depth, err := drv.MemoryDepth(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1e6, depth)
}
