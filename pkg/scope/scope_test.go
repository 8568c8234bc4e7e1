package scope

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
	"github.com/inctrl-project/inctrl-go/pkg/waveform"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeDriver emulates an instrument with a snapped 1-2-5 timebase and a
// scriptable trigger, close enough to real hardware to exercise the
// handle's set-then-verify and acquisition logic.
type fakeDriver struct {
	props Properties

	timeScaleS float64
	coupling   map[int]Coupling
	impedance  map[int]float64
	scaleV     map[int]float64
	offsetV    map[int]float64

	armed     bool
	dataReady bool

	// fireAfterPolls makes the trigger fire after that many status
	// polls while armed; negative never fires.
	fireAfterPolls int
	polls          int

	// failOp makes the named primitive return failErr.
	failOp  string
	failErr error
}

var oneTwoFiveScalesS = []float64{
	1e-9, 2e-9, 5e-9, 1e-8, 2e-8, 5e-8, 1e-7, 2e-7, 5e-7,
	1e-6, 2e-6, 5e-6, 1e-5, 2e-5, 5e-5, 1e-4, 2e-4, 5e-4,
	1e-3, 2e-3, 5e-3, 1e-2, 2e-2, 5e-2, 0.1, 0.2, 0.5, 1, 2, 5, 10,
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		props: Properties{
			Channels:          4,
			TimeDivisions:     10,
			VerticalDivisions: 8,
			ValidImpedanceOhm: []float64{50, 1e6},
			TimeScalesS:       oneTwoFiveScalesS,
		},
		timeScaleS:     1e-3,
		coupling:       map[int]Coupling{},
		impedance:      map[int]float64{},
		scaleV:         map[int]float64{},
		offsetV:        map[int]float64{},
		fireAfterPolls: -1,
	}
}

func (d *fakeDriver) fail(op string) error {
	if d.failOp == op {
		return d.failErr
	}
	return nil
}

func (d *fakeDriver) Properties() Properties { return d.props }

func (d *fakeDriver) Reset(ctx context.Context) error {
	d.armed, d.dataReady = false, false
	return d.fail("reset")
}

func (d *fakeDriver) SetTimeScale(ctx context.Context, scale duration.Duration) error {
	if err := d.fail("set_time_scale"); err != nil {
		return err
	}
	// Hardware snaps to the nearest table entry, like real scopes do.
	d.timeScaleS = instrument.Nearest(scale.Seconds(), d.props.TimeScalesS)
	return nil
}

func (d *fakeDriver) TimeScale(ctx context.Context) (duration.Duration, error) {
	return duration.FromSeconds(d.timeScaleS), d.fail("time_scale")
}

func (d *fakeDriver) SetCoupling(ctx context.Context, ch int, c Coupling) error {
	if err := d.fail("set_coupling"); err != nil {
		return err
	}
	d.coupling[ch] = c
	return nil
}

func (d *fakeDriver) Coupling(ctx context.Context, ch int) (Coupling, error) {
	return d.coupling[ch], nil
}

func (d *fakeDriver) SetImpedance(ctx context.Context, ch int, ohms float64) error {
	d.impedance[ch] = instrument.Nearest(ohms, d.props.ValidImpedanceOhm)
	return nil
}

func (d *fakeDriver) Impedance(ctx context.Context, ch int) (float64, error) {
	return d.impedance[ch], nil
}

func (d *fakeDriver) SetScaleV(ctx context.Context, ch int, v float64) error {
	d.scaleV[ch] = v
	return nil
}

func (d *fakeDriver) ScaleV(ctx context.Context, ch int) (float64, error) {
	return d.scaleV[ch], nil
}

func (d *fakeDriver) SetOffsetV(ctx context.Context, ch int, v float64) error {
	d.offsetV[ch] = v
	return nil
}

func (d *fakeDriver) OffsetV(ctx context.Context, ch int) (float64, error) {
	return d.offsetV[ch], nil
}

func (d *fakeDriver) ConfigureTrigger(ctx context.Context, t EdgeTrigger) error {
	return d.fail("configure_trigger")
}

func (d *fakeDriver) Arm(ctx context.Context, mode ArmMode) error {
	if err := d.fail("arm"); err != nil {
		return err
	}
	d.armed, d.dataReady = true, false
	d.polls = 0
	return nil
}

func (d *fakeDriver) Disarm(ctx context.Context) error {
	if err := d.fail("disarm"); err != nil {
		return err
	}
	d.armed = false
	return nil
}

func (d *fakeDriver) TriggerStatus(ctx context.Context) (transport.TriggerStatus, error) {
	if err := d.fail("status"); err != nil {
		return transport.TriggerStatus{}, err
	}
	if d.armed && d.fireAfterPolls >= 0 {
		d.polls++
		if d.polls > d.fireAfterPolls {
			d.armed, d.dataReady = false, true
		}
	}
	return transport.TriggerStatus{Armed: d.armed, DataReady: d.dataReady}, nil
}

func (d *fakeDriver) Waveform(ctx context.Context, ch int) (*waveform.Waveform, error) {
	if err := d.fail("waveform"); err != nil {
		return nil, err
	}
	return waveform.New("", 1e-6, 2, []float64{0, 0, 1, 1}), nil
}

// Compile-time interface satisfaction check.
var _ Driver = (*fakeDriver)(nil)

func newTestScope(t *testing.T) (*Scope, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	id := instrument.ParseIdentity("tcp://fake:5025", "Fake Instruments,FK1000,SN1,1.0")
	return New(drv, nil, id, "tcp://fake:5025", nil), drv
}

func TestSetTimeScaleSnapsToTable(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()

	got, err := s.SetTimeScale(ctx, duration.MustParse("1.2 ms"), false)
	require.NoError(t, err)
	require.InEpsilon(t, 1e-3, got.Seconds(), 1e-9)

	// Strict mode rejects the snap.
	_, err = s.SetTimeScale(ctx, duration.MustParse("1.2 ms"), true)
	var rejected *instrument.SetValueRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "time_scale", rejected.Property)

	// An exact table hit passes strict.
	got, err = s.SetTimeScale(ctx, duration.MustParse("2 ms"), true)
	require.NoError(t, err)
	require.InEpsilon(t, 2e-3, got.Seconds(), 1e-9)
}

func TestSetTimeWindowNeverUndershoots(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()

	// 3 ms over 10 divisions wants 300 us/div; the table snaps that
	// down to 200 us/div, so the handle must walk up to 500 us/div.
	got, err := s.SetTimeWindow(ctx, duration.MustParse("3 ms"), false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, got.Seconds(), 3e-3)
	require.InEpsilon(t, 5e-3, got.Seconds(), 1e-9)

	// Exact coverage is accepted as-is.
	got, err = s.SetTimeWindow(ctx, duration.MustParse("2 ms"), true)
	require.NoError(t, err)
	require.InEpsilon(t, 2e-3, got.Seconds(), 1e-9)
}

func TestSetTimeWindowBeyondHardwareMax(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()

	// 10 s/div over 10 divisions caps the window at 100 s.
	got, err := s.SetTimeWindow(ctx, duration.MustParse("1 ks"), false)
	require.NoError(t, err)
	require.InEpsilon(t, 100, got.Seconds(), 1e-9)

	_, err = s.SetTimeWindow(ctx, duration.MustParse("1 ks"), true)
	var rejected *instrument.SetValueRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "time_window", rejected.Property)
}

func TestTimeWindowReadback(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()

	_, err := s.SetTimeScale(ctx, duration.MustParse("5 us"), true)
	require.NoError(t, err)

	window, err := s.TimeWindow(ctx)
	require.NoError(t, err)
	require.InEpsilon(t, 50e-6, window.Seconds(), 1e-9)
	require.Equal(t, duration.US, window.Unit())
}

func TestChannelRange(t *testing.T) {
	s, _ := newTestScope(t)

	for _, n := range []int{1, 4} {
		ch, err := s.Channel(n)
		require.NoError(t, err)
		require.Equal(t, n, ch.Number())
	}
	for _, n := range []int{0, 5, -1} {
		_, err := s.Channel(n)
		require.ErrorIs(t, err, ErrNoSuchChannel)
	}
}

func TestChannelByName(t *testing.T) {
	s, _ := newTestScope(t)

	require.NoError(t, s.NameChannel("shunt", 2))
	ch, err := s.ChannelByName("shunt")
	require.NoError(t, err)
	require.Equal(t, 2, ch.Number())

	_, err = s.ChannelByName("gate")
	require.ErrorIs(t, err, ErrNoSuchChannel)

	require.ErrorIs(t, s.NameChannel("bad", 9), ErrNoSuchChannel)
}

func TestBestEffortSettersIdempotent(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()

	// Repeating a best-effort request must land on the same applied
	// value, discrete and continuous alike.
	first, err := s.SetTimeScale(ctx, duration.MustParse("1.2 ms"), false)
	require.NoError(t, err)
	second, err := s.SetTimeScale(ctx, duration.MustParse("1.2 ms"), false)
	require.NoError(t, err)
	require.True(t, first.Equal(second), "time scale: %v then %v", first, second)

	ch, err := s.Channel(1)
	require.NoError(t, err)

	z1, err := ch.SetImpedanceOhm(ctx, 100, false)
	require.NoError(t, err)
	z2, err := ch.SetImpedanceOhm(ctx, 100, false)
	require.NoError(t, err)
	require.Equal(t, z1, z2)

	v1, err := ch.SetScaleV(ctx, 0.37, false)
	require.NoError(t, err)
	v2, err := ch.SetScaleV(ctx, 0.37, false)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}

func TestImpedanceSnapAndStrict(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()
	ch, err := s.Channel(1)
	require.NoError(t, err)

	// 100 ohms snaps to 50; best-effort reports what was applied.
	got, err := ch.SetImpedanceOhm(ctx, 100, false)
	require.NoError(t, err)
	require.Equal(t, 50.0, got)

	// Strict rejects the same request.
	_, err = ch.SetImpedanceOhm(ctx, 100, true)
	var rejected *instrument.SetValueRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "impedance", rejected.Property)

	got, err = ch.SetImpedanceOhm(ctx, 1e6, true)
	require.NoError(t, err)
	require.Equal(t, 1e6, got)

	got, err = ch.SetImpedanceMin(ctx)
	require.NoError(t, err)
	require.Equal(t, 50.0, got)

	got, err = ch.SetImpedanceMax(ctx)
	require.NoError(t, err)
	require.Equal(t, 1e6, got)
}

func TestCouplingStrict(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	ch, err := s.Channel(3)
	require.NoError(t, err)

	got, err := ch.SetCoupling(ctx, CouplingAC, true)
	require.NoError(t, err)
	require.Equal(t, CouplingAC, got)
	require.Equal(t, CouplingAC, drv.coupling[3])
}

func TestSetRangeV(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	ch, err := s.Channel(1)
	require.NoError(t, err)

	// [-1, 1] V over 8 divisions: 0.25 V/div, centered.
	require.NoError(t, ch.SetRangeV(ctx, -1, 1, true))
	require.InEpsilon(t, 0.25, drv.scaleV[1], 1e-9)
	require.Zero(t, drv.offsetV[1])

	// An asymmetric range needs offset to recenter.
	require.NoError(t, ch.SetRangeV(ctx, 0, 2, true))
	require.InEpsilon(t, -1, drv.offsetV[1], 1e-9)

	vmin, vmax, err := ch.RangeV(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0, vmin, 1e-9)
	require.InDelta(t, 2, vmax, 1e-9)

	require.Error(t, ch.SetRangeV(ctx, 1, 1, false))
	require.Error(t, ch.SetRangeV(ctx, 2, -2, false))
}

func TestWaveformNaming(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()
	ch, err := s.Channel(2)
	require.NoError(t, err)

	wf, err := ch.Waveform(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "C2", wf.Name())
	require.False(t, wf.CapturedAt().IsZero())

	wf, err = ch.Waveform(ctx, "gate_drive")
	require.NoError(t, err)
	require.Equal(t, "gate_drive", wf.Name())
}

func TestArmTransitions(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	require.Equal(t, StateDisarmed, trig.State())

	require.NoError(t, trig.ArmSingle(ctx))
	require.Equal(t, StateArmedSingle, trig.State())

	require.NoError(t, trig.ArmAuto(ctx))
	require.Equal(t, StateArmedAuto, trig.State())

	require.NoError(t, trig.ArmNormal(ctx))
	require.Equal(t, StateArmedNormal, trig.State())

	require.NoError(t, trig.Disarm(ctx))
	require.Equal(t, StateDisarmed, trig.State())

	// Disarming twice is harmless.
	require.NoError(t, trig.Disarm(ctx))
	require.Equal(t, StateDisarmed, trig.State())
}

func TestArmFailureKeepsState(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	drv.failOp, drv.failErr = "arm", errors.New("bus fault")
	require.Error(t, trig.ArmSingle(ctx))
	require.Equal(t, StateDisarmed, trig.State())
}

func TestIsArmedObservesTrigger(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	drv.fireAfterPolls = 1
	require.NoError(t, trig.ArmSingle(ctx))

	armed, err := trig.IsArmed(ctx)
	require.NoError(t, err)
	require.True(t, armed)
	require.Equal(t, StateArmedSingle, trig.State())

	armed, err = trig.IsArmed(ctx)
	require.NoError(t, err)
	require.False(t, armed)
	require.Equal(t, StateDataReady, trig.State())
}

func TestWaitForWaveformImmediate(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	drv.fireAfterPolls = 0
	require.NoError(t, trig.ArmSingle(ctx))

	ok, err := trig.WaitForWaveform(ctx, time.Second, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateDataReady, trig.State())

	// A second wait returns immediately from the tracked state.
	start := time.Now()
	ok, err = trig.WaitForWaveform(ctx, time.Second, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitForWaveformTimeout(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	drv.fireAfterPolls = -1 // never fires
	require.NoError(t, trig.ArmNormal(ctx))

	ok, err := trig.WaitForWaveform(ctx, 80*time.Millisecond, false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateArmedNormal, trig.State())

	_, err = trig.WaitForWaveform(ctx, 80*time.Millisecond, true)
	var timeoutErr *instrument.AcquisitionTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 80*time.Millisecond, timeoutErr.Timeout)
}

func TestWaitForWaveformNoDeadline(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	// A zero timeout means no deadline; the wait keeps polling past
	// the first pass until the trigger fires.
	drv.fireAfterPolls = 3
	require.NoError(t, trig.ArmSingle(ctx))

	ok, err := trig.WaitForWaveform(ctx, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateDataReady, trig.State())
}

func TestWaitForWaveformNoDeadlineCancel(t *testing.T) {
	s, drv := newTestScope(t)
	trig := s.Trigger()

	drv.fireAfterPolls = -1
	require.NoError(t, trig.ArmSingle(context.Background()))

	// Context cancellation is the only way out of an unbounded wait on
	// a trigger that never fires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ok, err := trig.WaitForWaveform(ctx, 0, false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateArmedSingle, trig.State())
}

func TestWaitForWaveformContextCancel(t *testing.T) {
	s, drv := newTestScope(t)
	trig := s.Trigger()

	drv.fireAfterPolls = -1
	require.NoError(t, trig.ArmSingle(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ok, err := trig.WaitForWaveform(ctx, time.Minute, false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWaitForWaveformCommunicationFailure(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	require.NoError(t, trig.ArmSingle(ctx))
	drv.failOp = "status"
	drv.failErr = &instrument.CommunicationError{Address: "tcp://fake:5025", Op: "poll", Err: errors.New("broken pipe")}

	_, err := trig.WaitForWaveform(ctx, time.Second, false)
	var commErr *instrument.CommunicationError
	require.ErrorAs(t, err, &commErr)
}

func TestWaitReleasesLockBetweenPolls(t *testing.T) {
	s, drv := newTestScope(t)
	ctx := context.Background()
	trig := s.Trigger()

	drv.fireAfterPolls = -1
	require.NoError(t, trig.ArmAuto(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = trig.WaitForWaveform(ctx, 300*time.Millisecond, false)
	}()

	// State queries must not block behind the waiting goroutine.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.Equal(t, StateArmedAuto, trig.State())
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()
}

func TestAs(t *testing.T) {
	s, drv := newTestScope(t)

	got, err := As[*fakeDriver](s)
	require.NoError(t, err)
	require.Same(t, drv, got)

	type otherDriver struct{ Driver }
	_, err = As[*otherDriver](s)
	var mismatch *instrument.DriverTypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Contains(t, mismatch.Have, "fakeDriver")
}

func TestResetDisarms(t *testing.T) {
	s, _ := newTestScope(t)
	ctx := context.Background()

	require.NoError(t, s.Trigger().ArmSingle(ctx))
	require.NoError(t, s.Reset(ctx))
	require.Equal(t, StateDisarmed, s.Trigger().State())
}
