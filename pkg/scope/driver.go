package scope

import (
	"context"
	"fmt"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
	"github.com/inctrl-project/inctrl-go/pkg/waveform"
)

// Coupling is the input coupling of a channel.
type Coupling string

const (
	CouplingAC  Coupling = "AC"
	CouplingDC  Coupling = "DC"
	CouplingGND Coupling = "GND"
)

// ParseCoupling parses a coupling name, case-insensitively.
func ParseCoupling(s string) (Coupling, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AC":
		return CouplingAC, nil
	case "DC":
		return CouplingDC, nil
	case "GND":
		return CouplingGND, nil
	}
	return "", fmt.Errorf("unknown coupling %q", s)
}

// TriggerSlope selects the triggering edge.
type TriggerSlope string

const (
	SlopeRising  TriggerSlope = "RISING"
	SlopeFalling TriggerSlope = "FALLING"
)

// TriggerSource identifies what the trigger watches.
type TriggerSource struct {
	// Channel is the 1-based input channel, 0 when External is set.
	Channel int

	// External selects the external trigger input.
	External bool
}

// ChannelSource returns the source for input channel n.
func ChannelSource(n int) TriggerSource {
	return TriggerSource{Channel: n}
}

// ExternalSource returns the external trigger input source.
func ExternalSource() TriggerSource {
	return TriggerSource{External: true}
}

func (s TriggerSource) String() string {
	if s.External {
		return "EXT"
	}
	return fmt.Sprintf("CH%d", s.Channel)
}

// EdgeTrigger describes an edge trigger condition.
type EdgeTrigger struct {
	Source TriggerSource
	LevelV float64
	Slope  TriggerSlope

	// Delay shifts the trigger point relative to screen center.
	Delay duration.Duration
}

// ArmMode selects how an armed acquisition behaves after a trigger.
type ArmMode uint8

const (
	// ArmSingle captures one waveform and stops.
	ArmSingle ArmMode = iota + 1

	// ArmAuto free-runs, triggering on timeout when no condition fires.
	ArmAuto

	// ArmNormal re-arms after every trigger, capturing only on condition.
	ArmNormal
)

// String returns the mode name as used in trace events.
func (m ArmMode) String() string {
	switch m {
	case ArmSingle:
		return "single"
	case ArmAuto:
		return "auto"
	case ArmNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Properties are the fixed characteristics a driver reports about its
// hardware. They never change after construction.
type Properties struct {
	// Channels is the number of analog input channels.
	Channels int

	// TimeDivisions is the number of horizontal screen divisions.
	TimeDivisions int

	// VerticalDivisions is the number of vertical screen divisions.
	VerticalDivisions int

	// ValidImpedanceOhm lists the selectable input impedances, ascending.
	ValidImpedanceOhm []float64

	// TimeScalesS lists the selectable time-per-division values in
	// seconds, ascending. Empty means continuously adjustable.
	TimeScalesS []float64
}

// Driver is the vendor-specific primitive layer beneath a Scope handle.
// Implementations talk raw commands through their dispatcher and perform
// no snapping, locking or state tracking; the handle does all of that.
// Channel numbers are 1-based and already range-checked by the handle.
type Driver interface {
	// Properties reports the fixed hardware characteristics.
	Properties() Properties

	// Reset restores the instrument to a known default state.
	Reset(ctx context.Context) error

	// SetTimeScale applies a horizontal scale; the instrument may snap it.
	SetTimeScale(ctx context.Context, scale duration.Duration) error

	// TimeScale reads back the applied horizontal scale.
	TimeScale(ctx context.Context) (duration.Duration, error)

	SetCoupling(ctx context.Context, channel int, c Coupling) error
	Coupling(ctx context.Context, channel int) (Coupling, error)

	SetImpedance(ctx context.Context, channel int, ohms float64) error
	Impedance(ctx context.Context, channel int) (float64, error)

	SetScaleV(ctx context.Context, channel int, voltsPerDiv float64) error
	ScaleV(ctx context.Context, channel int) (float64, error)

	SetOffsetV(ctx context.Context, channel int, volts float64) error
	OffsetV(ctx context.Context, channel int) (float64, error)

	// ConfigureTrigger programs an edge trigger condition.
	ConfigureTrigger(ctx context.Context, t EdgeTrigger) error

	// Arm starts an acquisition in the given mode.
	Arm(ctx context.Context, mode ArmMode) error

	// Disarm stops any running acquisition.
	Disarm(ctx context.Context) error

	// TriggerStatus polls the hardware acquisition status.
	TriggerStatus(ctx context.Context) (transport.TriggerStatus, error)

	// Waveform downloads the captured samples of a channel.
	Waveform(ctx context.Context, channel int) (*waveform.Waveform, error)
}
