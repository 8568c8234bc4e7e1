// Package siglent implements drivers for Siglent bench instruments.
package siglent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/drivers/scpi"
	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
	"github.com/inctrl-project/inctrl-go/pkg/waveform"
)

// SDS800XHD drives the Siglent SDS800X HD series of 12-bit
// oscilloscopes over their raw-socket SCPI interface.
type SDS800XHD struct {
	disp     *transport.Dispatcher
	identity instrument.Identity
	channels int
}

// NewSDS800XHD creates the driver. The channel count is derived from
// the model number (SDS802X HD has 2 channels, SDS824X HD has 4).
func NewSDS800XHD(id instrument.Identity, disp *transport.Dispatcher) *SDS800XHD {
	channels := 4
	if strings.Contains(id.Model, "SDS80") && strings.Contains(id.Model, "2X") {
		channels = 2
	}
	return &SDS800XHD{disp: disp, identity: id, channels: channels}
}

// Compile-time interface satisfaction check.
var _ scope.Driver = (*SDS800XHD)(nil)

func (d *SDS800XHD) Properties() scope.Properties {
	return scope.Properties{
		Channels:          d.channels,
		TimeDivisions:     10,
		VerticalDivisions: 8,
		ValidImpedanceOhm: []float64{50, 1e6},
	}
}

func (d *SDS800XHD) Reset(ctx context.Context) error {
	return d.disp.Write(ctx, "*RST")
}

func (d *SDS800XHD) SetTimeScale(ctx context.Context, scale duration.Duration) error {
	return d.disp.Write(ctx, fmt.Sprintf(":TIMebase:SCALe %s", scpi.FormatFloat(scale.Seconds())))
}

func (d *SDS800XHD) TimeScale(ctx context.Context) (duration.Duration, error) {
	resp, err := d.disp.Query(ctx, ":TIMebase:SCALe?")
	if err != nil {
		return duration.Duration{}, err
	}
	v, err := scpi.ParseFloat(resp)
	if err != nil {
		return duration.Duration{}, err
	}
	return duration.FromSeconds(v), nil
}

func (d *SDS800XHD) SetCoupling(ctx context.Context, ch int, c scope.Coupling) error {
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:COUPling %s", ch, c))
}

func (d *SDS800XHD) Coupling(ctx context.Context, ch int) (scope.Coupling, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:COUPling?", ch))
	if err != nil {
		return "", err
	}
	return scope.ParseCoupling(resp)
}

func (d *SDS800XHD) SetImpedance(ctx context.Context, ch int, ohms float64) error {
	word := "ONEMeg"
	if ohms == 50 {
		word = "FIFTy"
	}
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:IMPedance %s", ch, word))
}

func (d *SDS800XHD) Impedance(ctx context.Context, ch int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:IMPedance?", ch))
	if err != nil {
		return 0, err
	}
	switch strings.ToUpper(strings.TrimSpace(resp)) {
	case "FIFTY", "FIFT", "50":
		return 50, nil
	case "ONEMEG", "1M":
		return 1e6, nil
	}
	return 0, fmt.Errorf("unexpected impedance response %q", resp)
}

func (d *SDS800XHD) SetScaleV(ctx context.Context, ch int, v float64) error {
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:SCALe %s", ch, scpi.FormatFloat(v)))
}

func (d *SDS800XHD) ScaleV(ctx context.Context, ch int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:SCALe?", ch))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *SDS800XHD) SetOffsetV(ctx context.Context, ch int, v float64) error {
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:OFFSet %s", ch, scpi.FormatFloat(v)))
}

func (d *SDS800XHD) OffsetV(ctx context.Context, ch int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:OFFSet?", ch))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *SDS800XHD) ConfigureTrigger(ctx context.Context, t scope.EdgeTrigger) error {
	source := "EX"
	if !t.Source.External {
		source = fmt.Sprintf("C%d", t.Source.Channel)
	}
	slope := "RISing"
	if t.Slope == scope.SlopeFalling {
		slope = "FALLing"
	}

	commands := []string{
		":TRIGger:TYPE EDGE",
		fmt.Sprintf(":TRIGger:EDGE:SOURce %s", source),
		fmt.Sprintf(":TRIGger:EDGE:LEVel %s", scpi.FormatFloat(t.LevelV)),
		fmt.Sprintf(":TRIGger:EDGE:SLOPe %s", slope),
		fmt.Sprintf(":TIMebase:DELay %s", scpi.FormatFloat(t.Delay.Seconds())),
	}
	for _, cmd := range commands {
		if err := d.disp.Write(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (d *SDS800XHD) Arm(ctx context.Context, mode scope.ArmMode) error {
	word := "SINGle"
	switch mode {
	case scope.ArmAuto:
		word = "AUTO"
	case scope.ArmNormal:
		word = "NORMal"
	}
	if err := d.disp.Write(ctx, ":TRIGger:MODE "+word); err != nil {
		return err
	}
	return d.disp.Write(ctx, ":TRIGger:RUN")
}

func (d *SDS800XHD) Disarm(ctx context.Context) error {
	return d.disp.Write(ctx, ":TRIGger:STOP")
}

func (d *SDS800XHD) TriggerStatus(ctx context.Context) (transport.TriggerStatus, error) {
	return d.disp.PollTriggerStatus(ctx)
}

func (d *SDS800XHD) Waveform(ctx context.Context, ch int) (*waveform.Waveform, error) {
	setup := []string{
		fmt.Sprintf(":WAVeform:SOURce C%d", ch),
		":WAVeform:FORMat ASCii",
	}
	for _, cmd := range setup {
		if err := d.disp.Write(ctx, cmd); err != nil {
			return nil, err
		}
	}

	dxResp, err := d.disp.Query(ctx, ":WAVeform:XINCrement?")
	if err != nil {
		return nil, err
	}
	dx, err := scpi.ParseFloat(dxResp)
	if err != nil {
		return nil, err
	}

	originResp, err := d.disp.Query(ctx, ":WAVeform:XORigin?")
	if err != nil {
		return nil, err
	}
	origin, err := scpi.ParseFloat(originResp)
	if err != nil {
		return nil, err
	}

	dataResp, err := d.disp.Query(ctx, ":WAVeform:DATA?")
	if err != nil {
		return nil, err
	}
	ys, err := scpi.ParseBlock(dataResp)
	if err != nil {
		return nil, err
	}

	// XORigin is the time of the first sample; the trigger sits at t=0.
	triggerIndex := 0
	if dx > 0 {
		triggerIndex = int(math.Round(-origin / dx))
	}
	return waveform.New(fmt.Sprintf("C%d", ch), dx, triggerIndex, ys), nil
}

// MemoryDepth reads the acquisition memory depth in samples, a
// model-specific capability the uniform handle does not expose.
func (d *SDS800XHD) MemoryDepth(ctx context.Context) (float64, error) {
	resp, err := d.disp.Query(ctx, ":ACQuire:MDEPth?")
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

// SetBandwidthLimit engages the 20 MHz bandwidth limit filter on a
// channel.
func (d *SDS800XHD) SetBandwidthLimit(ctx context.Context, ch int, on bool) error {
	word := "FULL"
	if on {
		word = "20M"
	}
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:BWLimit %s", ch, word))
}
