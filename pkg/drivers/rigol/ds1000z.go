// Package rigol implements drivers for Rigol bench instruments.
package rigol

import (
	"context"
	"fmt"
	"math"

	"github.com/inctrl-project/inctrl-go/pkg/drivers/scpi"
	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
	"github.com/inctrl-project/inctrl-go/pkg/waveform"
)

// DS1000Z drives the Rigol DS1000Z series of 4-channel oscilloscopes.
// The series has a fixed 1 MOhm input impedance.
type DS1000Z struct {
	disp     *transport.Dispatcher
	identity instrument.Identity
}

// NewDS1000Z creates the driver.
func NewDS1000Z(id instrument.Identity, disp *transport.Dispatcher) *DS1000Z {
	return &DS1000Z{disp: disp, identity: id}
}

// Compile-time interface satisfaction check.
var _ scope.Driver = (*DS1000Z)(nil)

func (d *DS1000Z) Properties() scope.Properties {
	return scope.Properties{
		Channels:          4,
		TimeDivisions:     12,
		VerticalDivisions: 8,
		ValidImpedanceOhm: []float64{1e6},
	}
}

func (d *DS1000Z) Reset(ctx context.Context) error {
	return d.disp.Write(ctx, "*RST")
}

func (d *DS1000Z) SetTimeScale(ctx context.Context, scale duration.Duration) error {
	return d.disp.Write(ctx, fmt.Sprintf(":TIMebase:MAIN:SCALe %s", scpi.FormatFloat(scale.Seconds())))
}

func (d *DS1000Z) TimeScale(ctx context.Context) (duration.Duration, error) {
	resp, err := d.disp.Query(ctx, ":TIMebase:MAIN:SCALe?")
	if err != nil {
		return duration.Duration{}, err
	}
	v, err := scpi.ParseFloat(resp)
	if err != nil {
		return duration.Duration{}, err
	}
	return duration.FromSeconds(v), nil
}

func (d *DS1000Z) SetCoupling(ctx context.Context, ch int, c scope.Coupling) error {
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:COUPling %s", ch, c))
}

func (d *DS1000Z) Coupling(ctx context.Context, ch int) (scope.Coupling, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:COUPling?", ch))
	if err != nil {
		return "", err
	}
	return scope.ParseCoupling(resp)
}

// SetImpedance accepts only the fixed 1 MOhm input; the series has no
// impedance command.
func (d *DS1000Z) SetImpedance(ctx context.Context, ch int, ohms float64) error {
	if ohms != 1e6 {
		return fmt.Errorf("channel %d: input impedance is fixed at 1 MOhm", ch)
	}
	return nil
}

func (d *DS1000Z) Impedance(ctx context.Context, ch int) (float64, error) {
	return 1e6, nil
}

func (d *DS1000Z) SetScaleV(ctx context.Context, ch int, v float64) error {
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:SCALe %s", ch, scpi.FormatFloat(v)))
}

func (d *DS1000Z) ScaleV(ctx context.Context, ch int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:SCALe?", ch))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *DS1000Z) SetOffsetV(ctx context.Context, ch int, v float64) error {
	return d.disp.Write(ctx, fmt.Sprintf(":CHANnel%d:OFFSet %s", ch, scpi.FormatFloat(v)))
}

func (d *DS1000Z) OffsetV(ctx context.Context, ch int) (float64, error) {
	resp, err := d.disp.Query(ctx, fmt.Sprintf(":CHANnel%d:OFFSet?", ch))
	if err != nil {
		return 0, err
	}
	return scpi.ParseFloat(resp)
}

func (d *DS1000Z) ConfigureTrigger(ctx context.Context, t scope.EdgeTrigger) error {
	source := "EXT"
	if !t.Source.External {
		source = fmt.Sprintf("CHANnel%d", t.Source.Channel)
	}
	slope := "POSitive"
	if t.Slope == scope.SlopeFalling {
		slope = "NEGative"
	}

	commands := []string{
		":TRIGger:MODE EDGE",
		fmt.Sprintf(":TRIGger:EDGe:SOURce %s", source),
		fmt.Sprintf(":TRIGger:EDGe:LEVel %s", scpi.FormatFloat(t.LevelV)),
		fmt.Sprintf(":TRIGger:EDGe:SLOPe %s", slope),
		fmt.Sprintf(":TIMebase:MAIN:OFFSet %s", scpi.FormatFloat(t.Delay.Seconds())),
	}
	for _, cmd := range commands {
		if err := d.disp.Write(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (d *DS1000Z) Arm(ctx context.Context, mode scope.ArmMode) error {
	if mode == scope.ArmSingle {
		return d.disp.Write(ctx, ":SINGle")
	}
	sweep := "AUTO"
	if mode == scope.ArmNormal {
		sweep = "NORMal"
	}
	if err := d.disp.Write(ctx, ":TRIGger:SWEep "+sweep); err != nil {
		return err
	}
	return d.disp.Write(ctx, ":RUN")
}

func (d *DS1000Z) Disarm(ctx context.Context) error {
	return d.disp.Write(ctx, ":STOP")
}

func (d *DS1000Z) TriggerStatus(ctx context.Context) (transport.TriggerStatus, error) {
	return d.disp.PollTriggerStatus(ctx)
}

func (d *DS1000Z) Waveform(ctx context.Context, ch int) (*waveform.Waveform, error) {
	setup := []string{
		fmt.Sprintf(":WAVeform:SOURce CHANnel%d", ch),
		":WAVeform:MODE NORMal",
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

	triggerIndex := 0
	if dx > 0 {
		triggerIndex = int(math.Round(-origin / dx))
	}
	return waveform.New(fmt.Sprintf("CHAN%d", ch), dx, triggerIndex, ys), nil
}
