package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// oneTwoFiveS is the timebase table the simulated scope snaps to, in
// seconds per division.
var oneTwoFiveS = []float64{
	1e-9, 2e-9, 5e-9, 1e-8, 2e-8, 5e-8, 1e-7, 2e-7, 5e-7,
	1e-6, 2e-6, 5e-6, 1e-5, 2e-5, 5e-5, 1e-4, 2e-4, 5e-4,
	1e-3, 2e-3, 5e-3, 1e-2, 2e-2, 5e-2, 0.1, 0.2, 0.5, 1, 2, 5, 10,
}

type simChannel struct {
	coupling  string
	impedance float64
	scaleV    float64
	offsetV   float64
}

// Scope is a simulated oscilloscope. It accepts both the Siglent and
// the Rigol SCPI dialects the bundled drivers speak, so either driver
// can run against it.
type Scope struct {
	// IDN is returned by the identification handshake.
	IDN string

	// Channels is the channel count; impedance selection is only
	// honored when FixedImpedance is zero.
	Channels       int
	FixedImpedance float64

	// FireAfterPolls makes the trigger fire after that many status
	// polls while armed; negative never fires.
	FireAfterPolls int

	// Samples is the number of points in a synthesized waveform.
	Samples int

	timeScaleS float64
	delayS     float64
	channels   map[int]*simChannel

	armed     bool
	dataReady bool
	polls     int

	waveSource int
}

// NewSiglentSDS824 creates a simulated 4-channel SDS824X HD.
func NewSiglentSDS824(serial string) *Scope {
	return newScope(fmt.Sprintf("Siglent Technologies,SDS824X HD,%s,3.8.12", serial), 4, 0)
}

// NewRigolDS1054 creates a simulated 4-channel DS1054Z with fixed
// 1 MOhm inputs.
func NewRigolDS1054(serial string) *Scope {
	return newScope(fmt.Sprintf("RIGOL TECHNOLOGIES,DS1054Z,%s,00.04.04", serial), 4, 1e6)
}

func newScope(idn string, channels int, fixedImpedance float64) *Scope {
	s := &Scope{
		IDN:            idn,
		Channels:       channels,
		FixedImpedance: fixedImpedance,
		FireAfterPolls: 0,
		Samples:        200,
		timeScaleS:     1e-3,
		channels:       make(map[int]*simChannel),
	}
	for n := 1; n <= channels; n++ {
		impedance := fixedImpedance
		if impedance == 0 {
			impedance = 1e6
		}
		s.channels[n] = &simChannel{coupling: "DC", impedance: impedance, scaleV: 1}
	}
	return s
}

// Identify implements Device.
func (s *Scope) Identify() string {
	return s.IDN
}

// TriggerStatus implements Device.
func (s *Scope) TriggerStatus() transport.TriggerStatus {
	if s.armed && s.FireAfterPolls >= 0 {
		s.polls++
		if s.polls > s.FireAfterPolls {
			s.armed, s.dataReady = false, true
		}
	}
	return transport.TriggerStatus{Armed: s.armed, DataReady: s.dataReady}
}

// Handle implements Device.
func (s *Scope) Handle(cmd string) (string, error) {
	cmd = strings.TrimSpace(cmd)
	verb, arg, _ := strings.Cut(cmd, " ")
	verb = strings.ToUpper(verb)

	switch {
	case verb == "*RST":
		s.armed, s.dataReady = false, false
		s.timeScaleS = 1e-3
		return "", nil

	case verb == "*IDN?":
		return s.IDN, nil

	case verb == ":TIMEBASE:SCALE" || verb == ":TIMEBASE:MAIN:SCALE":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad timebase argument %q", arg)
		}
		s.timeScaleS = instrument.Nearest(v, oneTwoFiveS)
		return "", nil

	case verb == ":TIMEBASE:SCALE?" || verb == ":TIMEBASE:MAIN:SCALE?":
		return formatSCPI(s.timeScaleS), nil

	case verb == ":TIMEBASE:DELAY" || verb == ":TIMEBASE:MAIN:OFFSET":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad delay argument %q", arg)
		}
		s.delayS = v
		return "", nil

	case strings.HasPrefix(verb, ":CHANNEL"):
		return s.handleChannel(verb, arg)

	case strings.HasPrefix(verb, ":TRIGGER:"):
		return s.handleTrigger(verb)

	case verb == ":SINGLE" || verb == ":RUN":
		s.arm()
		return "", nil

	case verb == ":STOP":
		s.armed = false
		return "", nil

	case strings.HasPrefix(verb, ":WAVEFORM:"):
		return s.handleWaveform(verb, arg)

	case verb == ":ACQUIRE:MDEPTH?":
		return "1.00E+06", nil
	}

	return "", fmt.Errorf("unrecognized command %q", cmd)
}

func (s *Scope) arm() {
	s.armed, s.dataReady = true, false
	s.polls = 0
}

func (s *Scope) handleChannel(verb, arg string) (string, error) {
	rest := strings.TrimPrefix(verb, ":CHANNEL")
	numStr, sub, ok := strings.Cut(rest, ":")
	if !ok {
		return "", fmt.Errorf("malformed channel command %q", verb)
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 || n > s.Channels {
		return "", fmt.Errorf("no channel %q", numStr)
	}
	ch := s.channels[n]

	switch sub {
	case "COUPLING":
		ch.coupling = strings.ToUpper(arg)
		return "", nil
	case "COUPLING?":
		return ch.coupling, nil

	case "IMPEDANCE":
		if s.FixedImpedance != 0 {
			return "", fmt.Errorf("impedance is fixed on this model")
		}
		switch strings.ToUpper(arg) {
		case "FIFTY":
			ch.impedance = 50
		case "ONEMEG":
			ch.impedance = 1e6
		default:
			return "", fmt.Errorf("bad impedance argument %q", arg)
		}
		return "", nil
	case "IMPEDANCE?":
		if ch.impedance == 50 {
			return "FIFTy", nil
		}
		return "ONEMeg", nil

	case "SCALE":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad scale argument %q", arg)
		}
		ch.scaleV = v
		return "", nil
	case "SCALE?":
		return formatSCPI(ch.scaleV), nil

	case "OFFSET":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad offset argument %q", arg)
		}
		ch.offsetV = v
		return "", nil
	case "OFFSET?":
		return formatSCPI(ch.offsetV), nil

	case "BWLIMIT":
		return "", nil
	}

	return "", fmt.Errorf("unrecognized channel command %q", verb)
}

func (s *Scope) handleTrigger(verb string) (string, error) {
	switch verb {
	case ":TRIGGER:RUN":
		s.arm()
		return "", nil
	case ":TRIGGER:STOP":
		s.armed = false
		return "", nil
	}
	// Mode, sweep, source, level and slope writes are accepted without
	// further modeling; the sim triggers on poll count, not signal.
	return "", nil
}

func (s *Scope) handleWaveform(verb, arg string) (string, error) {
	switch verb {
	case ":WAVEFORM:SOURCE":
		src := strings.ToUpper(arg)
		src = strings.TrimPrefix(src, "CHANNEL")
		src = strings.TrimPrefix(src, "C")
		n, err := strconv.Atoi(src)
		if err != nil || n < 1 || n > s.Channels {
			return "", fmt.Errorf("bad waveform source %q", arg)
		}
		s.waveSource = n
		return "", nil

	case ":WAVEFORM:FORMAT", ":WAVEFORM:MODE", ":WAVEFORM:START", ":WAVEFORM:STOP":
		return "", nil

	case ":WAVEFORM:XINCREMENT?":
		return formatSCPI(s.dx()), nil

	case ":WAVEFORM:XORIGIN?":
		return formatSCPI(-float64(s.Samples/2) * s.dx()), nil

	case ":WAVEFORM:DATA?":
		return s.synthesize(), nil
	}

	return "", fmt.Errorf("unrecognized waveform command %q", verb)
}

func (s *Scope) dx() float64 {
	return s.timeScaleS * 10 / float64(s.Samples)
}

// synthesize renders a sine burst sized to the configured vertical
// scale, five cycles across the screen.
func (s *Scope) synthesize() string {
	ch := s.channels[s.waveSource]
	if ch == nil {
		ch = &simChannel{scaleV: 1}
	}
	amplitude := ch.scaleV * 3
	window := s.timeScaleS * 10

	parts := make([]string, s.Samples)
	for i := range parts {
		t := float64(i-s.Samples/2) * s.dx()
		y := amplitude*math.Sin(2*math.Pi*5*t/window) - ch.offsetV
		parts[i] = strconv.FormatFloat(y, 'E', 6, 64)
	}
	return strings.Join(parts, ",")
}

func formatSCPI(v float64) string {
	return strconv.FormatFloat(v, 'E', 6, 64)
}
