package sim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

type simOutput struct {
	voltage float64
	limit   float64
	enabled bool
	ovp     float64
}

// PSU is a simulated DP800-style power supply.
type PSU struct {
	// IDN is returned by the identification handshake.
	IDN string

	// Outputs is the output channel count.
	Outputs int

	// LoadOhm models a resistive load for measurement queries; zero
	// means open terminals.
	LoadOhm float64

	// MaxVoltageV bounds programmable setpoints, like the firmware does.
	MaxVoltageV float64

	outputs map[int]*simOutput
}

// NewRigolDP832 creates a simulated three-output DP832.
func NewRigolDP832(serial string) *PSU {
	p := &PSU{
		IDN:         fmt.Sprintf("RIGOL TECHNOLOGIES,DP832,%s,00.01.16", serial),
		Outputs:     3,
		MaxVoltageV: 30,
		outputs:     make(map[int]*simOutput),
	}
	for n := 1; n <= p.Outputs; n++ {
		p.outputs[n] = &simOutput{limit: 0.1}
	}
	return p
}

// Identify implements Device.
func (p *PSU) Identify() string {
	return p.IDN
}

// TriggerStatus implements Device.
func (p *PSU) TriggerStatus() transport.TriggerStatus {
	return transport.TriggerStatus{}
}

// Handle implements Device.
func (p *PSU) Handle(cmd string) (string, error) {
	cmd = strings.TrimSpace(cmd)
	verb, arg, _ := strings.Cut(cmd, " ")
	verb = strings.ToUpper(verb)

	switch {
	case verb == "*RST":
		for _, out := range p.outputs {
			out.enabled = false
			out.voltage = 0
		}
		return "", nil

	case verb == "*IDN?":
		return p.IDN, nil

	case strings.HasPrefix(verb, ":SOURCE"):
		return p.handleSource(verb, arg)

	case verb == ":OUTPUT":
		chStr, state, ok := strings.Cut(arg, ",")
		if !ok {
			return "", fmt.Errorf("malformed output argument %q", arg)
		}
		out, err := p.output(chStr)
		if err != nil {
			return "", err
		}
		out.enabled = strings.EqualFold(strings.TrimSpace(state), "ON")
		return "", nil

	case verb == ":OUTPUT?":
		out, err := p.output(arg)
		if err != nil {
			return "", err
		}
		if out.enabled {
			return "ON", nil
		}
		return "OFF", nil

	case verb == ":MEASURE:VOLTAGE?":
		out, err := p.output(arg)
		if err != nil {
			return "", err
		}
		if !out.enabled {
			return "0.000", nil
		}
		return strconv.FormatFloat(out.voltage, 'f', 3, 64), nil

	case verb == ":MEASURE:CURRENT?":
		out, err := p.output(arg)
		if err != nil {
			return "", err
		}
		if !out.enabled || p.LoadOhm == 0 {
			return "0.0000", nil
		}
		return strconv.FormatFloat(out.voltage/p.LoadOhm, 'f', 4, 64), nil
	}

	return "", fmt.Errorf("unrecognized command %q", cmd)
}

func (p *PSU) output(chArg string) (*simOutput, error) {
	s := strings.ToUpper(strings.TrimSpace(chArg))
	s = strings.TrimPrefix(s, "CH")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > p.Outputs {
		return nil, fmt.Errorf("no output %q", chArg)
	}
	return p.outputs[n], nil
}

func (p *PSU) handleSource(verb, arg string) (string, error) {
	rest := strings.TrimPrefix(verb, ":SOURCE")
	numStr, sub, ok := strings.Cut(rest, ":")
	if !ok {
		return "", fmt.Errorf("malformed source command %q", verb)
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 || n > p.Outputs {
		return "", fmt.Errorf("no output %q", numStr)
	}
	out := p.outputs[n]

	switch sub {
	case "VOLTAGE":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad voltage argument %q", arg)
		}
		if p.MaxVoltageV > 0 && v > p.MaxVoltageV {
			v = p.MaxVoltageV
		}
		// Millivolt setpoint resolution.
		out.voltage = float64(int(v*1000+0.5)) / 1000
		return "", nil
	case "VOLTAGE?":
		return strconv.FormatFloat(out.voltage, 'f', 3, 64), nil

	case "CURRENT":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad current argument %q", arg)
		}
		out.limit = v
		return "", nil
	case "CURRENT?":
		return strconv.FormatFloat(out.limit, 'f', 4, 64), nil

	case "VOLTAGE:PROTECTION":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", fmt.Errorf("bad protection argument %q", arg)
		}
		out.ovp = v
		return "", nil
	case "VOLTAGE:PROTECTION:STATE":
		return "", nil
	}

	return "", fmt.Errorf("unrecognized source command %q", verb)
}
