package interactive

import (
	"context"
	"fmt"
	"strconv"

	"github.com/inctrl-project/inctrl-go/pkg/psu"
)

// cmdOpenPSU connects to a power supply and makes it the current one.
func (sh *Shell) cmdOpenPSU(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: psu <target>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	supply, err := sh.session.PowerSupply(ctx, args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	sh.psu = supply

	props := supply.Properties()
	fmt.Fprintf(sh.rl.Stdout(), "Connected: %s\n", supply.Identity())
	fmt.Fprintf(sh.rl.Stdout(), "  Driver:  %s\n", supply.Descriptor().Name)
	fmt.Fprintf(sh.rl.Stdout(), "  Outputs: %d (max %g V, %g A)\n", props.Outputs, props.MaxVoltageV, props.MaxCurrentA)
}

// cmdPSU dispatches commands that operate on the current power supply.
func (sh *Shell) cmdPSU(cmd string, args []string) {
	if sh.psu == nil {
		fmt.Fprintln(sh.rl.Stdout(), "No power supply open (use 'psu <target>')")
		return
	}
	if len(args) < 1 {
		fmt.Fprintf(sh.rl.Stdout(), "Usage: %s <output> [value]\n", cmd)
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Invalid output: %v\n", err)
		return
	}
	out, err := sh.psu.Output(n)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch cmd {
	case "volt":
		sh.cmdVolt(ctx, out, args[1:])
	case "ilim":
		sh.cmdCurrentLimit(ctx, out, args[1:])
	case "on":
		if err := out.Enable(ctx); err != nil {
			fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(sh.rl.Stdout(), "Output %d on\n", n)
	case "off":
		if err := out.Disable(ctx); err != nil {
			fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(sh.rl.Stdout(), "Output %d off\n", n)
	case "meas":
		sh.cmdMeasure(ctx, out)
	}
}

func (sh *Shell) cmdVolt(ctx context.Context, out *psu.Output, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: volt <output> <volts>")
		return
	}

	volts, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Invalid voltage: %v\n", err)
		return
	}

	actual, err := out.SetVoltageV(ctx, volts, false)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Voltage: %g V\n", actual)
}

func (sh *Shell) cmdCurrentLimit(ctx context.Context, out *psu.Output, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: ilim <output> <amps>")
		return
	}

	amps, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Invalid current: %v\n", err)
		return
	}

	actual, err := out.SetCurrentLimitA(ctx, amps, false)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Current limit: %g A\n", actual)
}

func (sh *Shell) cmdMeasure(ctx context.Context, out *psu.Output) {
	volts, err := out.MeasureVoltageV(ctx)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	amps, err := out.MeasureCurrentA(ctx)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Output %d: %.3f V, %.4f A\n", out.Number(), volts, amps)
}
