package interactive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
)

// cmdOpenScope connects to an oscilloscope and makes it the current one.
func (sh *Shell) cmdOpenScope(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: scope <target>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sc, err := sh.session.Oscilloscope(ctx, args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	sh.scope = sc

	props := sc.Properties()
	fmt.Fprintf(sh.rl.Stdout(), "Connected: %s\n", sc.Identity())
	fmt.Fprintf(sh.rl.Stdout(), "  Driver:   %s\n", sc.Descriptor().Name)
	fmt.Fprintf(sh.rl.Stdout(), "  Channels: %d\n", props.Channels)
}

// cmdScope dispatches commands that operate on the current oscilloscope.
func (sh *Shell) cmdScope(cmd string, args []string) {
	if sh.scope == nil {
		fmt.Fprintln(sh.rl.Stdout(), "No oscilloscope open (use 'scope <target>')")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch cmd {
	case "window":
		sh.cmdWindow(ctx, args)
	case "range":
		sh.cmdRange(ctx, args)
	case "coupling":
		sh.cmdCoupling(ctx, args)
	case "trig":
		sh.cmdTrig(ctx, args)
	case "arm":
		sh.cmdArm(ctx, args)
	case "disarm":
		sh.cmdDisarm(ctx)
	case "state":
		fmt.Fprintf(sh.rl.Stdout(), "%s\n", sh.scope.Trigger().State())
	case "wait":
		sh.cmdWait(args)
	case "capture":
		sh.cmdCapture(ctx, args)
	}
}

func (sh *Shell) cmdWindow(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: window <duration>  (e.g. 'window 2ms')")
		return
	}

	window, err := duration.Parse(args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Invalid duration: %v\n", err)
		return
	}

	applied, err := sh.scope.SetTimeWindow(ctx, window, false)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Time window: %s\n", applied)
}

func (sh *Shell) cmdRange(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: range <ch> <vmin> <vmax>")
		return
	}

	ch, err := sh.channelArg(args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	vmin, err1 := strconv.ParseFloat(args[1], 64)
	vmax, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(sh.rl.Stdout(), "Invalid voltage values")
		return
	}

	if err := ch.SetRangeV(ctx, vmin, vmax, false); err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	gotMin, gotMax, err := ch.RangeV(ctx)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Range: [%g V, %g V]\n", gotMin, gotMax)
}

func (sh *Shell) cmdCoupling(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: coupling <ch> <ac|dc|gnd>")
		return
	}

	ch, err := sh.channelArg(args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	coupling, err := scope.ParseCoupling(args[1])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}

	applied, err := ch.SetCoupling(ctx, coupling, false)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Coupling: %s\n", applied)
}

func (sh *Shell) cmdTrig(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: trig <ch> <level> [fall]")
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Invalid channel: %v\n", err)
		return
	}
	level, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Invalid level: %v\n", err)
		return
	}
	slope := scope.SlopeRising
	if len(args) >= 3 && (args[2] == "fall" || args[2] == "falling") {
		slope = scope.SlopeFalling
	}

	err = sh.scope.Trigger().Configure(ctx, scope.EdgeTrigger{
		Source: scope.ChannelSource(n),
		LevelV: level,
		Slope:  slope,
	})
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.rl.Stdout(), "OK")
}

func (sh *Shell) cmdArm(ctx context.Context, args []string) {
	trig := sh.scope.Trigger()

	mode := "single"
	if len(args) > 0 {
		mode = args[0]
	}

	var err error
	switch mode {
	case "single":
		err = trig.ArmSingle(ctx)
	case "auto":
		err = trig.ArmAuto(ctx)
	case "normal":
		err = trig.ArmNormal(ctx)
	default:
		fmt.Fprintf(sh.rl.Stdout(), "Unknown arm mode: %s\n", mode)
		return
	}
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "Armed (%s)\n", mode)
}

func (sh *Shell) cmdDisarm(ctx context.Context) {
	if err := sh.scope.Trigger().Disarm(ctx); err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.rl.Stdout(), "Disarmed")
}

func (sh *Shell) cmdWait(args []string) {
	timeout := 5 * time.Second
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Fprintf(sh.rl.Stdout(), "Invalid timeout: %v\n", err)
			return
		}
		timeout = time.Duration(secs * float64(time.Second))
	}

	// The wait gets its own context so the command timeout does not
	// cut a longer acquisition short.
	ctx, cancel := context.WithTimeout(context.Background(), timeout+commandTimeout)
	defer cancel()

	fmt.Fprintf(sh.rl.Stdout(), "Waiting up to %s...\n", timeout)
	ok, err := sh.scope.Trigger().WaitForWaveform(ctx, timeout, false)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Fprintln(sh.rl.Stdout(), "No trigger")
		return
	}
	fmt.Fprintln(sh.rl.Stdout(), "Triggered")
}

func (sh *Shell) cmdCapture(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: capture <ch> [file]")
		return
	}

	ch, err := sh.channelArg(args[0])
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}

	wf, err := ch.Waveform(ctx, "")
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.rl.Stdout(), "%s\n", wf)

	if len(args) >= 2 {
		if err := wf.Save(args[1]); err != nil {
			fmt.Fprintf(sh.rl.Stdout(), "Save failed: %v\n", err)
			return
		}
		fmt.Fprintf(sh.rl.Stdout(), "Saved to %s\n", args[1])
	}
}

// channelArg resolves a channel argument, accepting both numbers and
// bench channel names.
func (sh *Shell) channelArg(arg string) (*scope.Channel, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return sh.scope.Channel(n)
	}
	return sh.scope.ChannelByName(arg)
}
