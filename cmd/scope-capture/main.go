// Command scope-capture connects to an oscilloscope, arms a single
// acquisition and saves the captured waveform.
//
// This example shows how to:
//   - Open a session with capability constraints
//   - Configure time window, vertical range and edge trigger
//   - Wait for a triggered acquisition with a timeout
//   - Export the waveform to CSV and the native file format
//
// Usage:
//
//	go run ./cmd/scope-capture -addr tcp://10.0.0.17:5025 -channel 1
//
// With -sim the capture runs against a simulated bench instead of
// hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/inctrl-project/inctrl-go/internal/sim"
	"github.com/inctrl-project/inctrl-go/pkg/capability"
	"github.com/inctrl-project/inctrl-go/pkg/duration"
	"github.com/inctrl-project/inctrl-go/pkg/inctrl"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	addr := flag.String("addr", "tcp://10.0.0.17:5025", "Instrument address or bench alias")
	channel := flag.Int("channel", 1, "Input channel to capture")
	window := flag.String("window", "2 ms", "Time window to capture")
	level := flag.Float64("level", 0.5, "Trigger level in volts")
	timeout := flag.Duration("timeout", 5*time.Second, "Acquisition timeout")
	output := flag.String("o", "capture", "Output file basename")
	tracePath := flag.String("trace", "", "Write an instrument trace to this file")
	useSim := flag.Bool("sim", false, "Capture from a simulated bench")
	flag.Parse()

	var opts []inctrl.Option
	if *useSim {
		bench := sim.NewBench()
		device := sim.NewSiglentSDS824("SIM001")
		device.FireAfterPolls = 3
		bench.Add(*addr, device)
		opts = append(opts, inctrl.WithTransport(bench))
		log.Println("Using simulated bench")
	}
	if *tracePath != "" {
		logger, err := trace.NewFileLogger(*tracePath)
		if err != nil {
			log.Fatalf("Failed to open trace file: %v", err)
		}
		defer logger.Close()
		opts = append(opts, inctrl.WithLogger(logger))
	}

	session := inctrl.NewSession(opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, session, *addr, *channel, *window, *level, *timeout, *output); err != nil {
		log.Fatalf("Capture failed: %v", err)
	}
}

func run(ctx context.Context, session *inctrl.Session, addr string, channel int, windowArg string, level float64, timeout time.Duration, output string) error {
	window, err := duration.Parse(windowArg)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}

	sc, err := session.Oscilloscope(ctx, addr,
		capability.AtLeast(capability.KeyNumChannels, float64(channel)))
	if err != nil {
		return err
	}
	log.Printf("Connected: %s via %s", sc.Identity(), sc.Descriptor().Name)

	applied, err := sc.SetTimeWindow(ctx, window, false)
	if err != nil {
		return err
	}
	log.Printf("Time window: %s", applied)

	ch, err := sc.Channel(channel)
	if err != nil {
		return err
	}
	if err := ch.SetRangeV(ctx, -2, 2, false); err != nil {
		return err
	}
	if _, err := ch.SetCoupling(ctx, scope.CouplingDC, false); err != nil {
		return err
	}

	trig := sc.Trigger()
	err = trig.Configure(ctx, scope.EdgeTrigger{
		Source: scope.ChannelSource(channel),
		LevelV: level,
		Slope:  scope.SlopeRising,
	})
	if err != nil {
		return err
	}

	if err := trig.ArmSingle(ctx); err != nil {
		return err
	}
	log.Printf("Armed, waiting up to %s for trigger", timeout)

	ok, err := trig.WaitForWaveform(ctx, timeout, false)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no trigger within %s", timeout)
	}

	wf, err := ch.Waveform(ctx, "")
	if err != nil {
		return err
	}
	log.Printf("Captured %s", wf)

	csvPath := output + ".csv"
	if err := wf.WriteCSVFile(csvPath, wf.OptimalUnit()); err != nil {
		return err
	}
	wfmPath := output + ".wfm"
	if err := wf.Save(wfmPath); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Wrote %s and %s (%d samples)\n", csvPath, wfmPath, wf.Len())
	return nil
}
