// Command inctrl-shell provides an interactive command line for a
// test bench. It resolves instruments, issues raw queries and drives
// oscilloscope and power supply sessions from a prompt.
//
// Usage:
//
//	go run ./cmd/inctrl-shell [-bench bench.yaml] [-trace session.itrace] [-sim]
//
// With -sim a simulated oscilloscope and power supply are attached so
// the shell can be explored without hardware.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/inctrl-project/inctrl-go/cmd/inctrl-shell/interactive"
	"github.com/inctrl-project/inctrl-go/internal/sim"
	"github.com/inctrl-project/inctrl-go/pkg/alias"
	"github.com/inctrl-project/inctrl-go/pkg/inctrl"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

const (
	simScopeAddr = "tcp://sim-scope:5025"
	simPSUAddr   = "tcp://sim-psu:5555"
)

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	benchPath := flag.String("bench", "", "Bench alias file (YAML)")
	tracePath := flag.String("trace", "", "Write an instrument trace to this file")
	useSim := flag.Bool("sim", false, "Attach simulated instruments")
	flag.Parse()

	var logger trace.Logger = trace.NoopLogger{}
	if *tracePath != "" {
		fl, err := trace.NewFileLogger(*tracePath)
		if err != nil {
			log.Fatalf("Failed to open trace file: %v", err)
		}
		defer fl.Close()
		logger = fl
	}

	var aliases *alias.Store
	if *benchPath != "" {
		store, err := alias.Load(*benchPath)
		if err != nil {
			log.Fatalf("Failed to load bench file: %v", err)
		}
		aliases = store
	}

	var tp transport.Transport = transport.NewTCP(transport.DefaultTCPConfig())
	if *useSim {
		bench := sim.NewBench()
		bench.Add(simScopeAddr, sim.NewSiglentSDS824("SIM001"))
		bench.Add(simPSUAddr, sim.NewRigolDP832("SIM002"))
		tp = bench
		log.Printf("Simulated bench: oscilloscope at %s, power supply at %s", simScopeAddr, simPSUAddr)
	}

	opts := []inctrl.Option{
		inctrl.WithTransport(tp),
		inctrl.WithLogger(logger),
	}
	if aliases != nil {
		opts = append(opts, inctrl.WithAliases(aliases))
	}
	session := inctrl.NewSession(opts...)

	sh, err := interactive.New(session, tp, aliases, logger)
	if err != nil {
		log.Fatalf("Failed to start shell: %v", err)
	}

	if err := sh.Run(); err != nil {
		log.Printf("Shell error: %v", err)
		os.Exit(1)
	}
}
