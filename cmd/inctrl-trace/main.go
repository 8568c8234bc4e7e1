// Command inctrl-trace views and analyzes instrument trace files.
//
// Trace files are created by passing a FileLogger to a session; every
// command, response, state change and resolution outcome is recorded.
//
// Usage:
//
//	inctrl-trace <command> [flags] <file.itrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	inctrl-trace view bench.itrace
//
//	# View only commands sent to one instrument
//	inctrl-trace view --address tcp://10.0.0.17:5025 --category command bench.itrace
//
//	# Show statistics
//	inctrl-trace stats bench.itrace
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/inctrl-project/inctrl-go/cmd/inctrl-trace/commands"
)

const usage = `inctrl-trace - Instrument Trace Analyzer

Usage:
  inctrl-trace <command> [flags] <file.itrace>

Commands:
  view     View trace file in human-readable format
  stats    Show statistics about the trace file

Use "inctrl-trace <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `inctrl-trace view - View trace file in human-readable format

Usage:
  inctrl-trace view [flags] <file.itrace>

Flags:
`)
		fs.PrintDefaults()
	}

	address := fs.String("address", "", "Filter by instrument address")
	category := fs.String("category", "", "Filter by category (command, response, identify, poll, state_change, resolution, error)")
	traceID := fs.String("trace-id", "", "Filter by trace ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := commands.ViewFilter{
		Address: *address,
		TraceID: *traceID,
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `inctrl-trace stats - Show statistics about the trace file

Usage:
  inctrl-trace stats <file.itrace>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
