// Package interactive provides the command loop for inctrl-shell.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/inctrl-project/inctrl-go/pkg/alias"
	"github.com/inctrl-project/inctrl-go/pkg/discovery"
	"github.com/inctrl-project/inctrl-go/pkg/inctrl"
	"github.com/inctrl-project/inctrl-go/pkg/psu"
	"github.com/inctrl-project/inctrl-go/pkg/scope"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// commandTimeout bounds every single instrument operation issued from
// the prompt.
const commandTimeout = 10 * time.Second

// Shell holds the interactive session state. At most one oscilloscope
// and one power supply are open at a time.
type Shell struct {
	session *inctrl.Session
	tp      transport.Transport
	aliases *alias.Store
	logger  trace.Logger
	rl      *readline.Instance

	scope *scope.Scope
	psu   *psu.PowerSupply
}

// New creates a new interactive shell.
func New(session *inctrl.Session, tp transport.Transport, aliases *alias.Store, logger trace.Logger) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "inctrl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		session: session,
		tp:      tp,
		aliases: aliases,
		logger:  logger,
		rl:      rl,
	}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (sh *Shell) Stdout() io.Writer {
	return sh.rl.Stdout()
}

// Run starts the command loop and blocks until the user exits.
func (sh *Shell) Run() error {
	defer sh.rl.Close()

	sh.printHelp()

	for {
		line, err := sh.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			sh.printHelp()

		case "discover", "d":
			sh.cmdDiscover(args)

		case "aliases", "a":
			sh.cmdAliases()

		case "idn":
			sh.cmdIdentify(args)

		case "query", "q":
			sh.cmdQuery(args)

		case "send":
			sh.cmdSend(args)

		case "scope":
			sh.cmdOpenScope(args)

		case "window", "range", "coupling", "trig", "arm", "disarm", "state", "wait", "capture":
			sh.cmdScope(cmd, args)

		case "psu":
			sh.cmdOpenPSU(args)

		case "volt", "ilim", "on", "off", "meas":
			sh.cmdPSU(cmd, args)

		case "quit", "exit":
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return nil

		default:
			fmt.Fprintf(sh.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (sh *Shell) printHelp() {
	fmt.Fprintln(sh.rl.Stdout(), `
Bench Commands:
  discover [seconds]        - Browse mDNS for instruments
  aliases                   - List bench aliases
  idn <target>              - Query *IDN? from an address or alias
  query <target> <scpi>     - Send a raw query and print the response
  send <target> <scpi>      - Send a raw command without a response

Oscilloscope (open with 'scope <target>'):
  window <duration>         - Set the time window, e.g. 'window 2ms'
  range <ch> <vmin> <vmax>  - Set vertical range of a channel
  coupling <ch> <ac|dc|gnd> - Set channel coupling
  trig <ch> <level> [fall]  - Configure a rising (or falling) edge trigger
  arm [single|auto|normal]  - Arm the trigger (default single)
  disarm                    - Disarm the trigger
  state                     - Show the acquisition state
  wait [seconds]            - Wait for a triggered acquisition
  capture <ch> [file]       - Download a waveform, optionally save it

Power Supply (open with 'psu <target>'):
  volt <out> <v>            - Set output voltage
  ilim <out> <a>            - Set current limit
  on <out> / off <out>      - Enable or disable an output
  meas <out>                - Measure voltage and current

General:
  help                      - Show this help
  quit                      - Exit

Targets are raw addresses (tcp://host:port) or bench aliases.`)
}

// resolveAddress maps a bench alias to its address, or passes a raw
// address through unchanged.
func (sh *Shell) resolveAddress(target string) string {
	if sh.aliases == nil {
		return target
	}
	entry, err := sh.aliases.ResolveAlias(target)
	if err != nil {
		return target
	}
	return entry.Address
}

func (sh *Shell) cmdDiscover(args []string) {
	timeout := discovery.BrowseTimeout
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Fprintf(sh.rl.Stdout(), "Invalid timeout: %v\n", err)
			return
		}
		timeout = time.Duration(secs * float64(time.Second))
	}

	fmt.Fprintf(sh.rl.Stdout(), "Browsing for %s...\n", timeout)

	config := discovery.DefaultBrowserConfig()
	config.BrowseTimeout = timeout
	browser := discovery.NewBrowser(config)
	defer browser.Stop()

	found, err := browser.FindAll(context.Background())
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Discovery failed: %v\n", err)
		return
	}
	if len(found) == 0 {
		fmt.Fprintln(sh.rl.Stdout(), "No instruments found")
		return
	}

	for _, inst := range found {
		fmt.Fprintf(sh.rl.Stdout(), "  %s\n", inst)
	}
}

func (sh *Shell) cmdAliases() {
	if sh.aliases == nil {
		fmt.Fprintln(sh.rl.Stdout(), "No bench file loaded (start with -bench)")
		return
	}

	names := sh.aliases.Names()
	if len(names) == 0 {
		fmt.Fprintln(sh.rl.Stdout(), "Bench file has no aliases")
		return
	}

	for _, name := range names {
		entry, err := sh.aliases.ResolveAlias(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(sh.rl.Stdout(), "  %-16s %-12s %s\n", name, entry.Kind, entry.Address)
	}
}

func (sh *Shell) cmdIdentify(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: idn <target>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	disp := transport.NewDispatcher(sh.tp, sh.resolveAddress(args[0]), sh.logger)
	raw, err := disp.Identify(ctx)
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.rl.Stdout(), raw)
}

func (sh *Shell) cmdQuery(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: query <target> <scpi command>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	disp := transport.NewDispatcher(sh.tp, sh.resolveAddress(args[0]), sh.logger)
	resp, err := disp.Query(ctx, strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.rl.Stdout(), resp)
}

func (sh *Shell) cmdSend(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.rl.Stdout(), "Usage: send <target> <scpi command>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	disp := transport.NewDispatcher(sh.tp, sh.resolveAddress(args[0]), sh.logger)
	if err := disp.Write(ctx, strings.Join(args[1:], " ")); err != nil {
		fmt.Fprintf(sh.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.rl.Stdout(), "OK")
}
