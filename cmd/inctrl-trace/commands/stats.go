package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[trace.Category]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
	Instruments map[string]*InstrumentStats
}

// InstrumentStats holds statistics for a single instrument address.
type InstrumentStats struct {
	Events   int
	Commands int
	Errors   int
	Driver   string
}

// CollectStats reads the trace file and aggregates statistics.
func CollectStats(path string) (*Stats, error) {
	reader, err := trace.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[trace.Category]int),
		Instruments:      make(map[string]*InstrumentStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Address != "" {
			inst, ok := stats.Instruments[event.Address]
			if !ok {
				inst = &InstrumentStats{}
				stats.Instruments[event.Address] = inst
			}
			inst.Events++
			if event.Category == trace.CategoryCommand {
				inst.Commands++
			}
			if event.Error != nil {
				inst.Errors++
			}
			if event.Resolution != nil && event.Resolution.Driver != "" {
				inst.Driver = event.Resolution.Driver
			}
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	return stats, nil
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Instrument Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start))
	}
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Errors:       %d\n", stats.Errors)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	categories := make([]trace.Category, 0, len(stats.EventsByCategory))
	for c := range stats.EventsByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, c := range categories {
		fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", stats.EventsByCategory[c])
	}
	fmt.Fprintln(w)

	if len(stats.Instruments) > 0 {
		fmt.Fprintln(w, "Instruments:")
		addresses := make([]string, 0, len(stats.Instruments))
		for a := range stats.Instruments {
			addresses = append(addresses, a)
		}
		sort.Strings(addresses)
		for _, a := range addresses {
			inst := stats.Instruments[a]
			fmt.Fprintf(w, "  %s\n", a)
			if inst.Driver != "" {
				fmt.Fprintf(w, "    Driver:   %s\n", inst.Driver)
			}
			fmt.Fprintf(w, "    Events:   %d\n", inst.Events)
			fmt.Fprintf(w, "    Commands: %d\n", inst.Commands)
			if inst.Errors > 0 {
				fmt.Fprintf(w, "    Errors:   %d\n", inst.Errors)
			}
		}
	}
}
