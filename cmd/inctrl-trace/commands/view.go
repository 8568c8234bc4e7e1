package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

// ViewFilter selects which events the view command prints.
type ViewFilter struct {
	Address  string
	TraceID  string
	Category *trace.Category
}

// ParseCategoryFlag parses a category flag value.
func ParseCategoryFlag(s string) (trace.Category, error) {
	categories := map[string]trace.Category{
		"command":      trace.CategoryCommand,
		"response":     trace.CategoryResponse,
		"identify":     trace.CategoryIdentify,
		"poll":         trace.CategoryPoll,
		"state_change": trace.CategoryStateChange,
		"resolution":   trace.CategoryResolution,
		"error":        trace.CategoryError,
	}
	c, ok := categories[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// RunView prints the trace file in human-readable form.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	reader, err := trace.NewFilteredReader(path, trace.Filter{
		Address:  filter.Address,
		TraceID:  filter.TraceID,
		Category: filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		fmt.Fprintln(w, FormatEvent(event))
	}
	return nil
}

// FormatEvent renders one event as a single line.
func FormatEvent(e trace.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-2s %-12s", e.Timestamp.Format("15:04:05.000000"), e.Direction, e.Category)
	if e.Address != "" {
		fmt.Fprintf(&b, " %s", e.Address)
	}

	switch {
	case e.StateChange != nil:
		fmt.Fprintf(&b, " %s -> %s (%s)", e.StateChange.OldState, e.StateChange.NewState, e.StateChange.Reason)
	case e.Resolution != nil:
		r := e.Resolution
		if r.Driver != "" {
			fmt.Fprintf(&b, " %s resolved to %s (%d candidates)", r.Kind, r.Driver, r.Candidates)
		} else {
			fmt.Fprintf(&b, " %s resolution failed for %q (%d candidates)", r.Kind, r.Identity, r.Candidates)
		}
	case e.Error != nil:
		fmt.Fprintf(&b, " %s: %s", e.Error.Context, e.Error.Message)
	case e.Payload != "":
		fmt.Fprintf(&b, " %q", e.Payload)
	}
	return b.String()
}
