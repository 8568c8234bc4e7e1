package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

// writeTestTrace records a short session: resolution, two command
// round trips, a state change and one error.
func writeTestTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.itrace")

	logger, err := trace.NewFileLogger(path)
	require.NoError(t, err)

	const addr = "tcp://10.0.0.17:5025"
	logger.Log(trace.Event{
		Timestamp: time.Now(),
		Address:   addr,
		Category:  trace.CategoryResolution,
		Resolution: &trace.ResolutionEvent{
			Kind:       "oscilloscope",
			Identity:   "Siglent Technologies,SDS824X HD,S1,3.8",
			Driver:     "siglent-sds800x-hd",
			Candidates: 1,
		},
	})
	logger.Log(trace.CommandEvent(addr, "t1", ":TIMebase:SCALe 0.002"))
	logger.Log(trace.ResponseEvent(addr, "t1", ""))
	logger.Log(trace.CommandEvent(addr, "t2", ":TIMebase:SCALe?"))
	logger.Log(trace.ResponseEvent(addr, "t2", "2.000000E-03"))
	logger.Log(trace.StateChange(addr, "disarmed", "armed_single", "arm_single"))
	logger.Log(trace.ErrorAt(addr, ":WAVeform:DATA?", assertErr{}))
	require.NoError(t, logger.Close())
	return path
}

type assertErr struct{}

func (assertErr) Error() string { return "read timeout" }

func TestRunView(t *testing.T) {
	path := writeTestTrace(t)

	var buf bytes.Buffer
	require.NoError(t, RunView(path, ViewFilter{}, &buf))

	out := buf.String()
	require.Contains(t, out, ":TIMebase:SCALe?")
	require.Contains(t, out, "disarmed -> armed_single")
	require.Contains(t, out, "resolved to siglent-sds800x-hd")
	require.Contains(t, out, "read timeout")
}

func TestRunViewCategoryFilter(t *testing.T) {
	path := writeTestTrace(t)

	c, err := ParseCategoryFlag("command")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RunView(path, ViewFilter{Category: &c}, &buf))

	out := buf.String()
	require.Contains(t, out, ":TIMebase:SCALe 0.002")
	require.NotContains(t, out, "armed_single")

	_, err = ParseCategoryFlag("bogus")
	require.Error(t, err)
}

func TestCollectStats(t *testing.T) {
	path := writeTestTrace(t)

	stats, err := CollectStats(path)
	require.NoError(t, err)
	require.Equal(t, 7, stats.TotalEvents)
	require.Equal(t, 1, stats.Errors)
	require.Equal(t, 2, stats.EventsByCategory[trace.CategoryCommand])

	inst, ok := stats.Instruments["tcp://10.0.0.17:5025"]
	require.True(t, ok)
	require.Equal(t, 7, inst.Events)
	require.Equal(t, 2, inst.Commands)
	require.Equal(t, "siglent-sds800x-hd", inst.Driver)
}

func TestRunStatsOutput(t *testing.T) {
	path := writeTestTrace(t)

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, &buf))
	require.Contains(t, buf.String(), "Total Events: 7")
	require.Contains(t, buf.String(), "siglent-sds800x-hd")
}
