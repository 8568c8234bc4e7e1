package waveform

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
)

func TestXAxis(t *testing.T) {
	w := New("ch1", 0.5, 2, []float64{1, 2, 3, 4, 5})

	xs := w.X(duration.S)
	want := []float64{-1, -0.5, 0, 0.5, 1}
	require.Equal(t, want, xs)

	// The trigger instant sits at x = 0 regardless of unit.
	xsMs := w.X(duration.MS)
	require.InDelta(t, -1000, xsMs[0], 1e-9)
	require.Zero(t, xsMs[2])
}

func TestXYPredicates(t *testing.T) {
	w := New("ch1", 1, 0, []float64{0, 10, 20, 30})

	xs, ys := w.XY(duration.S, func(x float64) bool { return x >= 1 }, nil)
	require.Equal(t, []float64{1, 2, 3}, xs)
	require.Equal(t, []float64{10, 20, 30}, ys)

	xs, ys = w.XY(duration.S, nil, func(y float64) bool { return y < 25 })
	require.Equal(t, []float64{0, 1, 2}, xs)
	require.Equal(t, []float64{0, 10, 20}, ys)

	xs, ys = w.XY(duration.S, nil, nil)
	require.Len(t, xs, 4)
	require.Len(t, ys, 4)
}

func TestOptimalUnit(t *testing.T) {
	tests := []struct {
		name string
		dx   float64
		n    int
		want duration.TimeUnit
	}{
		{"nanoseconds", 1e-9, 100, duration.NS},
		{"microseconds", 1e-7, 100, duration.US},
		{"milliseconds", 1e-4, 100, duration.MS},
		{"seconds", 0.1, 100, duration.S},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("x", tt.dx, 0, make([]float64, tt.n))
			require.Equal(t, tt.want, w.OptimalUnit())
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := New("a", 1e-3, 1, []float64{1, 2, 3})
	b := New("b", 1e-3, 1, []float64{10, 20, 30})

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, []float64{11, 22, 33}, sum.Y())
	require.Equal(t, "a", sum.Name())

	diff, err := b.Sub(a)
	require.NoError(t, err)
	require.Equal(t, []float64{9, 18, 27}, diff.Y())

	scaled := a.Scale(-2)
	require.Equal(t, []float64{-2, -4, -6}, scaled.Y())
	// Source untouched.
	require.Equal(t, []float64{1, 2, 3}, a.Y())
}

func TestAddAxisMismatch(t *testing.T) {
	a := New("a", 1e-3, 0, []float64{1, 2, 3})

	for _, b := range []*Waveform{
		New("b", 2e-3, 0, []float64{1, 2, 3}),
		New("b", 1e-3, 1, []float64{1, 2, 3}),
		New("b", 1e-3, 0, []float64{1, 2}),
	} {
		_, err := a.Add(b)
		require.ErrorIs(t, err, ErrAxisMismatch)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	w := New("ch2", 2e-6, 128, []float64{0.5, -0.25, math.Pi}).WithCapturedAt(at)

	path := filepath.Join(t.TempDir(), "capture.wfm")
	require.NoError(t, w.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ch2", got.Name())
	require.Equal(t, 2e-6, got.DxSeconds())
	require.Equal(t, 128, got.TriggerIndex())
	require.Equal(t, w.Y(), got.Y())
	require.True(t, got.CapturedAt().Equal(at))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wfm"))
	require.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	w := New("ch1", 1e-3, 1, []float64{0.25, 0.5, 0.75})

	var buf bytes.Buffer
	require.NoError(t, w.ExportCSV(&buf, duration.MS))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "time_ms,ch1", lines[0])
	require.Equal(t, "-1,0.25", lines[1])
	require.Equal(t, "0,0.5", lines[2])
	require.Equal(t, "1,0.75", lines[3])
}
