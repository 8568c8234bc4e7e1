// Package waveform holds captured sample data and its file formats.
//
// A Waveform is an immutable series of y samples on a uniform time axis
// anchored at the trigger point. Arithmetic (scaling, elementwise add and
// subtract) produces new waveforms; the time axis can be rendered in any
// engineering unit. Waveforms round-trip through a compact CBOR file
// format and export to plain two-column CSV.
package waveform

import (
	"errors"
	"fmt"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
)

// Waveform arithmetic errors.
var (
	ErrAxisMismatch = errors.New("waveform x-axes do not match")
	ErrEmpty        = errors.New("waveform has no samples")
)

// Waveform is a named, uniformly sampled capture. x[i] = (i-trigger)*dx
// seconds, so the trigger instant is always at x = 0.
type Waveform struct {
	name         string
	dxSeconds    float64
	triggerIndex int
	ys           []float64
	capturedAt   time.Time
}

// New creates a Waveform. The sample slice is copied.
func New(name string, dxSeconds float64, triggerIndex int, ys []float64) *Waveform {
	samples := make([]float64, len(ys))
	copy(samples, ys)
	return &Waveform{
		name:         name,
		dxSeconds:    dxSeconds,
		triggerIndex: triggerIndex,
		ys:           samples,
	}
}

// Name returns the waveform name, used for plots and exports.
func (w *Waveform) Name() string {
	return w.name
}

// WithName returns a copy of the waveform under a different name.
func (w *Waveform) WithName(name string) *Waveform {
	out := *w
	out.name = name
	return &out
}

// DxSeconds returns the x-axis step in seconds.
func (w *Waveform) DxSeconds() float64 {
	return w.dxSeconds
}

// TriggerIndex returns the sample index of the trigger instant.
func (w *Waveform) TriggerIndex() int {
	return w.triggerIndex
}

// Len returns the number of samples.
func (w *Waveform) Len() int {
	return len(w.ys)
}

// CapturedAt returns the acquisition timestamp, zero if unknown.
func (w *Waveform) CapturedAt() time.Time {
	return w.capturedAt
}

// WithCapturedAt returns a copy carrying the acquisition timestamp.
func (w *Waveform) WithCapturedAt(at time.Time) *Waveform {
	out := *w
	out.capturedAt = at
	return &out
}

// xAt returns x[i] in seconds.
func (w *Waveform) xAt(i int) float64 {
	return float64(i-w.triggerIndex) * w.dxSeconds
}

// X returns the time axis in the given unit.
func (w *Waveform) X(unit duration.TimeUnit) []float64 {
	scale := 1 / unit.Seconds()
	xs := make([]float64, len(w.ys))
	for i := range w.ys {
		xs[i] = w.xAt(i) * scale
	}
	return xs
}

// Y returns a copy of the sample values.
func (w *Waveform) Y() []float64 {
	ys := make([]float64, len(w.ys))
	copy(ys, w.ys)
	return ys
}

// XY returns the time axis in the given unit together with the samples,
// keeping only points accepted by the predicates. Nil predicates accept
// everything; x predicates see seconds-scaled values in the requested
// unit.
func (w *Waveform) XY(unit duration.TimeUnit, xPred, yPred func(float64) bool) (xs, ys []float64) {
	scale := 1 / unit.Seconds()
	for i, y := range w.ys {
		x := w.xAt(i) * scale
		if xPred != nil && !xPred(x) {
			continue
		}
		if yPred != nil && !yPred(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

// OptimalUnit returns the engineering unit best suited to the capture
// window, the one a plot axis would use.
func (w *Waveform) OptimalUnit() duration.TimeUnit {
	if len(w.ys) < 2 {
		return duration.S
	}
	window := w.xAt(len(w.ys)-1) - w.xAt(0)
	return duration.FromSeconds(window).Optimize().Unit()
}

// Scale returns the waveform with every sample multiplied by k.
func (w *Waveform) Scale(k float64) *Waveform {
	out := New(w.name, w.dxSeconds, w.triggerIndex, w.ys)
	out.capturedAt = w.capturedAt
	for i := range out.ys {
		out.ys[i] *= k
	}
	return out
}

// Add returns the elementwise sum of two waveforms. Both must share the
// same x-axis (step, trigger index and length).
func (w *Waveform) Add(o *Waveform) (*Waveform, error) {
	if w.dxSeconds != o.dxSeconds || w.triggerIndex != o.triggerIndex || len(w.ys) != len(o.ys) {
		return nil, fmt.Errorf("%w: (dx=%v, trigger=%d, n=%d) vs (dx=%v, trigger=%d, n=%d)",
			ErrAxisMismatch,
			w.dxSeconds, w.triggerIndex, len(w.ys),
			o.dxSeconds, o.triggerIndex, len(o.ys))
	}
	out := New(w.name, w.dxSeconds, w.triggerIndex, w.ys)
	out.capturedAt = w.capturedAt
	for i := range out.ys {
		out.ys[i] += o.ys[i]
	}
	return out, nil
}

// Sub returns the elementwise difference w - o.
func (w *Waveform) Sub(o *Waveform) (*Waveform, error) {
	return w.Add(o.Scale(-1))
}

// String renders a summary for logs.
func (w *Waveform) String() string {
	return fmt.Sprintf("Waveform(%s :: len=%d, dx=%v s, trigger_index=%d)",
		w.name, len(w.ys), w.dxSeconds, w.triggerIndex)
}
