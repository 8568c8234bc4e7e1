package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration parsing errors.
var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidUnit     = errors.New("invalid time unit")
)

// Duration is a signed physical time quantity with an associated display
// unit. The zero value is 0 s. Durations are comparable by magnitude
// regardless of unit: 1 s equals 1000 ms.
type Duration struct {
	value float64
	unit  TimeUnit
}

// Value constructs a Duration from a magnitude and unit.
func Value(v float64, u TimeUnit) Duration {
	return Duration{value: v, unit: u}
}

// FromSeconds constructs a Duration expressed in seconds.
func FromSeconds(s float64) Duration {
	return Duration{value: s, unit: S}
}

// FromStd converts a time.Duration.
func FromStd(d time.Duration) Duration {
	return FromSeconds(d.Seconds()).Optimize()
}

// Parse parses strings like "1 s", "23us" or "-1.5 MS". Whitespace around
// and between the magnitude and the unit is ignored. The unit symbol is
// case-insensitive but must not mix case.
func Parse(s string) (Duration, error) {
	trimmed := strings.TrimSpace(s)
	split := len(trimmed)
	for i, r := range trimmed {
		if r != '+' && r != '-' && r != '.' && (r < '0' || r > '9') {
			// 'e'/'E' may belong to an exponent ("1e-3 s")
			if (r == 'e' || r == 'E') && i > 0 && i+1 < len(trimmed) {
				next := trimmed[i+1]
				if next == '+' || next == '-' || (next >= '0' && next <= '9') {
					continue
				}
			}
			split = i
			break
		}
	}
	numPart := strings.TrimSpace(trimmed[:split])
	unitPart := strings.TrimSpace(trimmed[split:])
	if numPart == "" || unitPart == "" {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	unit, err := ParseTimeUnit(unitPart)
	if err != nil {
		return Duration{}, err
	}
	return Duration{value: value, unit: unit}, nil
}

// MustParse is like Parse but panics on error. Intended for constants in
// driver snap tables and tests.
func MustParse(s string) Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Seconds returns the magnitude in seconds.
func (d Duration) Seconds() float64 {
	return d.value * d.unit.Seconds()
}

// In returns the magnitude expressed in the given unit.
func (d Duration) In(u TimeUnit) float64 {
	return d.Seconds() / u.Seconds()
}

// Unit returns the display unit.
func (d Duration) Unit() TimeUnit {
	return d.unit
}

// Std converts to a time.Duration, rounding to nanoseconds. Magnitudes
// beyond the time.Duration range saturate.
func (d Duration) Std() time.Duration {
	s := d.Seconds()
	ns := s * 1e9
	switch {
	case ns > float64(math.MaxInt64):
		return time.Duration(math.MaxInt64)
	case ns < float64(math.MinInt64):
		return time.Duration(math.MinInt64)
	default:
		return time.Duration(ns)
	}
}

// Mul returns the duration scaled by k, keeping the display unit.
func (d Duration) Mul(k float64) Duration {
	return Duration{value: d.value * k, unit: d.unit}
}

// Div returns the duration divided by k, keeping the display unit.
func (d Duration) Div(k float64) Duration {
	return Duration{value: d.value / k, unit: d.unit}
}

// Add returns the sum of two durations in the receiver's display unit.
func (d Duration) Add(o Duration) Duration {
	return Duration{value: d.value + o.In(d.unit), unit: d.unit}
}

// Sub returns the difference of two durations in the receiver's display unit.
func (d Duration) Sub(o Duration) Duration {
	return Duration{value: d.value - o.In(d.unit), unit: d.unit}
}

// Abs returns the absolute value.
func (d Duration) Abs() Duration {
	return Duration{value: math.Abs(d.value), unit: d.unit}
}

// Cmp compares magnitudes: -1 if d < o, 0 if equal, 1 if d > o.
func (d Duration) Cmp(o Duration) int {
	a, b := d.Seconds(), o.Seconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether both durations have the same magnitude.
func (d Duration) Equal(o Duration) bool {
	return d.Cmp(o) == 0
}

// Less reports whether d is strictly shorter than o.
func (d Duration) Less(o Duration) bool {
	return d.Cmp(o) < 0
}

// Optimize returns an equal duration re-expressed in the largest unit for
// which the magnitude is at least 1. Zero stays in seconds.
func (d Duration) Optimize() Duration {
	s := d.Seconds()
	if s == 0 {
		return Duration{value: 0, unit: S}
	}
	for _, u := range [...]TimeUnit{KS, S, MS, US, NS} {
		if math.Abs(s)/u.Seconds() >= 1 {
			return Duration{value: s / u.Seconds(), unit: u}
		}
	}
	return Duration{value: s / NS.Seconds(), unit: NS}
}

// String renders the duration in its display unit, e.g. "1.5 ms".
func (d Duration) String() string {
	return fmt.Sprintf("%v %s", d.value, d.unit)
}
