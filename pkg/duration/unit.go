package duration

import (
	"fmt"
	"strings"
)

// TimeUnit is an engineering time unit.
type TimeUnit uint8

const (
	// NS is nanoseconds.
	NS TimeUnit = iota

	// US is microseconds.
	US

	// MS is milliseconds.
	MS

	// S is seconds.
	S

	// KS is kiloseconds.
	KS
)

// unitSeconds maps a TimeUnit to its size in seconds.
var unitSeconds = [...]float64{
	NS: 1e-9,
	US: 1e-6,
	MS: 1e-3,
	S:  1,
	KS: 1e3,
}

// unitSymbols maps a TimeUnit to its canonical lower-case symbol.
var unitSymbols = [...]string{
	NS: "ns",
	US: "us",
	MS: "ms",
	S:  "s",
	KS: "ks",
}

// Seconds returns the size of one unit in seconds.
func (u TimeUnit) Seconds() float64 {
	if int(u) >= len(unitSeconds) {
		return 1
	}
	return unitSeconds[u]
}

// String returns the unit symbol.
func (u TimeUnit) String() string {
	if int(u) >= len(unitSymbols) {
		return "s"
	}
	return unitSymbols[u]
}

// ParseTimeUnit parses a unit symbol. The symbol is case-insensitive, but
// mixed case ("Ks") is rejected.
func ParseTimeUnit(s string) (TimeUnit, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed != strings.ToLower(trimmed) && trimmed != strings.ToUpper(trimmed) {
		return S, fmt.Errorf("%w: mixed-case unit %q", ErrInvalidUnit, s)
	}
	switch strings.ToLower(trimmed) {
	case "ns":
		return NS, nil
	case "us":
		return US, nil
	case "ms":
		return MS, nil
	case "s":
		return S, nil
	case "ks":
		return KS, nil
	default:
		return S, fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}
