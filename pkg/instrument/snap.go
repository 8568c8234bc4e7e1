package instrument

import "math"

// RelTol is the relative tolerance under which two continuous quantities
// count as equal for strict-mode set checks. Instrument precision is far
// coarser; the tolerance only absorbs float round-trip error through the
// wire format.
const RelTol = 1e-6

// Approx reports whether a and b are equal within RelTol.
func Approx(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= RelTol*scale
}

// Nearest returns the allowed value closest to requested. Ties snap to the
// lower value so the result is deterministic. An empty table returns the
// request unchanged.
func Nearest(requested float64, allowed []float64) float64 {
	if len(allowed) == 0 {
		return requested
	}
	best := allowed[0]
	bestDist := math.Abs(requested - best)
	for _, v := range allowed[1:] {
		d := math.Abs(requested - v)
		if d < bestDist || (d == bestDist && v < best) {
			best = v
			bestDist = d
		}
	}
	return best
}

// AtLeast returns the smallest allowed value that is >= requested. When the
// request exceeds every allowed value, it returns the largest one and false;
// this is the only sanctioned undershoot and strict callers must reject it.
// An empty table returns the request and true.
func AtLeast(requested float64, allowed []float64) (float64, bool) {
	if len(allowed) == 0 {
		return requested, true
	}
	found := false
	best := 0.0
	max := allowed[0]
	for _, v := range allowed {
		if v > max {
			max = v
		}
		if v >= requested && (!found || v < best) {
			best = v
			found = true
		}
	}
	if !found {
		return max, false
	}
	return best, true
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// CheckStrict implements the strict half of the configuration mutator
// contract: when strict is set and the applied value differs from the
// request (exactly for discrete properties, within RelTol for continuous
// ones), it returns a SetValueRejectedError.
func CheckStrict(strict bool, property string, requested, actual float64, discrete bool) error {
	if !strict {
		return nil
	}
	if discrete {
		if requested == actual {
			return nil
		}
	} else if Approx(requested, actual) {
		return nil
	}
	return &SetValueRejectedError{Property: property, Requested: requested, Actual: actual}
}
