package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Key names a queryable, constrainable instrument property. Keys are
// namespaced per instrument family.
type Key string

// Well-known oscilloscope capability keys.
const (
	KeyNumChannels       Key = "num_channels"
	KeyImpedanceList     Key = "impedance_list"
	KeyBandwidthHz       Key = "bandwidth_hz"
	KeyMaxSampleRateHz   Key = "max_sample_rate_hz"
	KeyTimeDivisions     Key = "time_divisions"
	KeyVerticalDivisions Key = "vertical_divisions"
	KeyExternalTrigger   Key = "external_trigger"
)

// Well-known power-supply capability keys.
const (
	KeyNumOutputs  Key = "num_outputs"
	KeyMaxVoltageV Key = "max_voltage_v"
	KeyMaxCurrentA Key = "max_current_a"
)

// ValueKind tags the representation of a Value.
type ValueKind uint8

const (
	// KindScalar is a single numeric value.
	KindScalar ValueKind = iota

	// KindBool is a boolean flag.
	KindBool

	// KindSet is an ordered set of allowed numeric values.
	KindSet
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindBool:
		return "bool"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Value is a tagged capability value advertised by a driver.
type Value struct {
	kind    ValueKind
	scalar  float64
	boolean bool
	set     []float64
}

// Scalar constructs a numeric Value.
func Scalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Bool constructs a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// Set constructs a Value holding the given allowed values, sorted ascending.
func Set(vs ...float64) Value {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	return Value{kind: KindSet, set: sorted}
}

// Kind returns the value's tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Scalar returns the numeric value; ok is false for non-scalar kinds.
func (v Value) Scalar() (float64, bool) {
	return v.scalar, v.kind == KindScalar
}

// Bool returns the boolean value; ok is false for non-bool kinds.
func (v Value) Bool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

// Members returns the allowed values of a set, ascending; nil for other kinds.
func (v Value) Members() []float64 {
	if v.kind != KindSet {
		return nil
	}
	out := make([]float64, len(v.set))
	copy(out, v.set)
	return out
}

// String renders the value for error messages.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("%v", v.scalar)
	case KindBool:
		return fmt.Sprintf("%v", v.boolean)
	case KindSet:
		parts := make([]string, len(v.set))
		for i, m := range v.set {
			parts[i] = fmt.Sprintf("%v", m)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid>"
	}
}

// Map is a driver's advertised capability mapping.
type Map map[Key]Value
