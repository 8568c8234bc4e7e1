package capability

import (
	"fmt"
	"strings"
)

// Op is a constraint predicate.
type Op uint8

const (
	// OpEquals requires an exact match.
	OpEquals Op = iota

	// OpAtLeast requires the advertised value to be >= the wanted number.
	OpAtLeast

	// OpAtMost requires the advertised value to be <= the wanted number.
	OpAtMost

	// OpMemberOf requires the advertised value to be one of the wanted
	// numbers.
	OpMemberOf
)

// String returns the predicate symbol.
func (o Op) String() string {
	switch o {
	case OpEquals:
		return "=="
	case OpAtLeast:
		return ">="
	case OpAtMost:
		return "<="
	case OpMemberOf:
		return "in"
	default:
		return "?"
	}
}

// Constraint is a caller-supplied requirement on one capability key.
// Constraints on different keys are ANDed; a key without a constraint is
// unconstrained.
type Constraint struct {
	key     Key
	op      Op
	number  float64
	boolean bool
	members []float64
	isBool  bool
}

// Equals requires the capability to equal n exactly.
func Equals(key Key, n float64) Constraint {
	return Constraint{key: key, op: OpEquals, number: n}
}

// EqualsBool requires a boolean capability to equal b.
func EqualsBool(key Key, b bool) Constraint {
	return Constraint{key: key, op: OpEquals, boolean: b, isBool: true}
}

// AtLeast requires the capability to be at least n.
func AtLeast(key Key, n float64) Constraint {
	return Constraint{key: key, op: OpAtLeast, number: n}
}

// AtMost requires the capability to be at most n.
func AtMost(key Key, n float64) Constraint {
	return Constraint{key: key, op: OpAtMost, number: n}
}

// MemberOf requires the capability to be one of ns.
func MemberOf(key Key, ns ...float64) Constraint {
	members := make([]float64, len(ns))
	copy(members, ns)
	return Constraint{key: key, op: OpMemberOf, members: members}
}

// Key returns the constrained capability key.
func (c Constraint) Key() Key {
	return c.key
}

// Op returns the constraint predicate.
func (c Constraint) Op() Op {
	return c.op
}

// String renders the constraint for error messages, e.g. "num_channels >= 4".
func (c Constraint) String() string {
	switch {
	case c.isBool:
		return fmt.Sprintf("%s == %v", c.key, c.boolean)
	case c.op == OpMemberOf:
		parts := make([]string, len(c.members))
		for i, m := range c.members {
			parts[i] = fmt.Sprintf("%v", m)
		}
		return fmt.Sprintf("%s in {%s}", c.key, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %v", c.key, c.op, c.number)
	}
}

// numberSatisfies applies a numeric predicate to a single advertised number.
func (c Constraint) numberSatisfies(v float64) bool {
	switch c.op {
	case OpEquals:
		return v == c.number
	case OpAtLeast:
		return v >= c.number
	case OpAtMost:
		return v <= c.number
	case OpMemberOf:
		for _, m := range c.members {
			if v == m {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// SatisfiedBy reports whether the advertised value meets the constraint.
//
// A numeric constraint against a set value is satisfied if at least one
// member satisfies it. Boolean constraints match exactly and only against
// boolean values. Kind mismatches never satisfy.
func (c Constraint) SatisfiedBy(v Value) bool {
	if c.isBool {
		b, ok := v.Bool()
		return ok && b == c.boolean
	}
	switch v.Kind() {
	case KindScalar:
		n, _ := v.Scalar()
		return c.numberSatisfies(n)
	case KindSet:
		for _, m := range v.set {
			if c.numberSatisfies(m) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Satisfies reports whether the map meets the constraint. A key the map does
// not advertise never satisfies a constraint on that key.
func (m Map) Satisfies(c Constraint) bool {
	v, ok := m[c.Key()]
	if !ok {
		return false
	}
	return c.SatisfiedBy(v)
}

// SatisfiesAll reports whether every constraint is met, returning the first
// failing constraint when not.
func (m Map) SatisfiesAll(cs []Constraint) (Constraint, bool) {
	for _, c := range cs {
		if !m.Satisfies(c) {
			return c, false
		}
	}
	return Constraint{}, true
}
