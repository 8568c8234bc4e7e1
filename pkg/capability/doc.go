// Package capability models what an instrument driver can do and what a
// caller requires of one.
//
// A driver advertises a Map of named Values (scalar, boolean, or a discrete
// set of allowed values). A caller expresses requirements as Constraints
// (equals, at-least, at-most, member-of) which are ANDed together during
// driver selection; a key without a constraint is "don't care".
package capability
