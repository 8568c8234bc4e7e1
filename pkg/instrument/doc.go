// Package instrument holds the family-agnostic vocabulary of the library:
// instrument kinds, parsed bus identities, the shared error taxonomy, and
// the value-snapping helpers behind the "set returns actually-applied
// value" configuration contract.
package instrument
