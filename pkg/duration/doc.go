// Package duration provides a physical time quantity for instrument
// configuration.
//
// Unlike time.Duration, a Duration carries a float64 magnitude and an
// engineering unit (ks, s, ms, us, ns), so it can represent values such as
// a 200 ps-scale timebase step or a 1.5 ks capture without rounding to
// integer nanoseconds. Durations are parsed from strings like "1 s",
// "23 us" or "1.5ms"; the unit is case-insensitive but must not mix case.
package duration
