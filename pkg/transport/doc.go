// Package transport defines the adapter interface between the instrument
// library and the physical bus, plus a TCP SCPI-raw implementation and a
// Dispatcher that adds per-round-trip tracing and error wrapping.
package transport
