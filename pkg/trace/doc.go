// Package trace records structured instrument-interaction events.
//
// Every transport round trip (command, response, identification, trigger
// poll), every acquisition state change and every resolution outcome can be
// captured as an Event and handed to a Logger. FileLogger persists events
// as a CBOR stream for later inspection with Reader or the inctrl-trace
// tool; SlogAdapter mirrors events into a standard library slog.Logger
// during development.
package trace
