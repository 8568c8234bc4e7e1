package transport

import (
	"context"
)

// TriggerStatus is the instrument-reported acquisition status.
type TriggerStatus struct {
	// Armed reports whether the trigger is confirmed armed on the
	// hardware.
	Armed bool

	// DataReady reports whether a triggered acquisition has completed and
	// samples are buffered for download.
	DataReady bool
}

// Transport carries raw command strings to instruments on an addressable
// bus. Implementations handle framing and connection management; the rest
// of the library never sees below this interface.
//
// All methods return transport-level errors; callers wrap them into
// CommunicationError with operation context.
type Transport interface {
	// Identify performs the identification handshake with the instrument
	// at address and returns its raw identity string.
	Identify(ctx context.Context, address string) (string, error)

	// SendCommand sends one command to the instrument at address and
	// returns the raw response. Commands that elicit no response return
	// an empty string.
	SendCommand(ctx context.Context, address, command string) (string, error)

	// PollTriggerStatus reports the instrument's current trigger arm and
	// data-ready state.
	PollTriggerStatus(ctx context.Context, address string) (TriggerStatus, error)
}
