package trace

import (
	"time"
)

// Direction indicates which way a command or payload flowed.
type Direction uint8

const (
	// DirectionNone is used for events without a flow direction.
	DirectionNone Direction = 0

	// DirectionTX is host to instrument.
	DirectionTX Direction = 1

	// DirectionRX is instrument to host.
	DirectionRX Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionTX:
		return "TX"
	case DirectionRX:
		return "RX"
	default:
		return "-"
	}
}

// Category classifies an event.
type Category uint8

const (
	// CategoryCommand is a command written to the instrument.
	CategoryCommand Category = 1

	// CategoryResponse is a response read from the instrument.
	CategoryResponse Category = 2

	// CategoryIdentify is an identification handshake.
	CategoryIdentify Category = 3

	// CategoryPoll is a trigger-status poll.
	CategoryPoll Category = 4

	// CategoryStateChange is an acquisition state transition.
	CategoryStateChange Category = 5

	// CategoryResolution is a driver resolution outcome.
	CategoryResolution Category = 6

	// CategoryError is a failure at any layer.
	CategoryError Category = 7
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "command"
	case CategoryResponse:
		return "response"
	case CategoryIdentify:
		return "identify"
	case CategoryPoll:
		return "poll"
	case CategoryStateChange:
		return "state_change"
	case CategoryResolution:
		return "resolution"
	case CategoryError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one instrument-interaction record. CBOR encoding uses integer
// keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TraceID ties a command to its response (UUID, one per round trip).
	TraceID string `cbor:"2,keyasint,omitempty"`

	// Address is the bus address of the instrument involved.
	Address string `cbor:"3,keyasint,omitempty"`

	// Direction of the payload, if any.
	Direction Direction `cbor:"4,keyasint,omitempty"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// Payload is the command or response text.
	Payload string `cbor:"6,keyasint,omitempty"`

	// Type-specific detail (at most one is set).
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	Resolution  *ResolutionEvent  `cbor:"8,keyasint,omitempty"`
	Error       *ErrorEvent       `cbor:"9,keyasint,omitempty"`
}

// StateChangeEvent records an acquisition state transition.
type StateChangeEvent struct {
	// OldState and NewState are state names.
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason describes what drove the transition ("arm_single",
	// "trigger_fired", "disarm").
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ResolutionEvent records the outcome of driver resolution for an address.
type ResolutionEvent struct {
	// Kind is the requested instrument family name.
	Kind string `cbor:"1,keyasint"`

	// Identity is the raw identity string from the handshake.
	Identity string `cbor:"2,keyasint"`

	// Driver is the selected descriptor name, empty on failure.
	Driver string `cbor:"3,keyasint,omitempty"`

	// Candidates is how many descriptors matched the identity.
	Candidates int `cbor:"4,keyasint"`
}

// ErrorEvent records a failure.
type ErrorEvent struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Context describes the operation that failed.
	Context string `cbor:"2,keyasint,omitempty"`
}

// CommandEvent builds a TX command event.
func CommandEvent(address, traceID, command string) Event {
	return Event{
		Timestamp: time.Now(),
		TraceID:   traceID,
		Address:   address,
		Direction: DirectionTX,
		Category:  CategoryCommand,
		Payload:   command,
	}
}

// ResponseEvent builds an RX response event.
func ResponseEvent(address, traceID, response string) Event {
	return Event{
		Timestamp: time.Now(),
		TraceID:   traceID,
		Address:   address,
		Direction: DirectionRX,
		Category:  CategoryResponse,
		Payload:   response,
	}
}

// StateChange builds an acquisition state-change event.
func StateChange(address, oldState, newState, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		Address:   address,
		Category:  CategoryStateChange,
		StateChange: &StateChangeEvent{
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}

// ErrorAt builds an error event.
func ErrorAt(address, context string, err error) Event {
	return Event{
		Timestamp: time.Now(),
		Address:   address,
		Category:  CategoryError,
		Error: &ErrorEvent{
			Message: err.Error(),
			Context: context,
		},
	}
}
