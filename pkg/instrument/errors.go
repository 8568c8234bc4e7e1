package instrument

import (
	"fmt"
	"strings"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/capability"
)

// CommunicationError is a transport failure. It is fatal to the current
// operation and never retried inside the library.
type CommunicationError struct {
	// Address is the bus address of the failing instrument.
	Address string

	// Op names the failing operation ("identify", "command", "poll").
	Op string

	// Err is the underlying transport error.
	Err error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("communication failure: %s %s: %v", e.Op, e.Address, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// NoMatchingDriverError reports that identification succeeded but no
// registered descriptor of the requested family accepts the identity.
type NoMatchingDriverError struct {
	// Identity is the identity obtained from the handshake.
	Identity Identity

	// Kind is the requested instrument family.
	Kind Kind

	// Registered is how many descriptors of that family were consulted.
	Registered int
}

func (e *NoMatchingDriverError) Error() string {
	return fmt.Sprintf("no matching driver: %s is not a known %s (%d %s drivers registered)",
		e.Identity, e.Kind, e.Registered, e.Kind)
}

// Rejection records why one candidate descriptor was rejected during
// capability matching.
type Rejection struct {
	// Driver is the candidate descriptor's name.
	Driver string

	// Constraint is the first constraint the candidate failed.
	Constraint capability.Constraint

	// Advertised is the candidate's value for the constrained key.
	Advertised capability.Value

	// Missing is true when the candidate does not advertise the key at all.
	Missing bool
}

func (r Rejection) String() string {
	if r.Missing {
		return fmt.Sprintf("%s: does not advertise %s", r.Driver, r.Constraint.Key())
	}
	return fmt.Sprintf("%s: %s not satisfied (advertised %s)", r.Driver, r.Constraint, r.Advertised)
}

// CapabilityUnsatisfiedError reports that every identification candidate
// was rejected by the caller's constraints, with the reason per candidate.
type CapabilityUnsatisfiedError struct {
	// Identity is the resolved instrument identity.
	Identity Identity

	// Rejections holds one entry per rejected candidate, in registration
	// order.
	Rejections []Rejection
}

func (e *CapabilityUnsatisfiedError) Error() string {
	reasons := make([]string, len(e.Rejections))
	for i, r := range e.Rejections {
		reasons[i] = r.String()
	}
	return fmt.Sprintf("capabilities unsatisfied for %s: %s",
		e.Identity, strings.Join(reasons, "; "))
}

// DriverTypeMismatchError reports a failed checked downcast to a concrete
// driver type.
type DriverTypeMismatchError struct {
	// Want is the requested concrete driver type.
	Want string

	// Have is the driver type actually bound to the handle.
	Have string
}

func (e *DriverTypeMismatchError) Error() string {
	return fmt.Sprintf("driver type mismatch: handle is bound to %s, not %s", e.Have, e.Want)
}

// SetValueRejectedError reports a strict-mode configuration set whose
// actually-applied value differs from the request.
type SetValueRejectedError struct {
	// Property names the configured property ("impedance", "time_scale", ...).
	Property string

	// Requested is the value the caller asked for.
	Requested any

	// Actual is the value the instrument actually applied.
	Actual any
}

func (e *SetValueRejectedError) Error() string {
	return fmt.Sprintf("set %s rejected: requested %v, instrument applied %v",
		e.Property, e.Requested, e.Actual)
}

// AcquisitionTimeoutError reports a strict-mode waveform wait that timed out
// before the trigger fired.
type AcquisitionTimeoutError struct {
	// Timeout is the wait duration that elapsed.
	Timeout time.Duration
}

func (e *AcquisitionTimeoutError) Error() string {
	return fmt.Sprintf("acquisition timed out after %v", e.Timeout)
}
