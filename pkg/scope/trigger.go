package scope

import (
	"context"
	"fmt"
	"time"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
)

// State is the acquisition state a Scope handle tracks for its
// instrument. Arming moves out of StateDisarmed; a hardware poll that
// reports captured data moves an armed state to StateDataReady.
type State uint8

const (
	// StateDisarmed means no acquisition is running.
	StateDisarmed State = iota

	// StateArmedSingle waits for one trigger, then stops.
	StateArmedSingle

	// StateArmedAuto free-runs, triggering on timeout.
	StateArmedAuto

	// StateArmedNormal re-arms after every trigger.
	StateArmedNormal

	// StateDataReady means a capture completed and can be downloaded.
	StateDataReady
)

// String returns the state name as used in trace events.
func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "disarmed"
	case StateArmedSingle:
		return "armed_single"
	case StateArmedAuto:
		return "armed_auto"
	case StateArmedNormal:
		return "armed_normal"
	case StateDataReady:
		return "data_ready"
	default:
		return "unknown"
	}
}

// armed reports whether the state is one of the armed modes.
func (s State) armed() bool {
	switch s {
	case StateArmedSingle, StateArmedAuto, StateArmedNormal:
		return true
	}
	return false
}

// DefaultPollInterval is the pause between hardware status polls while
// waiting for a waveform.
const DefaultPollInterval = 20 * time.Millisecond

// Trigger is the acquisition control surface of a Scope. It is a view
// on the parent handle and carries no state of its own.
type Trigger struct {
	scope *Scope
}

// Configure programs an edge trigger condition. The acquisition state is
// unaffected.
func (t *Trigger) Configure(ctx context.Context, cond EdgeTrigger) error {
	if !cond.Source.External {
		if _, err := t.scope.Channel(cond.Source.Channel); err != nil {
			return fmt.Errorf("trigger source: %w", err)
		}
	}
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	return t.scope.drv.ConfigureTrigger(ctx, cond)
}

// ArmSingle arms a one-shot acquisition.
func (t *Trigger) ArmSingle(ctx context.Context) error {
	return t.arm(ctx, ArmSingle, StateArmedSingle)
}

// ArmAuto arms a free-running acquisition.
func (t *Trigger) ArmAuto(ctx context.Context) error {
	return t.arm(ctx, ArmAuto, StateArmedAuto)
}

// ArmNormal arms a re-triggering acquisition.
func (t *Trigger) ArmNormal(ctx context.Context) error {
	return t.arm(ctx, ArmNormal, StateArmedNormal)
}

// arm sends the hardware arm command, then transitions the tracked
// state. A failed command leaves the state unchanged.
func (t *Trigger) arm(ctx context.Context, mode ArmMode, next State) error {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	if err := t.scope.drv.Arm(ctx, mode); err != nil {
		return err
	}
	t.scope.setStateLocked(next, "arm_"+mode.String())
	return nil
}

// Disarm stops any running acquisition and returns the handle to
// StateDisarmed. Disarming an already disarmed handle is a no-op on the
// tracked state but still reaches the hardware.
func (t *Trigger) Disarm(ctx context.Context) error {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	if err := t.scope.drv.Disarm(ctx); err != nil {
		return err
	}
	t.scope.setStateLocked(StateDisarmed, "disarm")
	return nil
}

// State returns the tracked acquisition state without touching hardware.
func (t *Trigger) State() State {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	return t.scope.state
}

// IsArmed polls the hardware and reports whether the acquisition is
// still armed. A poll showing captured data moves an armed handle to
// StateDataReady.
func (t *Trigger) IsArmed(ctx context.Context) (bool, error) {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	status, err := t.scope.drv.TriggerStatus(ctx)
	if err != nil {
		return false, err
	}
	if status.DataReady && t.scope.state.armed() {
		t.scope.setStateLocked(StateDataReady, "trigger_fired")
	}
	return status.Armed, nil
}

// WaitForWaveform polls until a capture completes or timeout elapses.
// A timeout of zero or less means no deadline: the wait polls until
// data is ready or the context is cancelled. It returns true when data
// is ready. On timeout it returns false, or an AcquisitionTimeoutError
// when errorOnTimeout is set. The handle lock is released between
// polls, so other goroutines can interleave operations on the same
// instrument; context cancellation counts as a timeout. Communication
// failures abort the wait immediately.
func (t *Trigger) WaitForWaveform(ctx context.Context, timeout time.Duration, errorOnTimeout bool) (bool, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ready, err := t.pollOnce(ctx)
		if err != nil {
			return false, err
		}
		if ready {
			return true, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			// Cancellation ends the wait like a timeout; the instrument
			// stays armed.
			if errorOnTimeout {
				return false, &instrument.AcquisitionTimeoutError{Timeout: timeout}
			}
			return false, nil
		case <-time.After(DefaultPollInterval):
		}
	}
	if errorOnTimeout {
		return false, &instrument.AcquisitionTimeoutError{Timeout: timeout}
	}
	return false, nil
}

// pollOnce takes the lock for one status poll.
func (t *Trigger) pollOnce(ctx context.Context) (bool, error) {
	t.scope.mu.Lock()
	defer t.scope.mu.Unlock()
	if t.scope.state == StateDataReady {
		return true, nil
	}
	status, err := t.scope.drv.TriggerStatus(ctx)
	if err != nil {
		return false, err
	}
	if status.DataReady {
		t.scope.setStateLocked(StateDataReady, "trigger_fired")
		return true, nil
	}
	return false, nil
}
