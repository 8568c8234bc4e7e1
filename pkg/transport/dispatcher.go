package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
)

// Dispatcher binds a Transport to one bus address and provides the
// write/query surface drivers are built on. Every round trip is traced
// under a fresh trace ID and transport failures are wrapped into
// CommunicationError.
//
// A Dispatcher performs no locking of its own; handles serialize access to
// their dispatcher.
type Dispatcher struct {
	tp      Transport
	address string
	logger  trace.Logger
}

// NewDispatcher creates a Dispatcher for the instrument at address.
// A nil logger disables tracing.
func NewDispatcher(tp Transport, address string, logger trace.Logger) *Dispatcher {
	if logger == nil {
		logger = trace.NoopLogger{}
	}
	return &Dispatcher{tp: tp, address: address, logger: logger}
}

// Address returns the bus address this dispatcher is bound to.
func (d *Dispatcher) Address() string {
	return d.address
}

// Query sends a command and returns the whitespace-trimmed response.
func (d *Dispatcher) Query(ctx context.Context, command string) (string, error) {
	traceID := uuid.NewString()
	d.logger.Log(trace.CommandEvent(d.address, traceID, command))

	response, err := d.tp.SendCommand(ctx, d.address, command)
	if err != nil {
		commErr := &instrument.CommunicationError{Address: d.address, Op: "command", Err: err}
		d.logger.Log(trace.ErrorAt(d.address, command, commErr))
		return "", commErr
	}

	response = strings.TrimSpace(response)
	d.logger.Log(trace.ResponseEvent(d.address, traceID, response))
	return response, nil
}

// Write sends a command that elicits no response.
func (d *Dispatcher) Write(ctx context.Context, command string) error {
	_, err := d.Query(ctx, command)
	return err
}

// Identify performs the identification handshake.
func (d *Dispatcher) Identify(ctx context.Context) (string, error) {
	traceID := uuid.NewString()
	d.logger.Log(trace.Event{
		Timestamp: time.Now(),
		TraceID:   traceID,
		Address:   d.address,
		Direction: trace.DirectionTX,
		Category:  trace.CategoryIdentify,
	})

	idn, err := d.tp.Identify(ctx, d.address)
	if err != nil {
		commErr := &instrument.CommunicationError{Address: d.address, Op: "identify", Err: err}
		d.logger.Log(trace.ErrorAt(d.address, "identify", commErr))
		return "", commErr
	}

	idn = strings.TrimSpace(idn)
	d.logger.Log(trace.Event{
		Timestamp: time.Now(),
		TraceID:   traceID,
		Address:   d.address,
		Direction: trace.DirectionRX,
		Category:  trace.CategoryIdentify,
		Payload:   idn,
	})
	return idn, nil
}

// PollTriggerStatus polls the trigger arm/data-ready status.
func (d *Dispatcher) PollTriggerStatus(ctx context.Context) (TriggerStatus, error) {
	status, err := d.tp.PollTriggerStatus(ctx, d.address)
	if err != nil {
		commErr := &instrument.CommunicationError{Address: d.address, Op: "poll", Err: err}
		d.logger.Log(trace.ErrorAt(d.address, "poll", commErr))
		return TriggerStatus{}, commErr
	}

	d.logger.Log(trace.Event{
		Timestamp: time.Now(),
		Address:   d.address,
		Direction: trace.DirectionRX,
		Category:  trace.CategoryPoll,
		Payload:   fmt.Sprintf("armed=%t ready=%t", status.Armed, status.DataReady),
	})
	return status, nil
}

// Logger returns the trace logger, for handles that emit their own events.
func (d *Dispatcher) Logger() trace.Logger {
	return d.logger
}
