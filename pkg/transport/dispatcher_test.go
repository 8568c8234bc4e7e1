package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/trace"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
	"github.com/inctrl-project/inctrl-go/pkg/transport/mocks"
)

func TestDispatcherQuery(t *testing.T) {
	tp := mocks.NewTransport(t)
	tp.On("SendCommand", mock.Anything, "addr", ":TIMEBASE:SCALE?").
		Return(" 1.00E-03 \n", nil)

	var rec recordingLogger
	d := transport.NewDispatcher(tp, "addr", &rec)

	got, err := d.Query(context.Background(), ":TIMEBASE:SCALE?")
	require.NoError(t, err)
	require.Equal(t, "1.00E-03", got)

	// One TX and one RX event under the same trace ID.
	require.Len(t, rec.events, 2)
	require.Equal(t, trace.CategoryCommand, rec.events[0].Category)
	require.Equal(t, trace.CategoryResponse, rec.events[1].Category)
	require.Equal(t, rec.events[0].TraceID, rec.events[1].TraceID)
	require.NotEmpty(t, rec.events[0].TraceID)
}

func TestDispatcherWrapsTransportErrors(t *testing.T) {
	tp := mocks.NewTransport(t)
	tp.On("SendCommand", mock.Anything, "addr", "*RST").
		Return("", errors.New("connection reset"))

	d := transport.NewDispatcher(tp, "addr", nil)

	err := d.Write(context.Background(), "*RST")
	var commErr *instrument.CommunicationError
	require.ErrorAs(t, err, &commErr)
	require.Equal(t, "addr", commErr.Address)
	require.Equal(t, "command", commErr.Op)
}

func TestDispatcherIdentify(t *testing.T) {
	tp := mocks.NewTransport(t)
	tp.On("Identify", mock.Anything, "addr").
		Return("Siglent Technologies,SDS824X HD,SN1,1.0\n", nil)

	d := transport.NewDispatcher(tp, "addr", nil)
	idn, err := d.Identify(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Siglent Technologies,SDS824X HD,SN1,1.0", idn)
}

func TestDispatcherPoll(t *testing.T) {
	tp := mocks.NewTransport(t)
	tp.On("PollTriggerStatus", mock.Anything, "addr").
		Return(transport.TriggerStatus{Armed: true}, nil).Once()
	tp.On("PollTriggerStatus", mock.Anything, "addr").
		Return(transport.TriggerStatus{}, errors.New("gone")).Once()

	var rec recordingLogger
	d := transport.NewDispatcher(tp, "addr", &rec)

	status, err := d.PollTriggerStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.Armed)
	require.Len(t, rec.events, 1)
	require.Equal(t, trace.CategoryPoll, rec.events[0].Category)
	require.Equal(t, "armed=true ready=false", rec.events[0].Payload)

	_, err = d.PollTriggerStatus(context.Background())
	var commErr *instrument.CommunicationError
	require.ErrorAs(t, err, &commErr)
	require.Equal(t, "poll", commErr.Op)
}

func TestParseTriggerStatus(t *testing.T) {
	cases := map[string]transport.TriggerStatus{
		"Arm":    {Armed: true},
		"Ready":  {Armed: true},
		"Auto":   {Armed: true},
		"Trig'd": {DataReady: true},
		"Stop":   {DataReady: true},
		"":       {},
	}
	for in, want := range cases {
		if got := transport.ParseTriggerStatus(in); got != want {
			t.Errorf("ParseTriggerStatus(%q) = %+v, want %+v", in, got, want)
		}
	}
}

type recordingLogger struct {
	events []trace.Event
}

func (r *recordingLogger) Log(event trace.Event) {
	r.events = append(r.events, event)
}
