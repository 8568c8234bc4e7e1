// Package sim provides a simulated instrument bench for tests and the
// example binaries. A Bench implements transport.Transport and routes
// commands to in-memory devices that speak enough SCPI to drive the
// bundled drivers end to end, without hardware on the network.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// Device is one simulated instrument on a Bench.
type Device interface {
	// Identify returns the identification string.
	Identify() string

	// Handle processes one command; queries return a non-empty response.
	Handle(cmd string) (string, error)

	// TriggerStatus reports the acquisition status. Devices without an
	// acquisition engine return the zero status.
	TriggerStatus() transport.TriggerStatus
}

// Bench is a simulated network of instruments, keyed by address.
type Bench struct {
	mu      sync.Mutex
	devices map[string]Device
}

// NewBench creates an empty bench.
func NewBench() *Bench {
	return &Bench{devices: make(map[string]Device)}
}

// Add connects a device at the given address, replacing any existing
// one.
func (b *Bench) Add(address string, d Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[address] = d
}

func (b *Bench) device(address string) (Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[address]
	if !ok {
		return nil, fmt.Errorf("no instrument at %s", address)
	}
	return d, nil
}

// Identify implements transport.Transport.
func (b *Bench) Identify(ctx context.Context, address string) (string, error) {
	d, err := b.device(address)
	if err != nil {
		return "", err
	}
	return d.Identify(), nil
}

// SendCommand implements transport.Transport.
func (b *Bench) SendCommand(ctx context.Context, address, command string) (string, error) {
	d, err := b.device(address)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return d.Handle(command)
}

// PollTriggerStatus implements transport.Transport.
func (b *Bench) PollTriggerStatus(ctx context.Context, address string) (transport.TriggerStatus, error) {
	d, err := b.device(address)
	if err != nil {
		return transport.TriggerStatus{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return d.TriggerStatus(), nil
}

// Compile-time interface satisfaction check.
var _ transport.Transport = (*Bench)(nil)
