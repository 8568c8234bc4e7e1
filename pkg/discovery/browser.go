package discovery

import (
	"context"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Browser browses the local network for instruments.
type Browser struct {
	config BrowserConfig

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewBrowser creates a Browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	if len(config.Services) == 0 {
		config.Services = []string{ServiceTypeSCPIRaw, ServiceTypeLXI}
	}
	return &Browser{config: config}
}

// Browse streams instruments as they appear, deduplicated by instance
// name across the configured service types. The channel closes when the
// context is cancelled.
func (b *Browser) Browse(ctx context.Context) (<-chan *Instrument, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	out := make(chan *Instrument)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	opts := b.browserOptions()

	go func() {
		defer close(out)

		seen := make(map[string]struct{})
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				inst := entryToInstrument(entry)
				if inst == nil {
					continue
				}
				if _, dup := seen[inst.InstanceName]; dup {
					continue
				}
				seen[inst.InstanceName] = struct{}{}
				select {
				case out <- inst:
				case <-ctx.Done():
					return
				}

			case <-removed:
				// Instruments get unplugged; a fresh Browse sees the
				// current bench, so removals are not tracked here.

			case <-ctx.Done():
				return
			}
		}
	}()

	for _, service := range b.config.Services {
		go func(service string) {
			_ = zeroconf.Browse(ctx, service, Domain, entries, removed, opts...)
		}(service)
	}

	return out, nil
}

// FindAll browses for the configured timeout and returns everything
// found.
func (b *Browser) FindAll(ctx context.Context) ([]*Instrument, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)
	defer cancel()

	stream, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	var found []*Instrument
	for inst := range stream {
		found = append(found, inst)
	}
	return found, nil
}

// Stop cancels any active browse.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// entryToInstrument converts a zeroconf entry, nil when the entry has
// no usable endpoint.
func entryToInstrument(entry *zeroconf.ServiceEntry) *Instrument {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	manufacturer, model, serial := decodeTXT(entry.Text)
	return &Instrument{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		Service:      entry.Service,
		Manufacturer: manufacturer,
		Model:        model,
		Serial:       serial,
	}
}
