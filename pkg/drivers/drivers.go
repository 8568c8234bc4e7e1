// Package drivers assembles the built-in vendor driver registry.
//
// Callers that only use bundled drivers start from DefaultRegistry;
// benches with in-house drivers append their own descriptors to
// Descriptors before building a registry.
package drivers

import (
	"github.com/inctrl-project/inctrl-go/pkg/capability"
	"github.com/inctrl-project/inctrl-go/pkg/drivers/rigol"
	"github.com/inctrl-project/inctrl-go/pkg/drivers/siglent"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
	"github.com/inctrl-project/inctrl-go/pkg/registry"
	"github.com/inctrl-project/inctrl-go/pkg/transport"
)

// Descriptors lists the bundled drivers in resolution precedence order.
func Descriptors() []*registry.Descriptor {
	return []*registry.Descriptor{
		{
			Name:  "siglent-sds800x-hd",
			Kind:  instrument.KindOscilloscope,
			Match: registry.MatchMakeModelPrefix("Siglent Technologies", "SDS8"),
			Capabilities: capability.Map{
				capability.KeyNumChannels:       capability.Set(2, 4),
				capability.KeyImpedanceList:     capability.Set(50, 1e6),
				capability.KeyBandwidthHz:       capability.Set(70e6, 100e6, 200e6),
				capability.KeyMaxSampleRateHz:   capability.Scalar(2e9),
				capability.KeyTimeDivisions:     capability.Scalar(10),
				capability.KeyVerticalDivisions: capability.Scalar(8),
				capability.KeyExternalTrigger:   capability.Bool(true),
			},
			New: func(id instrument.Identity, d *transport.Dispatcher) (any, error) {
				return siglent.NewSDS800XHD(id, d), nil
			},
		},
		{
			Name:  "rigol-ds1000z",
			Kind:  instrument.KindOscilloscope,
			Match: registry.MatchMakeModelPrefix("RIGOL TECHNOLOGIES", "DS1"),
			Capabilities: capability.Map{
				capability.KeyNumChannels:       capability.Scalar(4),
				capability.KeyImpedanceList:     capability.Set(1e6),
				capability.KeyBandwidthHz:       capability.Set(50e6, 70e6, 100e6),
				capability.KeyMaxSampleRateHz:   capability.Scalar(1e9),
				capability.KeyTimeDivisions:     capability.Scalar(12),
				capability.KeyVerticalDivisions: capability.Scalar(8),
				capability.KeyExternalTrigger:   capability.Bool(true),
			},
			New: func(id instrument.Identity, d *transport.Dispatcher) (any, error) {
				return rigol.NewDS1000Z(id, d), nil
			},
		},
		{
			Name:  "rigol-dp800",
			Kind:  instrument.KindPowerSupply,
			Match: registry.MatchMakeModelPrefix("RIGOL TECHNOLOGIES", "DP8"),
			Capabilities: capability.Map{
				capability.KeyNumOutputs:  capability.Set(1, 3),
				capability.KeyMaxVoltageV: capability.Set(30, 40),
				capability.KeyMaxCurrentA: capability.Set(3, 10),
			},
			New: func(id instrument.Identity, d *transport.Dispatcher) (any, error) {
				return rigol.NewDP800(id, d), nil
			},
		},
	}
}

// DefaultRegistry builds a registry of all bundled drivers.
func DefaultRegistry() *registry.Registry {
	return registry.MustNew(Descriptors()...)
}
