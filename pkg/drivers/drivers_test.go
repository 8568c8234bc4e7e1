package drivers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inctrl-project/inctrl-go/pkg/capability"
	"github.com/inctrl-project/inctrl-go/pkg/instrument"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	require.Equal(t, 3, reg.Len())

	scopes := reg.ForKind(instrument.KindOscilloscope)
	require.Len(t, scopes, 2)
	require.Equal(t, "siglent-sds800x-hd", scopes[0].Name)
	require.Equal(t, "rigol-ds1000z", scopes[1].Name)

	supplies := reg.ForKind(instrument.KindPowerSupply)
	require.Len(t, supplies, 1)
	require.Equal(t, "rigol-dp800", supplies[0].Name)
}

func TestDescriptorsMatchTheirInstruments(t *testing.T) {
	tests := []struct {
		descriptor string
		idn        string
	}{
		{"siglent-sds800x-hd", "Siglent Technologies,SDS824X HD,SDS08A0X1R0123,3.8.12"},
		{"rigol-ds1000z", "RIGOL TECHNOLOGIES,DS1054Z,DS1ZA999,00.04.04"},
		{"rigol-dp800", "RIGOL TECHNOLOGIES,DP832,DP8C123,00.01.16"},
	}
	byName := make(map[string]int)
	descs := Descriptors()
	for i, d := range descs {
		byName[d.Name] = i
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			i, ok := byName[tt.descriptor]
			require.True(t, ok)
			id := instrument.ParseIdentity("addr", tt.idn)
			require.True(t, descs[i].Match(id))

			// No other descriptor claims the same instrument.
			for j, other := range descs {
				if j != i {
					require.False(t, other.Match(id), other.Name)
				}
			}
		})
	}
}

func TestAdvertisedImpedances(t *testing.T) {
	for _, d := range Descriptors() {
		if d.Kind != instrument.KindOscilloscope {
			continue
		}
		v, ok := d.Capabilities[capability.KeyImpedanceList]
		require.True(t, ok, d.Name)
		require.NotEmpty(t, v.Members(), d.Name)
	}
}
