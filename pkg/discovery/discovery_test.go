package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/require"
)

func TestDecodeTXT(t *testing.T) {
	tests := []struct {
		name                string
		txt                 []string
		maker, model, serial string
	}{
		{
			name:   "lxi keys",
			txt:    []string{"Manufacturer=Siglent", "Model=SDS824X HD", "SerialNumber=SDS08A0X1R0123"},
			maker:  "Siglent",
			model:  "SDS824X HD",
			serial: "SDS08A0X1R0123",
		},
		{
			name:   "lowercase variants",
			txt:    []string{"vendor=Rigol", "product=DS1054Z", "sn=DS1ZA999"},
			maker:  "Rigol",
			model:  "DS1054Z",
			serial: "DS1ZA999",
		},
		{
			name: "junk ignored",
			txt:  []string{"txtvers=1", "noequals", "path=/"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker, model, serial := decodeTXT(tt.txt)
			require.Equal(t, tt.maker, maker)
			require.Equal(t, tt.model, model)
			require.Equal(t, tt.serial, serial)
		})
	}
}

func TestEntryToInstrument(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "sds824.local.",
		Port:     5025,
		AddrIPv4: []net.IP{net.IPv4(10, 0, 0, 17)},
		Text:     []string{"Manufacturer=Siglent", "Model=SDS824X HD"},
	}
	entry.Instance = "SDS824X"
	entry.Service = ServiceTypeSCPIRaw

	inst := entryToInstrument(entry)
	require.NotNil(t, inst)
	require.Equal(t, "SDS824X", inst.InstanceName)
	require.Equal(t, "Siglent", inst.Manufacturer)
	require.Equal(t, "tcp://10.0.0.17:5025", inst.Address())
}

func TestEntryToInstrumentRejectsUnusable(t *testing.T) {
	require.Nil(t, entryToInstrument(nil))
	require.Nil(t, entryToInstrument(&zeroconf.ServiceEntry{}))
}

func TestAddressFallsBackToHostname(t *testing.T) {
	inst := &Instrument{Host: "dp832.local.", Port: 5555}
	require.Equal(t, "tcp://dp832.local:5555", inst.Address())
}

func TestDefaultBrowserConfig(t *testing.T) {
	cfg := DefaultBrowserConfig()
	require.Equal(t, BrowseTimeout, cfg.BrowseTimeout)
	require.Contains(t, cfg.Services, ServiceTypeSCPIRaw)
	require.Contains(t, cfg.Services, ServiceTypeLXI)
}
