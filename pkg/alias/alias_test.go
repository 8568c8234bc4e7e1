package alias

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const benchYAML = `
main_scope:
  address: "tcp://10.0.0.17:5025"
  kind: oscilloscope
  channels:
    gate: 1
    shunt: 2
bench_psu:
  address: "tcp://10.0.0.18:5555"
  kind: power_supply
  parameters:
    max_volts: "24"
`

func TestParse(t *testing.T) {
	store, err := Parse([]byte(benchYAML))
	require.NoError(t, err)

	e, err := store.ResolveAlias("main_scope")
	require.NoError(t, err)
	require.Equal(t, "tcp://10.0.0.17:5025", e.Address)
	require.Equal(t, "oscilloscope", e.Kind)
	require.Equal(t, map[string]int{"gate": 1, "shunt": 2}, e.Channels)

	e, err = store.ResolveAlias("bench_psu")
	require.NoError(t, err)
	require.Equal(t, "24", e.Parameters["max_volts"])

	_, err = store.ResolveAlias("spectrum")
	require.ErrorIs(t, err, ErrUnknownAlias)
}

func TestParseRejectsMissingAddress(t *testing.T) {
	_, err := Parse([]byte("broken:\n  kind: oscilloscope\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(map[string]Entry{
		"dut_supply": {
			Address:  "tcp://192.168.1.40:5025",
			Kind:     "power_supply",
			Channels: map[string]int{"vcc": 1},
		},
	})

	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, store.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	e, err := loaded.ResolveAlias("dut_supply")
	require.NoError(t, err)
	require.Equal(t, "tcp://192.168.1.40:5025", e.Address)
	require.Equal(t, map[string]int{"vcc": 1}, e.Channels)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSetAndNames(t *testing.T) {
	store := NewStore(nil)
	store.Set("gen", Entry{Address: "tcp://1.2.3.4:9"})

	require.ElementsMatch(t, []string{"gen"}, store.Names())
	e, err := store.ResolveAlias("gen")
	require.NoError(t, err)
	require.Equal(t, "tcp://1.2.3.4:9", e.Address)
}
