// Package discovery finds bench instruments on the local network via
// mDNS. LXI-class instruments advertise "_lxi._tcp" and raw-socket SCPI
// endpoints advertise "_scpi-raw._tcp"; both carry manufacturer, model
// and serial in their TXT records.
package discovery

import (
	"fmt"
	"strings"
	"time"
)

// mDNS service types instruments advertise.
const (
	ServiceTypeSCPIRaw = "_scpi-raw._tcp"
	ServiceTypeLXI     = "_lxi._tcp"

	// Domain for service browsing.
	Domain = "local."

	// BrowseTimeout is the default timeout for one-shot searches.
	BrowseTimeout = 10 * time.Second
)

// Instrument is one discovered bench instrument.
type Instrument struct {
	// InstanceName is the advertised mDNS instance name.
	InstanceName string

	// Host and Port locate the SCPI endpoint.
	Host string
	Port uint16

	// Addresses are the resolved IP addresses, IPv4 first.
	Addresses []string

	// Service is the mDNS service type the instrument advertised.
	Service string

	// Manufacturer, Model and Serial come from the TXT records; any of
	// them may be empty when the instrument does not advertise them.
	Manufacturer string
	Model        string
	Serial       string
}

// Address returns the bus address string for connecting, preferring a
// resolved IP over the advertised hostname.
func (i *Instrument) Address() string {
	host := i.Host
	if len(i.Addresses) > 0 {
		host = i.Addresses[0]
	}
	return fmt.Sprintf("tcp://%s:%d", strings.TrimSuffix(host, "."), i.Port)
}

func (i *Instrument) String() string {
	return fmt.Sprintf("%s (%s %s, serial %s) at %s",
		i.InstanceName, i.Manufacturer, i.Model, i.Serial, i.Address())
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the timeout for one-shot searches.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Services lists the service types to browse. Default: SCPI raw
	// sockets and LXI.
	Services []string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Services:      []string{ServiceTypeSCPIRaw, ServiceTypeLXI},
	}
}

// decodeTXT extracts instrument metadata from mDNS TXT records. LXI
// names the keys "Manufacturer", "Model" and "SerialNumber"; raw-socket
// advertisements in the field use assorted casings of the same idea.
func decodeTXT(txt []string) (manufacturer, model, serial string) {
	for _, record := range txt {
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "manufacturer", "maker", "vendor":
			manufacturer = value
		case "model", "product":
			model = value
		case "serialnumber", "serial", "sn":
			serial = value
		}
	}
	return manufacturer, model, serial
}
