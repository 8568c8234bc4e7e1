package instrument

import (
	"fmt"
	"strings"
)

// Kind is an instrument family.
type Kind uint8

const (
	// KindUnknown is an unrecognized instrument family.
	KindUnknown Kind = iota

	// KindOscilloscope is the oscilloscope family.
	KindOscilloscope

	// KindPowerSupply is the programmable power-supply family.
	KindPowerSupply

	// KindElectronicLoad is the electronic-load family.
	KindElectronicLoad
)

// String returns the family name.
func (k Kind) String() string {
	switch k {
	case KindOscilloscope:
		return "Oscilloscope"
	case KindPowerSupply:
		return "Power Supply"
	case KindElectronicLoad:
		return "Electronic Load"
	default:
		return "Unknown"
	}
}

// ParseKind parses a family name as used in alias files. Recognized
// spellings are case-insensitive, with hyphen and underscore
// interchangeable: "oscilloscope", "power-supply", "power_supply",
// "electronic-load".
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "_", "-")
	switch name {
	case "oscilloscope", "scope":
		return KindOscilloscope, nil
	case "power-supply", "psu":
		return KindPowerSupply, nil
	case "electronic-load", "load":
		return KindElectronicLoad, nil
	default:
		return KindUnknown, fmt.Errorf("unknown instrument kind %q", s)
	}
}

// Identity is the parsed result of an identification handshake with one
// bus address.
type Identity struct {
	// Address is the bus address the identity was obtained from.
	Address string

	// Raw is the unparsed identity string as returned by the instrument.
	Raw string

	// Make, Model, SerialNumber and FirmwareVersion are the four
	// comma-separated *IDN? fields. Empty when the identity string does
	// not follow the four-field convention.
	Make            string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

// ParseIdentity parses an identity string of the conventional form
// "make,model,serial,firmware". Strings that do not split into exactly four
// fields yield an Identity carrying only Address and Raw.
func ParseIdentity(address, raw string) Identity {
	id := Identity{Address: address, Raw: strings.TrimSpace(raw)}
	fields := strings.Split(id.Raw, ",")
	if len(fields) != 4 {
		return id
	}
	id.Make = strings.TrimSpace(fields[0])
	id.Model = strings.TrimSpace(fields[1])
	id.SerialNumber = strings.TrimSpace(fields[2])
	id.FirmwareVersion = strings.TrimSpace(fields[3])
	return id
}

// String renders the identity for logs and errors.
func (id Identity) String() string {
	if id.Make == "" && id.Model == "" {
		return fmt.Sprintf("%s (%q)", id.Address, id.Raw)
	}
	return fmt.Sprintf("%s (%s %s)", id.Address, id.Make, id.Model)
}
