// Package scpi holds parsing and formatting helpers shared by the
// vendor driver implementations.
package scpi

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloat parses a numeric SCPI response, tolerating surrounding
// whitespace and unit suffixes some firmwares append ("2.00E-03s").
func ParseFloat(resp string) (float64, error) {
	s := strings.TrimSpace(resp)
	s = strings.TrimRight(s, "sSvVaA")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed numeric response %q: %w", resp, err)
	}
	return v, nil
}

// ParseBlock parses an ASCII sample block: comma-separated floats,
// optionally preceded by an IEEE 488.2 definite-length header
// ("#9000001234...") which some firmwares emit even in ASCII mode.
func ParseBlock(resp string) ([]float64, error) {
	s := strings.TrimSpace(resp)
	if strings.HasPrefix(s, "#") {
		if len(s) < 2 {
			return nil, fmt.Errorf("truncated block header %q", resp)
		}
		digits := int(s[1] - '0')
		if digits < 0 || digits > 9 || len(s) < 2+digits {
			return nil, fmt.Errorf("malformed block header %q", s[:min(len(s), 12)])
		}
		s = s[2+digits:]
	}
	if s == "" {
		return nil, nil
	}

	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed sample %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FormatFloat renders a float the way instruments expect numeric
// parameters, shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'G', -1, 64)
}

// OnOff renders a boolean parameter.
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// ParseOnOff parses an ON/OFF or 1/0 response.
func ParseOnOff(resp string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(resp)) {
	case "ON", "1":
		return true, nil
	case "OFF", "0":
		return false, nil
	}
	return false, fmt.Errorf("malformed boolean response %q", resp)
}
