// Package alias maps human-readable bench names to instrument
// addresses.
//
// A bench file is a YAML document naming each instrument once, so test
// scripts can say "main_scope" instead of a VISA resource string. An
// entry can also name channels, which handles pick up after connect.
package alias

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAlias is returned when an alias is not present in the store.
var ErrUnknownAlias = errors.New("unknown alias")

// Entry describes one bench instrument.
type Entry struct {
	// Address is the bus address the alias stands for.
	Address string `yaml:"address"`

	// Kind optionally names the instrument family, for validation at
	// connect time ("oscilloscope", "power_supply").
	Kind string `yaml:"kind,omitempty"`

	// Channels optionally names input channels by number.
	Channels map[string]int `yaml:"channels,omitempty"`

	// Parameters carries free-form per-instrument settings.
	Parameters map[string]string `yaml:"parameters,omitempty"`
}

// Resolver resolves aliases to bench entries. The zero lookup failure
// is ErrUnknownAlias so callers can fall through to raw addresses.
type Resolver interface {
	ResolveAlias(alias string) (Entry, error)
}

// Store is an in-memory alias table, usually loaded from a bench file.
type Store struct {
	entries map[string]Entry
}

// NewStore creates a Store from a literal table.
func NewStore(entries map[string]Entry) *Store {
	m := make(map[string]Entry, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &Store{entries: m}
}

// Load reads a bench file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bench file: %w", err)
	}
	return Parse(data)
}

// Parse decodes bench file contents.
func Parse(data []byte) (*Store, error) {
	var entries map[string]Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing bench file: %w", err)
	}
	for name, e := range entries {
		if e.Address == "" {
			return nil, fmt.Errorf("bench entry %q has no address", name)
		}
	}
	return NewStore(entries), nil
}

// Save writes the store as a bench file.
func (s *Store) Save(path string) error {
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encoding bench file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bench file: %w", err)
	}
	return nil
}

// ResolveAlias returns the entry for alias.
func (s *Store) ResolveAlias(alias string) (Entry, error) {
	e, ok := s.entries[alias]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownAlias, alias)
	}
	return e, nil
}

// Names returns all alias names, unordered.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Set adds or replaces an entry.
func (s *Store) Set(name string, e Entry) {
	s.entries[name] = e
}

// Compile-time interface satisfaction check.
var _ Resolver = (*Store)(nil)
