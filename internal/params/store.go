package params

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vk/foamstudy/internal/foamdict"
)

// ErrMalformed reports a parameter that is present in the store but whose
// value text does not parse as a number.
var ErrMalformed = errors.New("parameter value is not numeric")

// ErrNotFound reports a parameter absent from the store.
var ErrNotFound = errors.New("parameter not found")

// Store is the explicit value store for all currently-known parameter
// values. It replaces ad hoc lookups scattered through call sites: every
// component reads and writes parameter values through it, and the final
// state is published per case so reporting can label outputs with the
// values actually written.
type Store struct {
	numbers map[string]float64
	raw     map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		numbers: make(map[string]float64),
		raw:     make(map[string]string),
	}
}

// FromYAMLFile loads base parameter values from a YAML file whose top level
// groups values into named sections. Section names are routing metadata,
// not identity: values are stored under their leaf key, matching the flat
// key space of the solver's own parameters dictionary.
func FromYAMLFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading base parameters: %w", err)
	}

	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing base parameters: %w", err)
	}

	s := NewStore()
	for _, section := range root {
		nested, ok := section.(map[string]any)
		if !ok {
			continue
		}
		for key, val := range nested {
			switch v := val.(type) {
			case int:
				s.SetNumber(key, float64(v))
			case float64:
				s.SetNumber(key, v)
			case string:
				s.SetText(key, v)
			}
		}
	}
	return s, nil
}

// MergeCaseFile reads an OpenFOAM "key value;" dictionary (typically
// system/parameters of a case) into the store. A missing file is an
// expected condition and leaves the store unchanged.
func (s *Store) MergeCaseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading case parameters: %w", err)
	}

	for _, line := range foamdict.Parse(string(data)) {
		if line.IsEntry {
			s.SetText(line.Key, line.Value)
		}
	}
	return nil
}

// Clone returns an independent copy. Each case directory gets its own
// clone so one sweep point's writes never leak into the next.
func (s *Store) Clone() *Store {
	c := NewStore()
	for k, v := range s.numbers {
		c.numbers[k] = v
	}
	for k, v := range s.raw {
		c.raw[k] = v
	}
	return c
}

// SetNumber records a numeric value, displacing any raw text held for key.
func (s *Store) SetNumber(key string, v float64) {
	s.numbers[key] = v
	delete(s.raw, key)
}

// SetText records a value from its text form, parsing it as a number when
// possible and keeping the raw text otherwise.
func (s *Store) SetText(key, text string) {
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		s.SetNumber(key, v)
		return
	}
	s.raw[key] = text
	delete(s.numbers, key)
}

// Number returns the numeric value for key, or fallback when the key is
// absent or its stored value is not numeric.
func (s *Store) Number(key string, fallback float64) float64 {
	if v, ok := s.numbers[key]; ok {
		return v
	}
	return fallback
}

// StrictNumber returns the numeric value for key, distinguishing an absent
// key (ErrNotFound) from one whose value text failed to parse
// (ErrMalformed). Derived-value recomputation uses the distinction: absent
// inputs fall back to defaults, malformed inputs skip the dependent.
func (s *Store) StrictNumber(key string) (float64, error) {
	if v, ok := s.numbers[key]; ok {
		return v, nil
	}
	if text, ok := s.raw[key]; ok {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformed, key, text)
	}
	return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Has reports whether key holds any value, numeric or not.
func (s *Store) Has(key string) bool {
	if _, ok := s.numbers[key]; ok {
		return true
	}
	_, ok := s.raw[key]
	return ok
}

// Snapshot returns a copy of all numeric values currently in the store.
func (s *Store) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(s.numbers))
	for k, v := range s.numbers {
		out[k] = v
	}
	return out
}

// Keys returns all keys with numeric values, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.numbers))
	for k := range s.numbers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
