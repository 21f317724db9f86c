// Package token accumulates rendered cell values per event.
package token

import (
	"slices"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// ContentFlag controls how values are accumulated.
type ContentFlag struct {
	// MaxLength truncates each value to at most this many bytes, on a rune
	// boundary. Zero keeps values whole.
	MaxLength int `json:"max_length" yaml:"max_length"`
	// Unique drops a value already recorded for the same event.
	Unique bool `json:"unique" yaml:"unique"`
}

// ColumnMessages is an append-only map from event id to the values recorded
// for it. The zero value is ready to use.
type ColumnMessages struct {
	events map[uint64][]string
	order  []uint64
}

// NewColumnMessages returns an empty accumulator.
func NewColumnMessages() *ColumnMessages {
	return &ColumnMessages{}
}

// Add records value for eventID.
func (m *ColumnMessages) Add(eventID uint64, value string, flag ContentFlag) {
	if flag.MaxLength > 0 {
		value = truncate(value, flag.MaxLength)
	}
	if m.events == nil {
		m.events = make(map[uint64][]string)
	}
	prev, seen := m.events[eventID]
	if !seen {
		m.order = append(m.order, eventID)
	}
	if flag.Unique && slices.Contains(prev, value) {
		return
	}
	m.events[eventID] = append(prev, value)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Get returns the values recorded for eventID.
func (m *ColumnMessages) Get(eventID uint64) []string {
	return m.events[eventID]
}

// Events returns the event ids in the order they were first added.
func (m *ColumnMessages) Events() []uint64 {
	return slices.Clone(m.order)
}

// Len returns the number of events with at least one value.
func (m *ColumnMessages) Len() int {
	return len(m.order)
}

// MarshalJSON encodes the messages as an object keyed by event id.
func (m *ColumnMessages) MarshalJSON() ([]byte, error) {
	if m.events == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.events)
}

// UnmarshalJSON decodes an object keyed by event id. Event order follows the
// ascending ids.
func (m *ColumnMessages) UnmarshalJSON(b []byte) error {
	var events map[uint64][]string
	if err := json.Unmarshal(b, &events); err != nil {
		return err
	}
	m.events = events
	m.order = m.order[:0]
	for id := range events {
		m.order = append(m.order, id)
	}
	slices.Sort(m.order)
	return nil
}
