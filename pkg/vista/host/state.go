// Package host describes the environment vista runs in: its linear navigation
// history, its visible address and the notifications it sends when the user
// moves through history.
package host

import (
	"maps"
	"time"

	"go.uber.org/atomic"

	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Serial orders history entries. Serials are built from wall-clock
// microseconds and bumped past the previous value on collision, so they are
// strictly increasing within a process even for entries created in the same
// clock tick.
type Serial int64

// SerialGenerator hands out strictly increasing serials.
// Safe for concurrent use.
type SerialGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewSerialGenerator creates a generator backed by the wall clock.
func NewSerialGenerator() *SerialGenerator {
	return NewSerialGeneratorWithClock(time.Now)
}

// NewSerialGeneratorWithClock creates a generator reading time from now.
// Used by tests to freeze the clock.
func NewSerialGeneratorWithClock(now func() time.Time) *SerialGenerator {
	return &SerialGenerator{now: now}
}

// Next returns a serial greater than every serial returned before.
func (g *SerialGenerator) Next() Serial {
	for {
		last := g.last.Load()
		next := g.now().UnixMicro()
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return Serial(next)
		}
	}
}

// Observe makes sure future serials sort after s. Used when entries created
// by an earlier session are restored.
func (g *SerialGenerator) Observe(s Serial) {
	for {
		last := g.last.Load()
		if int64(s) <= last || g.last.CompareAndSwap(last, int64(s)) {
			return
		}
	}
}

// State is one logical history position, stored by the host alongside the
// history entry it belongs to.
type State struct {
	ViewID    string            `json:"view"`
	Namespace string            `json:"namespace"`
	Serial    Serial            `json:"serial"`
	Options   map[string]string `json:"options,omitempty"`
}

// NewState builds a state for key.
func NewState(key view.Key, serial Serial, options map[string]string) State {
	return State{
		ViewID:    key.ID,
		Namespace: key.Namespace,
		Serial:    serial,
		Options:   maps.Clone(options),
	}
}

// Key returns the view the state refers to.
func (s State) Key() view.Key {
	return view.NewKey(s.ViewID, s.Namespace)
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Options = maps.Clone(s.Options)
	return s
}

// Address renders the externally visible address of the state.
func (s State) Address() string {
	return FormatAddress(Address{ViewID: s.ViewID, Namespace: s.Namespace, Options: s.Options})
}
