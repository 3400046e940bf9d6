// Package params holds transient per-view parameters handed to a view when a
// transition enters it.
package params

import (
	"sync"

	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Direction selects one of the two pending slots.
type Direction int

const (
	DirectionBack Direction = iota
	DirectionForward
)

func (d Direction) String() string {
	if d == DirectionForward {
		return "forward"
	}
	return "back"
}

// Store maps views to the parameters of their latest entry.
// Parameters are cleared every time a transition enters the view.
// The pending slots hold parameters destined for whichever view a back or
// forward move lands on; taking a pending value deletes it.
type Store struct {
	mu      sync.Mutex
	values  map[view.Key]any
	pending map[Direction]any
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values:  make(map[view.Key]any),
		pending: make(map[Direction]any),
	}
}

// Set installs value for key, replacing anything already there.
func (s *Store) Set(key view.Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the parameters of key's latest entry.
func (s *Store) Get(key view.Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Clear removes the parameters of key.
func (s *Store) Clear(key view.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Replace clears key and installs value in one step. A nil value leaves key
// without parameters.
func (s *Store) Replace(key view.Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	if value != nil {
		s.values[key] = value
	}
}

// SetPending stores value for the next transition moving in dir.
func (s *Store) SetPending(dir Direction, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[dir] = value
}

// TakePending returns and deletes the pending value for dir.
func (s *Store) TakePending(dir Direction) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.pending[dir]
	delete(s.pending, dir)
	return v, ok
}

// HasPending reports whether a value waits in the dir slot.
func (s *Store) HasPending(dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[dir]
	return ok
}
