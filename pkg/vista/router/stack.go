package router

import (
	"sync"

	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Snapshot is a copy of the stack that can be persisted and restored.
type Snapshot struct {
	Entries []host.State `json:"entries"`
	Cursor  int          `json:"cursor"`
}

// Stack mirrors the host's history entries.
// Every mutation writes through to the host: Push appends a host entry,
// Replace and Adopt update the current one in place.
type Stack struct {
	mu      sync.Mutex
	entries []host.State
	cursor  int

	host    host.Host
	serials *host.SerialGenerator
}

// NewStack creates an empty stack writing through to h.
func NewStack(h host.Host, serials *host.SerialGenerator) *Stack {
	if serials == nil {
		serials = host.NewSerialGenerator()
	}
	return &Stack{
		entries: make([]host.State, 0),
		cursor:  -1,
		host:    h,
		serials: serials,
	}
}

// Push discards any forward entries, appends a new entry and makes it current.
func (s *Stack) Push(key view.Key, options map[string]string) host.State {
	s.mu.Lock()
	st := host.NewState(key, s.serials.Next(), options)
	s.entries = append(s.entries[:s.cursor+1], st)
	s.cursor++
	s.mu.Unlock()

	s.host.PushState(st, st.Address())
	return st.Clone()
}

// Replace records that the current host entry now shows key.
//
// When serial names the entry just before the cursor the cursor moves back,
// just after it the cursor moves forward, further away it jumps there.
// Otherwise the cursor stays. The entry at the final cursor is then
// overwritten with key and options, keeping its serial unless serial names an
// entry the stack does not know. A nil serial always overwrites in place.
//
// On an empty stack Replace records the first entry.
func (s *Stack) Replace(key view.Key, serial *host.Serial, options map[string]string) host.State {
	s.mu.Lock()

	if len(s.entries) == 0 {
		sn := s.serials.Next()
		if serial != nil {
			sn = *serial
			s.serials.Observe(sn)
		}
		s.entries = append(s.entries, host.NewState(key, sn, options))
		s.cursor = 0
	} else {
		sn := s.entries[s.cursor].Serial
		if serial != nil {
			if i := s.indexOfLocked(*serial); i >= 0 {
				s.cursor = i
			} else {
				s.serials.Observe(*serial)
			}
			sn = *serial
		}
		s.entries[s.cursor] = host.NewState(key, sn, options)
	}
	st := s.entries[s.cursor]
	s.mu.Unlock()

	s.host.ReplaceState(st, st.Address())
	return st.Clone()
}

// indexOfLocked looks for serial starting at the cursor's neighbours.
func (s *Stack) indexOfLocked(serial host.Serial) int {
	if s.entries[s.cursor].Serial == serial {
		return s.cursor
	}
	for d := 1; d < len(s.entries); d++ {
		if i := s.cursor - d; i >= 0 && s.entries[i].Serial == serial {
			return i
		}
		if i := s.cursor + d; i < len(s.entries) && s.entries[i].Serial == serial {
			return i
		}
	}
	return -1
}

// Adopt records an entry the host appended on its own, e.g. after the user
// typed an address. The entry is stamped with a fresh serial and written back
// to the host in place.
func (s *Stack) Adopt(key view.Key, options map[string]string) host.State {
	s.mu.Lock()
	st := host.NewState(key, s.serials.Next(), options)
	s.entries = append(s.entries[:s.cursor+1], st)
	s.cursor++
	s.mu.Unlock()

	s.host.ReplaceState(st, st.Address())
	return st.Clone()
}

// Neighbor returns the serial of the entry next to the cursor showing key,
// looking back first. ok is false when neither neighbour shows key.
func (s *Stack) Neighbor(key view.Key) (serial host.Serial, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.cursor - 1; i >= 0 && s.entries[i].Key() == key {
		return s.entries[i].Serial, true
	}
	if i := s.cursor + 1; i < len(s.entries) && s.entries[i].Key() == key {
		return s.entries[i].Serial, true
	}
	return 0, false
}

// CanGoBack reports whether an entry exists before the current one.
func (s *Stack) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

// CanGoForward reports whether an entry exists after the current one.
func (s *Stack) CanGoForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= 0 && s.cursor < len(s.entries)-1
}

// Current returns the current entry. ok is false on an empty stack.
func (s *Stack) Current() (state host.State, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 {
		return host.State{}, false
	}
	return s.entries[s.cursor].Clone(), true
}

// IsEmpty returns true if the stack has no entries.
func (s *Stack) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of entries in the stack.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cursor returns the index of the current entry, -1 on an empty stack.
func (s *Stack) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Entries returns a copy of every entry, oldest first.
func (s *Stack) Entries() []host.State {
	return s.Snapshot().Entries
}

// Snapshot copies the stack.
func (s *Stack) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Entries: make([]host.State, len(s.entries)), Cursor: s.cursor}
	for i, e := range s.entries {
		snap.Entries[i] = e.Clone()
	}
	return snap
}

// Restore replaces the stack with snap. Serials handed out afterwards sort
// after every restored entry. The host is not touched.
func (s *Stack) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]host.State, len(snap.Entries))
	for i, e := range snap.Entries {
		s.entries[i] = e.Clone()
		s.serials.Observe(e.Serial)
	}
	s.cursor = min(max(snap.Cursor, 0), len(s.entries)-1)
}
