package host

import "sync"

type memoryEntry struct {
	state   *State
	address string
}

// MemoryOption configures a MemoryHost.
type MemoryOption func(*MemoryHost)

// WithoutStatePayload makes the host drop state payloads, so every
// notification is address-only. This mimics hosts with degraded history
// support.
func WithoutStatePayload() MemoryOption {
	return func(h *MemoryHost) {
		h.dropState = true
	}
}

// MemoryHost is an in-process history with browser semantics. It is used by
// the CLI, by platform integrations without a native history, and by tests.
//
// Notifications are delivered synchronously on the goroutine that called
// Back, Forward, Go or Visit, after the host's own lock is released.
type MemoryHost struct {
	mu        sync.Mutex
	entries   []memoryEntry
	index     int
	title     string
	listeners []Listener
	dropState bool
}

// NewMemoryHost creates a host whose single entry shows address.
func NewMemoryHost(address string, opts ...MemoryOption) *MemoryHost {
	h := &MemoryHost{
		entries: []memoryEntry{{address: address}},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Notify registers fn to receive notifications.
func (h *MemoryHost) Notify(fn Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *MemoryHost) PushState(state State, address string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.index+1], memoryEntry{state: h.keep(state), address: address})
	h.index++
}

func (h *MemoryHost) ReplaceState(state State, address string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.index] = memoryEntry{state: h.keep(state), address: address}
}

func (h *MemoryHost) keep(state State) *State {
	if h.dropState {
		return nil
	}
	s := state.Clone()
	return &s
}

func (h *MemoryHost) Address() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].address
}

func (h *MemoryHost) Back() {
	h.Go(-1)
}

func (h *MemoryHost) Forward() {
	h.Go(1)
}

// Go moves delta entries through history and notifies listeners.
// A move past either end of the history is ignored.
func (h *MemoryHost) Go(delta int) {
	h.mu.Lock()
	next := h.index + delta
	if delta == 0 || next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return
	}
	h.index = next
	n := h.notificationLocked()
	listeners := h.listenersLocked()
	h.mu.Unlock()

	deliver(listeners, n)
}

// Visit simulates the user typing address: a new entry without state is
// appended and listeners receive an address-only notification.
func (h *MemoryHost) Visit(address string) {
	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], memoryEntry{address: address})
	h.index++
	n := Notification{Address: address}
	listeners := h.listenersLocked()
	h.mu.Unlock()

	deliver(listeners, n)
}

func (h *MemoryHost) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = title
}

// Title returns the last title set.
func (h *MemoryHost) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

// Len returns the number of history entries.
func (h *MemoryHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the position of the current entry.
func (h *MemoryHost) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Current returns a copy of the current entry's state, or nil.
func (h *MemoryHost) Current() *State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.notificationLocked().State
}

// Restore replaces the whole history with states and makes cursor current.
func (h *MemoryHost) Restore(states []State, cursor int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(states) == 0 {
		return
	}
	h.entries = make([]memoryEntry, 0, len(states))
	for _, s := range states {
		h.entries = append(h.entries, memoryEntry{state: h.keep(s), address: s.Address()})
	}
	h.index = min(max(cursor, 0), len(h.entries)-1)
}

func (h *MemoryHost) notificationLocked() Notification {
	e := h.entries[h.index]
	n := Notification{Address: e.address}
	if e.state != nil {
		s := e.state.Clone()
		n.State = &s
	}
	return n
}

func (h *MemoryHost) listenersLocked() []Listener {
	out := make([]Listener, len(h.listeners))
	copy(out, h.listeners)
	return out
}

func deliver(listeners []Listener, n Notification) {
	for _, fn := range listeners {
		fn(n)
	}
}
