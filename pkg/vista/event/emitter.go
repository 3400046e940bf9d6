// Package event provides the synchronous emitter used for global and per-view
// lifecycle events.
package event

import (
	"fmt"
	"sync"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
)

// Event is the payload delivered to handlers.
// For per-view events ViewID/Namespace name the view the event fired on.
// For global events they name the transition target.
type Event struct {
	Name      constants.EventName
	ViewID    string
	Namespace string

	SourceID        string // empty when there was no active view
	SourceNamespace string

	TransitionID string
	Type         constants.SwitchType
	Trigger      constants.Trigger
	Params       any
	Options      map[string]string

	Err error // set for viewnotexist
}

// Handler receives events. Handlers run synchronously in registration order.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Emitter dispatches named events to registered handlers.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[constants.EventName][]subscription
	nextID   int
}

// NewEmitter creates an emitter with no handlers.
func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[constants.EventName][]subscription),
	}
}

// On registers a handler and returns a function that removes it.
func (e *Emitter) On(name constants.EventName, fn Handler) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers[name] = append(e.handlers[name], subscription{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		subs := e.handlers[name]
		for i, s := range subs {
			if s.id == id {
				e.handlers[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to every handler registered for ev.Name.
// A panicking handler is logged and does not stop the remaining handlers.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	subs := make([]subscription, len(e.handlers[ev.Name]))
	copy(subs, e.handlers[ev.Name])
	e.mu.RUnlock()

	for _, s := range subs {
		dispatch(s.fn, ev)
	}
}

// Count returns the number of handlers registered for name.
func (e *Emitter) Count(name constants.EventName) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[name])
}

func dispatch(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			internal.GetInternalLogger().Error("event handler panicked",
				"event", string(ev.Name),
				"view", ev.ViewID,
				"panic", fmt.Sprint(r))
		}
	}()
	fn(ev)
}
