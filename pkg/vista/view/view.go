// Package view owns view identity: the registry of known views and the
// resolver that decides which view is actually displayed for a request.
package view

import (
	"go.uber.org/atomic"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/event"
)

// View is a named, mutually exclusive presentation unit.
// Views are created by the Registry and never removed. Identity and declared
// attributes are immutable; only the active and ready markers change.
type View struct {
	key           Key
	title         string
	group         string
	accessibility Accessibility
	fallback      Target

	isDefault atomic.Bool
	active    atomic.Bool
	ready     atomic.Bool

	events *event.Emitter
}

func newView(d Declaration) *View {
	key := d.Key()
	return &View{
		key:           key,
		title:         d.Title,
		group:         d.Group,
		accessibility: d.Accessible,
		fallback:      ParseTarget(d.Fallback, key.Namespace),
		events:        event.NewEmitter(),
	}
}

func (v *View) Key() Key                     { return v.key }
func (v *View) ID() string                   { return v.key.ID }
func (v *View) Namespace() string            { return v.key.Namespace }
func (v *View) Title() string                { return v.title }
func (v *View) Group() string                { return v.group }
func (v *View) Accessibility() Accessibility { return v.accessibility }
func (v *View) Fallback() Target             { return v.fallback }
func (v *View) IsDefault() bool              { return v.isDefault.Load() }
func (v *View) IsActive() bool               { return v.active.Load() }
func (v *View) IsReady() bool                { return v.ready.Load() }

// DirectlyAccessible reports whether an external request may land on v
// without following its fallback chain. allAccessible is the global flag
// consulted when v does not set its own.
func (v *View) DirectlyAccessible(allAccessible bool) bool {
	switch v.accessibility {
	case AccessAllowed:
		return true
	case AccessDenied:
		return false
	default:
		return allAccessible
	}
}

// On registers a per-view lifecycle handler.
func (v *View) On(name constants.EventName, fn event.Handler) (off func()) {
	return v.events.On(name, fn)
}

// Emit fires a per-view event. Called by the transition engine.
func (v *View) Emit(ev event.Event) {
	ev.ViewID = v.key.ID
	ev.Namespace = v.key.Namespace
	v.events.Emit(ev)
}

// Activate sets the active marker. Called by the transition engine.
func (v *View) Activate() {
	v.active.Store(true)
}

// Deactivate clears the active marker. Called by the transition engine.
func (v *View) Deactivate() {
	v.active.Store(false)
}

// MarkReady sets the ready marker and reports whether this was the first time.
func (v *View) MarkReady() bool {
	return v.ready.CompareAndSwap(false, true)
}

func (v *View) String() string {
	return v.key.String()
}
