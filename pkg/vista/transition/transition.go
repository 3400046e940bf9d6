// Package transition performs view switches.
//
// A switch is a fixed pipeline:
//
//  1. normalize the switch type
//  2. run interceptors (any rejection abandons the switch silently)
//  3. call the caller's OnBeforeSwitch hook (history is committed here)
//  4. emit the global beforechange event
//  5. install the target's parameters
//  6. hand over to the animation hook, which must call render exactly once
//  7. render: leave, beforeenter, activate, layout, change, ready (first
//     activation only), enter, afterenter
//  8. release the single-flight latch and emit the global afterchange event
//
// Only one switch may be in flight. The engine pauses between steps 6 and 7
// until the animation hook calls render, possibly from another goroutine.
// Handlers of afterchange may start the next switch.
package transition

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

var (
	// ErrBusy is returned by Switch while another switch is in flight.
	ErrBusy = errors.New("transition: another transition is in progress")

	// ErrRejected is the conventional error for an interceptor to veto a switch.
	ErrRejected = errors.New("transition: rejected by interceptor")

	// ErrNoTarget is returned by Switch when Ops.Target is nil.
	ErrNoTarget = errors.New("transition: no target view")
)

// Outcome is the final (or current) state of a Transition.
type Outcome int

const (
	OutcomePending   Outcome = iota // Waiting for the animation hook to call render
	OutcomeCompleted                // Every lifecycle event fired
	OutcomeSkipped                  // Target was already active; nothing happened
	OutcomeRejected                 // An interceptor vetoed; nothing happened
	OutcomeAborted                  // The animation hook failed before rendering
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRejected:
		return "rejected"
	case OutcomeAborted:
		return "aborted"
	default:
		return "pending"
	}
}

// Descriptor is the immutable snapshot of a pending switch handed to
// interceptors.
type Descriptor struct {
	ID            string
	Source        view.Key // zero when nothing was active
	Target        view.Key
	Type          constants.SwitchType
	Trigger       constants.Trigger
	WithAnimation bool
	Params        any
	Options       map[string]string
}

// Interceptor may veto a switch by returning a non-nil error.
// A panicking interceptor vetoes as well.
type Interceptor func(d Descriptor) error

// AnimationHook performs the visual part of a switch. It must call render
// exactly once, synchronously or later from any goroutine. Extra calls are
// ignored.
type AnimationHook func(source, target *view.View, typ constants.SwitchType, trigger constants.Trigger, render func())

// Layouter recomputes the layout of a view that just became active.
type Layouter interface {
	Layout(v *view.View)
}

// LayoutFunc adapts a function to Layouter.
type LayoutFunc func(v *view.View)

func (f LayoutFunc) Layout(v *view.View) { f(v) }

// Ops describes a requested switch.
type Ops struct {
	Source         *view.View // nil means the engine's active view
	Target         *view.View
	Type           constants.SwitchType
	Trigger        constants.Trigger
	WithAnimation  bool
	Params         any
	Options        map[string]string
	OnBeforeSwitch func()
}

// Transition tracks one accepted switch.
type Transition struct {
	Descriptor

	mu      sync.Mutex
	outcome Outcome
	done    chan struct{}
}

func newTransition(d Descriptor) *Transition {
	return &Transition{
		Descriptor: d,
		done:       make(chan struct{}),
	}
}

// Outcome returns the current outcome.
func (t *Transition) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Done is closed once the transition reaches a final outcome.
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the transition is final or ctx is done.
func (t *Transition) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.Outcome(), nil
	case <-ctx.Done():
		return t.Outcome(), ctx.Err()
	}
}

func (t *Transition) settle(o Outcome) {
	t.mu.Lock()
	t.outcome = o
	t.mu.Unlock()
	close(t.done)
}

// NewUUIDv7 returns a time-sortable transition id.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

func describe(id string, source, target *view.View, typ constants.SwitchType, ops Ops) Descriptor {
	d := Descriptor{
		ID:            id,
		Target:        target.Key(),
		Type:          typ,
		Trigger:       ops.Trigger,
		WithAnimation: ops.WithAnimation,
		Params:        ops.Params,
		Options:       maps.Clone(ops.Options),
	}
	if source != nil {
		d.Source = source.Key()
	}
	return d
}
