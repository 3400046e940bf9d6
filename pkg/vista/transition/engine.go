package transition

import (
	"fmt"
	"maps"
	"sync"

	"go.uber.org/atomic"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/event"
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
	"github.com/BrandonKowalski/vista/pkg/vista/params"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// Engine runs switches one at a time and owns the active-view marker.
type Engine struct {
	mu           sync.RWMutex
	active       *view.View
	interceptors []registeredInterceptor
	nextID       int
	hook         AnimationHook
	idle         func()

	params *params.Store
	events *event.Emitter
	layout Layouter
	newID  func() string

	busy atomic.Bool
}

type registeredInterceptor struct {
	id int
	fn Interceptor
}

// Option configures an Engine.
type Option func(*Engine)

// WithLayouter sets the layout collaborator called when a view is activated.
func WithLayouter(l Layouter) Option {
	return func(e *Engine) {
		e.layout = l
	}
}

// WithIDGenerator replaces the UUIDv7 transition id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithEvents makes the engine emit global events on em.
func WithEvents(em *event.Emitter) Option {
	return func(e *Engine) {
		e.events = em
	}
}

// New creates an engine installing parameters into store.
func New(store *params.Store, opts ...Option) *Engine {
	e := &Engine{
		params: store,
		events: event.NewEmitter(),
		newID:  NewUUIDv7,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the emitter of global events.
func (e *Engine) Events() *event.Emitter {
	return e.events
}

// On registers a handler for a global event.
func (e *Engine) On(name constants.EventName, fn event.Handler) (off func()) {
	return e.events.On(name, fn)
}

// Active returns the active view, or nil before the first switch.
func (e *Engine) Active() *view.View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// InProgress reports whether a switch is in flight.
func (e *Engine) InProgress() bool {
	return e.busy.Load()
}

// Intercept registers an interceptor. Interceptors run in registration order.
func (e *Engine) Intercept(fn Interceptor) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.interceptors = append(e.interceptors, registeredInterceptor{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, ic := range e.interceptors {
			if ic.id == id {
				e.interceptors = append(e.interceptors[:i:i], e.interceptors[i+1:]...)
				return
			}
		}
	}
}

// SetAnimationHook installs the animation hook. nil removes it.
func (e *Engine) SetAnimationHook(h AnimationHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = h
}

// SetIdleHook installs fn, called each time a switch settles and the engine
// accepts switches again. nil removes it.
func (e *Engine) SetIdleHook(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idle = fn
}

// ReportMissing emits viewnotexist for a request that named an unknown view.
func (e *Engine) ReportMissing(key view.Key, trigger constants.Trigger) {
	internal.GetInternalLogger().Warn("requested view does not exist", "view", key.String())
	e.events.Emit(event.Event{
		Name:      constants.EventViewNotExists,
		ViewID:    key.ID,
		Namespace: key.Namespace,
		Trigger:   trigger,
		Err:       &view.NotFoundError{Key: key},
	})
}

// Switch runs a switch to ops.Target.
//
// It returns ErrBusy when another switch is in flight and ErrNoTarget when
// ops.Target is nil. Interceptor vetoes and switches to the already active
// view are not errors: the returned Transition reports OutcomeRejected or
// OutcomeSkipped and nothing else happens. When an animation hook is used the
// Transition may still be pending on return; wait on Done.
func (e *Engine) Switch(ops Ops) (*Transition, error) {
	if ops.Target == nil {
		return nil, ErrNoTarget
	}
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	log := internal.GetInternalLogger()

	typ := ops.Type.Normalize()
	source := ops.Source
	if source == nil {
		source = e.Active()
	}
	target := ops.Target

	tr := newTransition(describe(e.newID(), source, target, typ, ops))

	if target == e.Active() {
		log.Debug("target already active", "view", target.String())
		e.finish(tr, OutcomeSkipped)
		return tr, nil
	}

	if err := e.runInterceptors(tr.Descriptor); err != nil {
		log.Debug("transition rejected",
			"transition", tr.ID,
			"target", target.String(),
			"reason", err.Error())
		e.finish(tr, OutcomeRejected)
		return tr, nil
	}

	if ops.OnBeforeSwitch != nil {
		ops.OnBeforeSwitch()
	}

	base := event.Event{
		ViewID:       target.ID(),
		Namespace:    target.Namespace(),
		TransitionID: tr.ID,
		Type:         typ,
		Trigger:      ops.Trigger,
		Options:      tr.Options,
	}
	if source != nil {
		base.SourceID = source.ID()
		base.SourceNamespace = source.Namespace()
	}

	e.events.Emit(named(base, constants.EventBeforeChange))

	base.Params = e.propagate(typ, target.Key(), ops.Params)

	var once sync.Once
	render := func() {
		once.Do(func() { e.render(tr, source, target, base) })
	}

	e.mu.RLock()
	hook := e.hook
	e.mu.RUnlock()

	if !ops.WithAnimation || hook == nil {
		render()
		return tr, nil
	}

	if err := callHook(hook, source, target, typ, ops.Trigger, render); err != nil {
		once.Do(func() {
			log.Error("animation hook failed before rendering",
				"transition", tr.ID,
				"target", target.String(),
				"error", err)
			e.finish(tr, OutcomeAborted)
		})
	}
	return tr, nil
}

func (e *Engine) runInterceptors(d Descriptor) error {
	e.mu.RLock()
	list := make([]registeredInterceptor, len(e.interceptors))
	copy(list, e.interceptors)
	e.mu.RUnlock()

	for _, ic := range list {
		if err := callInterceptor(ic.fn, d); err != nil {
			return err
		}
	}
	return nil
}

// propagate clears the target's parameters and installs the new ones.
// History moves consume the matching pending slot.
func (e *Engine) propagate(typ constants.SwitchType, key view.Key, supplied any) any {
	value := supplied
	switch typ {
	case constants.SwitchHistoryBack:
		value, _ = e.params.TakePending(params.DirectionBack)
	case constants.SwitchHistoryForward:
		value, _ = e.params.TakePending(params.DirectionForward)
	}
	e.params.Replace(key, value)
	return value
}

func (e *Engine) render(tr *Transition, source, target *view.View, base event.Event) {
	if source != nil {
		source.Deactivate()
		source.Emit(named(base, constants.EventLeave))
	}

	target.Emit(named(base, constants.EventBeforeEnter))

	e.mu.Lock()
	e.active = target
	e.mu.Unlock()
	target.Activate()

	if e.layout != nil {
		e.runLayout(target)
	}

	e.events.Emit(named(base, constants.EventChange))

	if target.MarkReady() {
		target.Emit(named(base, constants.EventReady))
	}
	target.Emit(named(base, constants.EventEnter))
	target.Emit(named(base, constants.EventAfterEnter))

	// Render is over: afterchange handlers may start the next switch.
	e.busy.Store(false)
	e.events.Emit(named(base, constants.EventAfterChange))

	internal.GetInternalLogger().Debug("transition completed",
		"transition", tr.ID,
		"target", target.String(),
		"type", base.Type.String(),
		"trigger", base.Trigger.String())

	e.settle(tr, OutcomeCompleted)
}

func (e *Engine) runLayout(v *view.View) {
	defer func() {
		if r := recover(); r != nil {
			internal.GetInternalLogger().Error("layout panicked", "view", v.String(), "panic", fmt.Sprint(r))
		}
	}()
	e.layout.Layout(v)
}

// finish releases the single-flight latch and settles tr, so a waiter may
// start the next switch right away.
func (e *Engine) finish(tr *Transition, o Outcome) {
	e.busy.Store(false)
	e.settle(tr, o)
}

func (e *Engine) settle(tr *Transition, o Outcome) {
	tr.settle(o)

	e.mu.RLock()
	idle := e.idle
	e.mu.RUnlock()
	if idle != nil {
		idle()
	}
}

// named copies base for one handler. Options are cloned so a handler cannot
// change what the Descriptor or later handlers see.
func named(base event.Event, name constants.EventName) event.Event {
	base.Name = name
	base.Options = maps.Clone(base.Options)
	return base
}

func callInterceptor(fn Interceptor, d Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interceptor panicked: %v", r)
		}
	}()
	return fn(d)
}

func callHook(hook AnimationHook, source, target *view.View, typ constants.SwitchType, trigger constants.Trigger, render func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("animation hook panicked: %v", r)
		}
	}()
	hook(source, target, typ, trigger, render)
	return nil
}
