package router

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/atomic"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/event"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
	"github.com/BrandonKowalski/vista/pkg/vista/params"
	"github.com/BrandonKowalski/vista/pkg/vista/transition"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

var (
	// ErrNoHistory is returned by Back and Forward when the stack has no entry
	// in that direction.
	ErrNoHistory = errors.New("router: no history entry in that direction")

	// ErrStarted is returned by Start and Restore on a router already showing
	// a view.
	ErrStarted = errors.New("router: already started")
)

// Titler produces the title pushed to the host when a view becomes active.
type Titler interface {
	Title(v *view.View) string
}

// TitleFunc adapts a function to Titler.
type TitleFunc func(v *view.View) string

func (f TitleFunc) Title(v *view.View) string { return f(v) }

// Persister saves the stack after every committed change and loads it back
// when a session is restored.
type Persister interface {
	Save(snap Snapshot) error
	Load() (snap Snapshot, ok bool, err error)
}

// Router is the context object tying the registry, resolver, parameter store,
// stack and transition engine to one host. Create one per application.
type Router struct {
	registry *view.Registry
	resolver *view.Resolver
	params   *params.Store
	engine   *transition.Engine
	stack    *Stack
	host     host.Host

	titler         Titler
	persister      Persister
	animateHistory bool

	// intended holds the switch type of an app-initiated history move, plus
	// one, until the host's notification for it arrives.
	intended atomic.Int32
	started  atomic.Bool

	deferMu  sync.Mutex
	deferred *transition.Ops
}

type config struct {
	allAccessible  bool
	animateHistory bool
	titler         Titler
	persister      Persister
	serials        *host.SerialGenerator
	engineOpts     []transition.Option
}

// Option configures a Router.
type Option func(*config)

// WithAllAccessible sets the global accessibility flag applied to views that
// do not declare their own.
func WithAllAccessible(all bool) Option {
	return func(c *config) {
		c.allAccessible = all
	}
}

// WithHistoryAnimation runs the animation hook for host-initiated history
// moves too.
func WithHistoryAnimation(animate bool) Option {
	return func(c *config) {
		c.animateHistory = animate
	}
}

// WithTitler replaces the default titler, which uses the declared title.
func WithTitler(t Titler) Option {
	return func(c *config) {
		c.titler = t
	}
}

// WithPersister saves the stack after every committed change.
func WithPersister(p Persister) Option {
	return func(c *config) {
		c.persister = p
	}
}

// WithSerialGenerator replaces the wall-clock serial generator.
func WithSerialGenerator(g *host.SerialGenerator) Option {
	return func(c *config) {
		c.serials = g
	}
}

// WithEngineOptions passes options to the transition engine.
func WithEngineOptions(opts ...transition.Option) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// New creates a router for h with views declared by source.
// If h implements host.Notifier the router subscribes to its notifications.
func New(h host.Host, source view.Source, opts ...Option) (*Router, error) {
	cfg := config{titler: TitleFunc((*view.View).Title)}
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := view.NewRegistry(source)
	if err := registry.Init(); err != nil {
		return nil, fmt.Errorf("router: init registry: %w", err)
	}

	store := params.New()
	engine := transition.New(store, cfg.engineOpts...)

	r := &Router{
		registry:       registry,
		resolver:       view.NewResolver(registry, engine.Active, cfg.allAccessible),
		params:         store,
		engine:         engine,
		stack:          NewStack(h, cfg.serials),
		host:           h,
		titler:         cfg.titler,
		persister:      cfg.persister,
		animateHistory: cfg.animateHistory,
	}

	engine.On(constants.EventChange, r.updateTitle)
	engine.SetIdleHook(r.replayDeferred)

	if n, ok := h.(host.Notifier); ok {
		n.Notify(r.HandleNotification)
	}
	return r, nil
}

// NavOption configures one navigation request.
type NavOption func(*navOptions)

type navOptions struct {
	namespace string
	params    any
	options   map[string]string
	animate   bool
}

// WithParams hands value to the view entered by the request.
// For Back and Forward the value goes to whichever view the move lands on.
func WithParams(value any) NavOption {
	return func(o *navOptions) {
		o.params = value
	}
}

// WithOptions sets the options carried in the entry's address.
func WithOptions(options map[string]string) NavOption {
	return func(o *navOptions) {
		o.options = maps.Clone(options)
	}
}

// WithAnimation runs the animation hook for the request.
func WithAnimation() NavOption {
	return func(o *navOptions) {
		o.animate = true
	}
}

// WithNamespace sets the namespace of references that do not name one.
func WithNamespace(namespace string) NavOption {
	return func(o *navOptions) {
		o.namespace = namespace
	}
}

func collect(opts []NavOption) navOptions {
	var o navOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NavTo navigates to ref, growing history.
//
// ref accepts every reference form: "id", "id@ns", "~group", ":default-view",
// ":back" and ":forward". In-app navigation is not subject to accessibility
// rules. A reference to a view nobody declared emits viewnotexist and returns
// a nil Transition and a nil error.
func (r *Router) NavTo(ref string, opts ...NavOption) (*transition.Transition, error) {
	return r.navigate(ref, constants.SwitchNav, collect(opts))
}

// ChangeTo shows ref in place of the current entry without growing history.
func (r *Router) ChangeTo(ref string, opts ...NavOption) (*transition.Transition, error) {
	return r.navigate(ref, constants.SwitchChange, collect(opts))
}

func (r *Router) navigate(ref string, typ constants.SwitchType, o navOptions) (*transition.Transition, error) {
	target := view.ParseTarget(ref, o.namespace)

	switch target.(type) {
	case view.Back:
		return nil, r.move(params.DirectionBack, o)
	case view.Forward:
		return nil, r.move(params.DirectionForward, o)
	}

	v := r.lookup(target)
	if v == nil {
		return nil, nil
	}

	key, options := v.Key(), o.options
	commit := func() {
		if typ == constants.SwitchChange {
			r.stack.Replace(key, nil, options)
		} else {
			r.stack.Push(key, options)
		}
		r.persist()
	}

	return r.engine.Switch(transition.Ops{
		Target:         v,
		Type:           typ,
		Trigger:        constants.TriggerApp,
		WithAnimation:  o.animate,
		Params:         o.params,
		Options:        options,
		OnBeforeSwitch: commit,
	})
}

// lookup finds the view an app request names, reporting unknown views.
func (r *Router) lookup(target view.Target) *view.View {
	switch t := target.(type) {
	case view.Concrete:
		v, err := r.registry.Get(t.Key)
		if err != nil {
			r.engine.ReportMissing(t.Key, constants.TriggerApp)
			return nil
		}
		return v
	case view.Group:
		v := r.registry.FirstOfGroup(t.Name)
		if v == nil {
			r.engine.ReportMissing(view.NewKey(t.String(), ""), constants.TriggerApp)
		}
		return v
	default:
		return r.resolver.Resolve(target)
	}
}

// Back asks the host to move one entry back. The switch happens when the host
// notifies the router.
func (r *Router) Back(opts ...NavOption) error {
	return r.move(params.DirectionBack, collect(opts))
}

// Forward asks the host to move one entry forward.
func (r *Router) Forward(opts ...NavOption) error {
	return r.move(params.DirectionForward, collect(opts))
}

func (r *Router) move(dir params.Direction, o navOptions) error {
	typ := constants.SwitchHistoryBack
	possible := r.stack.CanGoBack()
	if dir == params.DirectionForward {
		typ = constants.SwitchHistoryForward
		possible = r.stack.CanGoForward()
	}
	if !possible {
		return ErrNoHistory
	}

	if o.params != nil {
		r.params.SetPending(dir, o.params)
	}
	r.intended.Store(int32(typ) + 1)

	if dir == params.DirectionForward {
		r.host.Forward()
	} else {
		r.host.Back()
	}
	return nil
}

func (r *Router) takeIntended() (constants.SwitchType, bool) {
	v := r.intended.Swap(0)
	if v == 0 {
		return 0, false
	}
	return constants.SwitchType(v - 1), true
}

// SetParams stores value for the view ref names. ":back" and ":forward" store
// it for the view the next back or forward move lands on.
func (r *Router) SetParams(ref string, value any) {
	switch t := view.ParseTarget(ref, "").(type) {
	case view.Back:
		r.params.SetPending(params.DirectionBack, value)
	case view.Forward:
		r.params.SetPending(params.DirectionForward, value)
	case view.Concrete:
		r.params.Set(t.Key, value)
	case view.Group:
		if v := r.registry.FirstOfGroup(t.Name); v != nil {
			r.params.Set(v.Key(), value)
		}
	case view.DefaultView:
		r.params.Set(r.registry.Default().Key(), value)
	}
}

// Params returns the parameters installed for key by its latest entry.
func (r *Router) Params(key view.Key) (any, bool) {
	return r.params.Get(key)
}

// Start shows the first view. With a persister holding a saved session the
// session is restored; otherwise the view named by the host's address is
// resolved under accessibility rules. Options from the address are kept only
// when the requested view is the one shown.
func (r *Router) Start() (*transition.Transition, error) {
	if r.persister != nil {
		snap, ok, err := r.persister.Load()
		if err != nil {
			internal.GetInternalLogger().Error("failed to load saved session", "error", err)
		} else if ok && len(snap.Entries) > 0 {
			return r.Restore(snap)
		}
	}

	if !r.started.CompareAndSwap(false, true) {
		return nil, ErrStarted
	}

	var (
		target  = r.registry.Default()
		options map[string]string
	)
	if addr, err := host.ParseAddress(r.host.Address()); err == nil {
		target = r.resolver.ResolveKey(addr.Key())
		if target.Key() == addr.Key() {
			options = addr.Options
		}
	}

	key := target.Key()
	return r.first(r.engine.Switch(transition.Ops{
		Target:  target,
		Type:    constants.SwitchNav,
		Trigger: constants.TriggerNavigator,
		Options: options,
		OnBeforeSwitch: func() {
			r.stack.Replace(key, nil, options)
			r.persist()
		},
	}))
}

// first releases the started latch when the first switch showed nothing, so
// Start or Restore can be retried.
func (r *Router) first(tr *transition.Transition, err error) (*transition.Transition, error) {
	if err != nil {
		internal.GetInternalLogger().Warn("first view was not shown", "error", err)
		r.started.Store(false)
		return tr, err
	}
	if o := tr.Outcome(); o == transition.OutcomeRejected || o == transition.OutcomeAborted {
		internal.GetInternalLogger().Warn("first view was not shown", "outcome", o.String())
		r.started.Store(false)
	}
	return tr, nil
}

// Restore rebuilds the stack from snap and shows its current entry. A host
// implementing host.Restorer gets its history rebuilt too. A current entry
// naming a view that no longer exists shows the default view.
func (r *Router) Restore(snap Snapshot) (*transition.Transition, error) {
	if len(snap.Entries) == 0 {
		return nil, fmt.Errorf("router: restore: %w", ErrNoHistory)
	}
	if !r.started.CompareAndSwap(false, true) {
		return nil, ErrStarted
	}

	r.stack.Restore(snap)
	if rh, ok := r.host.(host.Restorer); ok {
		rh.Restore(snap.Entries, r.stack.Cursor())
	}

	current, _ := r.stack.Current()
	options := current.Options
	target, err := r.registry.Get(current.Key())
	if err != nil {
		internal.GetInternalLogger().Warn("restored view no longer exists",
			"view", current.Key().String())
		target = r.registry.Default()
		options = nil
		r.stack.Replace(target.Key(), nil, nil)
	}

	internal.GetInternalLogger().Info("session restored",
		"entries", len(snap.Entries),
		"cursor", r.stack.Cursor(),
		"view", target.String())

	return r.first(r.engine.Switch(transition.Ops{
		Target:  target,
		Type:    constants.SwitchNav,
		Trigger: constants.TriggerNavigator,
		Options: options,
	}))
}

func (r *Router) persist() {
	if r.persister == nil {
		return
	}
	if err := r.persister.Save(r.stack.Snapshot()); err != nil {
		internal.GetInternalLogger().Error("failed to save session", "error", err)
	}
}

func (r *Router) updateTitle(ev event.Event) {
	v, err := r.registry.OfID(ev.ViewID, ev.Namespace)
	if err != nil {
		return
	}
	if title := r.titler.Title(v); title != "" {
		r.host.SetTitle(title)
	}
}

// Intercept registers an interceptor on the engine.
func (r *Router) Intercept(fn transition.Interceptor) (remove func()) {
	return r.engine.Intercept(fn)
}

// OnAnimation installs the animation hook.
func (r *Router) OnAnimation(hook transition.AnimationHook) {
	r.engine.SetAnimationHook(hook)
}

// On registers a handler for a global event.
func (r *Router) On(name constants.EventName, fn event.Handler) (off func()) {
	return r.engine.On(name, fn)
}

// Active returns the active view, or nil before Start.
func (r *Router) Active() *view.View {
	return r.engine.Active()
}

// View returns the view for ref without navigating. Pseudo references resolve
// to the view they currently stand for.
func (r *Router) View(ref string) (*view.View, error) {
	switch t := view.ParseTarget(ref, "").(type) {
	case view.Concrete:
		return r.registry.Get(t.Key)
	case view.Group:
		if v := r.registry.FirstOfGroup(t.Name); v != nil {
			return v, nil
		}
		return nil, &view.NotFoundError{Key: view.NewKey(t.String(), "")}
	default:
		return r.resolver.Resolve(t), nil
	}
}

// Registry returns the view registry.
func (r *Router) Registry() *view.Registry {
	return r.registry
}

// Resolver returns the view resolver.
func (r *Router) Resolver() *view.Resolver {
	return r.resolver
}

// Stack returns the navigation stack.
func (r *Router) Stack() *Stack {
	return r.stack
}

// Engine returns the transition engine.
func (r *Router) Engine() *transition.Engine {
	return r.engine
}

// Host returns the host the router writes history to.
func (r *Router) Host() host.Host {
	return r.host
}
