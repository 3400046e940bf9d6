package router

import (
	"errors"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/host"
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
	"github.com/BrandonKowalski/vista/pkg/vista/params"
	"github.com/BrandonKowalski/vista/pkg/vista/transition"
	"github.com/BrandonKowalski/vista/pkg/vista/view"
)

// HandleNotification reconciles a host history notification with the stack
// and switches to the view it names.
//
// A notification carrying a state is classified by serial: older than the
// current entry is a back move, anything else a forward move. A notification
// without state names its view through the address only; it is treated as a
// back or forward move when a neighbouring entry shows that view and as new
// navigation otherwise. An unparsable address keeps the active view.
//
// A view that no longer exists keeps the active view and drops the options.
// The trigger is app when the move was requested through Back or Forward and
// navigator otherwise.
//
// The stack follows the host immediately. When a transition is in flight the
// switch is deferred until it settles; only the latest deferred switch runs.
//
// Routers subscribe to hosts implementing host.Notifier automatically; other
// hosts call HandleNotification themselves.
func (r *Router) HandleNotification(n host.Notification) {
	trigger := constants.TriggerNavigator
	if intended, ok := r.takeIntended(); ok {
		trigger = constants.TriggerApp
		internal.GetInternalLogger().Debug("app-initiated history move", "type", intended.String())
	}

	var (
		typ     constants.SwitchType
		target  *view.View
		options map[string]string
	)

	if n.State != nil {
		typ, target, options = r.fromState(*n.State)
	} else {
		var ok bool
		typ, target, options, ok = r.fromAddress(n.Address)
		if !ok {
			return
		}
	}

	r.sync(transition.Ops{
		Target:        target,
		Type:          typ,
		Trigger:       trigger,
		WithAnimation: r.animateHistory,
		Options:       options,
	})
}

func (r *Router) sync(ops transition.Ops) {
	tr, err := r.engine.Switch(ops)
	if errors.Is(err, transition.ErrBusy) {
		internal.GetInternalLogger().Debug("history switch deferred until the current transition settles",
			"view", ops.Target.String(),
			"type", ops.Type.String())
		r.deferMu.Lock()
		if r.deferred != nil && r.deferred.Type != ops.Type {
			r.dropPending(r.deferred.Type)
		}
		r.deferred = &ops
		r.deferMu.Unlock()

		// The in-flight switch may have settled before ops was stored.
		if !r.engine.InProgress() {
			r.replayDeferred()
		}
		return
	}
	if err != nil {
		r.dropPending(ops.Type)
		return
	}

	if tr.Outcome() == transition.OutcomeSkipped || tr.Outcome() == transition.OutcomeRejected {
		r.dropPending(ops.Type)
	}
}

// replayDeferred runs the history switch held back by a busy engine. The
// engine calls it whenever a switch settles.
func (r *Router) replayDeferred() {
	r.deferMu.Lock()
	ops := r.deferred
	r.deferred = nil
	r.deferMu.Unlock()

	if ops != nil {
		r.sync(*ops)
	}
}

func (r *Router) fromState(st host.State) (constants.SwitchType, *view.View, map[string]string) {
	typ := constants.SwitchHistoryForward
	if cur, ok := r.stack.Current(); ok && st.Serial < cur.Serial {
		typ = constants.SwitchHistoryBack
	}

	target, options := r.existingOrActive(st.Key(), st.Options)
	serial := st.Serial
	r.stack.Replace(target.Key(), &serial, options)
	r.persist()
	return typ, target, options
}

func (r *Router) fromAddress(raw string) (constants.SwitchType, *view.View, map[string]string, bool) {
	addr, err := host.ParseAddress(raw)
	if err != nil {
		internal.GetInternalLogger().Debug("ignoring unparsable address", "address", raw)
		return 0, nil, nil, false
	}

	if serial, ok := r.stack.Neighbor(addr.Key()); ok {
		typ, target, options := r.fromState(host.NewState(addr.Key(), serial, addr.Options))
		return typ, target, options, true
	}

	target := r.resolver.ResolveKey(addr.Key())
	var options map[string]string
	if target.Key() == addr.Key() {
		options = addr.Options
	} else {
		internal.GetInternalLogger().Debug("address resolved to another view",
			"requested", addr.Key().String(),
			"view", target.String())
	}

	r.stack.Adopt(target.Key(), options)
	r.persist()
	return constants.SwitchNav, target, options, true
}

// existingOrActive returns the view for key, or the active view (default view
// before Start) without options when key no longer exists.
func (r *Router) existingOrActive(key view.Key, options map[string]string) (*view.View, map[string]string) {
	if v, err := r.registry.Get(key); err == nil {
		return v, options
	}

	fallback := r.engine.Active()
	if fallback == nil {
		fallback = r.registry.Default()
	}
	internal.GetInternalLogger().Warn("history entry names a view that no longer exists",
		"view", key.String(),
		"showing", fallback.String())
	return fallback, nil
}

// dropPending discards parameters left for a history move that did not enter
// a view, so they cannot leak into a later move.
func (r *Router) dropPending(typ constants.SwitchType) {
	switch typ {
	case constants.SwitchHistoryBack:
		r.params.TakePending(params.DirectionBack)
	case constants.SwitchHistoryForward:
		r.params.TakePending(params.DirectionForward)
	}
}
