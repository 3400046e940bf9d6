package view

import (
	"github.com/BrandonKowalski/vista/pkg/vista/internal"
)

// MaxFallbackHops caps the length of a fallback walk. A chain longer than
// this lands on the default view as if it were a cycle.
const MaxFallbackHops = 32

// Resolver decides which view must actually be displayed for a request.
//
// Accessibility is a display policy for external requests (typed addresses,
// deep links). In-app navigation does not go through the resolver's
// accessibility walk.
type Resolver struct {
	registry      *Registry
	active        func() *View
	allAccessible bool
}

// NewResolver creates a resolver. active reports the currently active view and
// may return nil. allAccessible is the global accessibility flag applied to
// views that do not set their own.
func NewResolver(registry *Registry, active func() *View, allAccessible bool) *Resolver {
	if active == nil {
		active = func() *View { return nil }
	}
	return &Resolver{
		registry:      registry,
		active:        active,
		allAccessible: allAccessible,
	}
}

// Resolve returns the view to display for target.
//
// Empty, pseudo and unknown targets resolve to the active view, or the default
// view when nothing is active. A known view that is not directly accessible is
// replaced by the first accessible view on its fallback chain.
func (r *Resolver) Resolve(target Target) *View {
	var candidate *View

	switch t := target.(type) {
	case DefaultView:
		return r.registry.Default()
	case Group:
		candidate = r.registry.FirstOfGroup(t.Name)
	case Concrete:
		if v, err := r.registry.Get(t.Key); err == nil {
			candidate = v
		}
	}

	if candidate == nil {
		return r.current()
	}
	return r.walk(candidate)
}

// ResolveKey is Resolve for a concrete key.
func (r *Resolver) ResolveKey(key Key) *View {
	return r.Resolve(Concrete{key})
}

func (r *Resolver) current() *View {
	if v := r.active(); v != nil {
		return v
	}
	return r.registry.Default()
}

func (r *Resolver) walk(start *View) *View {
	log := internal.GetInternalLogger()
	def := r.registry.Default()
	visited := make(map[Key]struct{})

	v := start
	for hops := 0; ; hops++ {
		if v == def || v.DirectlyAccessible(r.allAccessible) {
			return v
		}
		if hops >= MaxFallbackHops {
			log.Warn("fallback chain too long, using default view",
				"start", start.String(),
				"hops", hops)
			return def
		}
		visited[v.key] = struct{}{}

		next := r.follow(v.fallback)
		if next == nil {
			return def
		}
		if _, seen := visited[next.key]; seen {
			log.Warn("fallback cycle detected, using default view",
				"start", start.String(),
				"repeated", next.String())
			return def
		}
		v = next
	}
}

// follow returns the view a single fallback hop leads to, or nil when the hop
// leads nowhere and the default view should be used.
func (r *Resolver) follow(fallback Target) *View {
	switch t := fallback.(type) {
	case DefaultView:
		return r.registry.Default()
	case Group:
		return r.registry.FirstOfGroup(t.Name)
	case Concrete:
		v, err := r.registry.Get(t.Key)
		if err != nil {
			internal.GetInternalLogger().Warn("fallback references missing view",
				"target", t.Key.String())
			return nil
		}
		return v
	default:
		return nil
	}
}
