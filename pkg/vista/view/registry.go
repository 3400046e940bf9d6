package view

import (
	"sync"

	"golang.org/x/text/cases"

	"github.com/BrandonKowalski/vista/pkg/vista/internal"
)

// Registry owns every known view, keyed by (id, namespace).
// Views are constructed on first reference from the Source and never removed.
// Iteration order is registration order.
type Registry struct {
	mu          sync.RWMutex
	source      Source
	views       map[Key]*View
	order       []*View
	defaultView *View
}

// NewRegistry creates an empty registry backed by source.
// Call Init to register the source snapshot and elect the default view.
func NewRegistry(source Source) *Registry {
	return &Registry{
		source: source,
		views:  make(map[Key]*View),
	}
}

// Init registers every declaration of the source snapshot in order and elects
// the default view. The first declaration flagged default wins and later flags
// are stripped; when none is flagged the first registered view is promoted.
// Calling Init again only registers declarations added since.
func (r *Registry) Init() error {
	decls := r.source.Declarations()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range decls {
		if _, ok := r.views[d.Key()]; ok {
			continue
		}
		r.register(d)
	}

	if len(r.order) == 0 {
		return ErrNoViews
	}

	if r.defaultView == nil {
		r.defaultView = r.order[0]
		r.defaultView.isDefault.Store(true)
		internal.GetInternalLogger().Info("no default view declared, promoting first view",
			"view", r.defaultView.String())
	}
	return nil
}

// register must be called with r.mu held.
func (r *Registry) register(d Declaration) *View {
	v := newView(d)
	if d.Default {
		if r.defaultView == nil {
			r.defaultView = v
			v.isDefault.Store(true)
		} else {
			internal.GetInternalLogger().Warn("multiple default views declared, ignoring",
				"view", v.String(),
				"default", r.defaultView.String())
		}
	}
	r.views[v.key] = v
	r.order = append(r.order, v)
	return v
}

// OfID returns the view for (id, namespace), constructing it from the source
// on first reference. An empty namespace means the default namespace.
func (r *Registry) OfID(id, namespace string) (*View, error) {
	return r.Get(NewKey(id, namespace))
}

// Get is OfID for an already built Key.
func (r *Registry) Get(key Key) (*View, error) {
	r.mu.RLock()
	v, ok := r.views[key]
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	d, ok := r.source.Lookup(key)
	if !ok {
		return nil, &NotFoundError{Key: key}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have registered it between the locks.
	if v, ok := r.views[key]; ok {
		return v, nil
	}
	return r.register(d), nil
}

// Exists reports whether (id, namespace) is registered or declared.
// It never constructs a view.
func (r *Registry) Exists(id, namespace string) bool {
	return r.Has(NewKey(id, namespace))
}

// Has is Exists for an already built Key.
func (r *Registry) Has(key Key) bool {
	if key.IsZero() {
		return false
	}

	r.mu.RLock()
	_, ok := r.views[key]
	r.mu.RUnlock()
	if ok {
		return true
	}

	_, ok = r.source.Lookup(key)
	return ok
}

// List returns registered views in registration order. A non-empty filter
// keeps only views whose group tag matches it case-insensitively.
func (r *Registry) List(filter string) []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if filter == "" {
		out := make([]*View, len(r.order))
		copy(out, r.order)
		return out
	}

	fold := cases.Fold()
	want := fold.String(filter)

	var out []*View
	for _, v := range r.order {
		if v.group != "" && fold.String(v.group) == want {
			out = append(out, v)
		}
	}
	return out
}

// FirstOfGroup returns the first registered view tagged with name, or nil.
func (r *Registry) FirstOfGroup(name string) *View {
	if name == "" {
		return nil
	}
	matches := r.List(name)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Default returns the elected default view, or nil before Init.
func (r *Registry) Default() *View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultView
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
