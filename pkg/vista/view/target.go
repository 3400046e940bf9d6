package view

import (
	"strings"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
)

// Key identifies a view. ID and Namespace are unique together.
type Key struct {
	ID        string
	Namespace string
}

// NewKey builds a Key, substituting the default namespace for an empty one.
func NewKey(id, namespace string) Key {
	if namespace == "" {
		namespace = constants.DefaultNamespace
	}
	return Key{ID: id, Namespace: namespace}
}

// IsZero reports whether the key names nothing.
func (k Key) IsZero() bool {
	return k.ID == ""
}

// String renders the key as id, or id@namespace outside the default namespace.
func (k Key) String() string {
	if k.Namespace == "" || k.Namespace == constants.DefaultNamespace {
		return k.ID
	}
	return k.ID + "@" + k.Namespace
}

// Target is a parsed view reference. The set of implementations is closed:
// Concrete, Back, Forward, DefaultView and Group.
type Target interface {
	isTarget()
	String() string
}

// Concrete names a specific view.
type Concrete struct {
	Key
}

// Back is the pseudo target for whichever view a back move lands on.
type Back struct{}

// Forward is the pseudo target for whichever view a forward move lands on.
type Forward struct{}

// DefaultView is the sentinel for the elected default view.
type DefaultView struct{}

// Group selects the first registered view carrying a group tag.
type Group struct {
	Name string
}

func (Concrete) isTarget()    {}
func (Back) isTarget()        {}
func (Forward) isTarget()     {}
func (DefaultView) isTarget() {}
func (Group) isTarget()       {}

func (Back) String() string        { return constants.RefBack }
func (Forward) String() string     { return constants.RefForward }
func (DefaultView) String() string { return constants.RefDefaultView }
func (g Group) String() string     { return constants.GroupPrefix + g.Name }

// ParseTarget converts a string reference into a Target.
//
// Recognized forms:
//
//	:back            Back
//	:forward         Forward
//	:default-view    DefaultView
//	~name            Group{Name: "name"}
//	id               Concrete in the given namespace
//	id@namespace     Concrete in an explicit namespace
//
// An empty reference returns nil.
func ParseTarget(ref, namespace string) Target {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil
	case ref == constants.RefBack:
		return Back{}
	case ref == constants.RefForward:
		return Forward{}
	case ref == constants.RefDefaultView:
		return DefaultView{}
	case strings.HasPrefix(ref, constants.GroupPrefix):
		return Group{Name: strings.TrimPrefix(ref, constants.GroupPrefix)}
	}

	if id, ns, ok := strings.Cut(ref, "@"); ok {
		return Concrete{NewKey(id, ns)}
	}
	return Concrete{NewKey(ref, namespace)}
}
