package view

import "strings"

// Accessibility is the tri-state directly-accessible flag of a view.
type Accessibility int

const (
	AccessInherit Accessibility = iota // Use the global setting
	AccessAllowed                      // Always enterable from an external request
	AccessDenied                       // Redirected through the fallback chain
)

// ParseAccessibility reads the declaration form of the flag.
// Empty and unrecognized values inherit.
func ParseAccessibility(raw string) Accessibility {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return AccessAllowed
	case "false", "no", "0":
		return AccessDenied
	default:
		return AccessInherit
	}
}

func (a Accessibility) String() string {
	switch a {
	case AccessAllowed:
		return "true"
	case AccessDenied:
		return "false"
	default:
		return "inherit"
	}
}

// Declaration is the read-only description of a view supplied by discovery.
type Declaration struct {
	ID         string
	Namespace  string // empty means the default namespace
	Default    bool
	Accessible Accessibility
	Fallback   string // raw reference, see ParseTarget
	Group      string
	Title      string
}

// Key returns the identity the declaration describes.
func (d Declaration) Key() Key {
	return NewKey(d.ID, d.Namespace)
}

// Source supplies view declarations: a snapshot taken at initialization plus
// any declarations added later.
type Source interface {
	Declarations() []Declaration
	Lookup(key Key) (Declaration, bool)
}

// StaticSource is a fixed, in-code Source.
type StaticSource []Declaration

func (s StaticSource) Declarations() []Declaration {
	return s
}

func (s StaticSource) Lookup(key Key) (Declaration, bool) {
	for _, d := range s {
		if d.Key() == key {
			return d, true
		}
	}
	return Declaration{}, false
}
