// Package constants defines shared constants, types, and configuration values
// used throughout the vista view switching framework.
package constants

import (
	"os"
	"strings"
)

// Development is the environment variable value for development mode.
const Development = "DEV"

// Environment variables read during initialization.
const (
	EnvironmentEnvVar = "VISTA_ENVIRONMENT" // DEV enables debug internal logging
	LogLevelEnvVar    = "VISTA_LOG_LEVEL"   // Overrides Options.LogLevel
	LocaleEnvVar      = "VISTA_LOCALE"      // Overrides Options.Locale
)

// IsDevMode returns true if running in development mode (VISTA_ENVIRONMENT=DEV).
func IsDevMode() bool {
	return os.Getenv(EnvironmentEnvVar) == Development
}

// DefaultNamespace is the namespace used when a view declaration or a
// reference omits one.
const DefaultNamespace = "default"

// Reserved view references. They never name a real view.
const (
	RefBack        = ":back"
	RefForward     = ":forward"
	RefDefaultView = ":default-view"
	GroupPrefix    = "~"
)

// SwitchType classifies a transition.
type SwitchType int

const (
	SwitchNav            SwitchType = iota // In-app navigation that grows history
	SwitchChange                           // In-place replacement of the current entry
	SwitchHistoryBack                      // Host moved back in history
	SwitchHistoryForward                   // Host moved forward in history
)

// String returns the wire name of the switch type.
func (t SwitchType) String() string {
	switch t {
	case SwitchChange:
		return "change"
	case SwitchHistoryBack:
		return "history.back"
	case SwitchHistoryForward:
		return "history.forward"
	default:
		return "nav"
	}
}

// IsHistory reports whether the switch was produced by a history move.
func (t SwitchType) IsHistory() bool {
	return t == SwitchHistoryBack || t == SwitchHistoryForward
}

// Normalize coerces unrecognized values to SwitchNav.
func (t SwitchType) Normalize() SwitchType {
	switch t {
	case SwitchNav, SwitchChange, SwitchHistoryBack, SwitchHistoryForward:
		return t
	default:
		return SwitchNav
	}
}

// ParseSwitchType parses a wire name. Unrecognized values coerce to SwitchNav.
func ParseSwitchType(raw string) SwitchType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "change":
		return SwitchChange
	case "history.back", "back":
		return SwitchHistoryBack
	case "history.forward", "forward":
		return SwitchHistoryForward
	default:
		return SwitchNav
	}
}

// Trigger tells who initiated a transition.
type Trigger int

const (
	TriggerApp       Trigger = iota // Application code called the router
	TriggerNavigator                // The host navigation controls (back button, address bar)
)

func (t Trigger) String() string {
	if t == TriggerNavigator {
		return "navigator"
	}
	return "app"
}

// EventName identifies a lifecycle or global event.
type EventName string

// Global events.
const (
	EventBeforeChange  EventName = "beforechange"
	EventChange        EventName = "change"
	EventAfterChange   EventName = "afterchange"
	EventViewNotExists EventName = "viewnotexist"
)

// Per-view events.
const (
	EventBeforeEnter EventName = "beforeenter"
	EventReady       EventName = "ready"
	EventEnter       EventName = "enter"
	EventAfterEnter  EventName = "afterenter"
	EventLeave       EventName = "leave"
)
