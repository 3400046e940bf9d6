// Package evdev drives a host's history from hardware back and forward keys
// read from Linux input devices, for handhelds and remotes without a
// windowing system.
package evdev

import "time"

// Action is a history move requested by a key.
type Action int

const (
	ActionNone Action = iota
	ActionBack
	ActionForward
)

// String returns a string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionBack:
		return "back"
	case ActionForward:
		return "forward"
	default:
		return ""
	}
}

// KeyRepeat tracks held history keys and handles repeat timing, so holding
// back walks through history at a steady pace instead of the device's own
// repeat rate.
type KeyRepeat struct {
	held struct {
		back, forward bool
	}
	lastRepeatTime time.Time
	repeatDelay    time.Duration
	repeatInterval time.Duration
	hasRepeated    bool
}

// NewKeyRepeat creates a KeyRepeat with default timing.
// Default delay is 500ms before the first repeat, then 250ms between repeats.
func NewKeyRepeat() KeyRepeat {
	return NewKeyRepeatWithTiming(500*time.Millisecond, 250*time.Millisecond)
}

// NewKeyRepeatWithTiming creates a KeyRepeat with custom timing.
// A zero delay disables repeating.
func NewKeyRepeatWithTiming(delay, interval time.Duration) KeyRepeat {
	return KeyRepeat{
		repeatDelay:    delay,
		repeatInterval: interval,
	}
}

// Press records a key press at now and reports the action to run right away.
// Presses of a key already held are ignored.
func (k *KeyRepeat) Press(a Action, now time.Time) Action {
	if k.isHeld(a) {
		return ActionNone
	}
	k.setHeld(a, true)
	k.hasRepeated = false
	k.lastRepeatTime = now
	return a
}

// Release records a key release.
func (k *KeyRepeat) Release(a Action) {
	k.setHeld(a, false)
	if !k.IsHeld() {
		k.hasRepeated = false
	}
}

// IsHeld returns true if any history key is held.
func (k *KeyRepeat) IsHeld() bool {
	return k.held.back || k.held.forward
}

// HeldAction returns the held action. Back wins when both are held.
func (k *KeyRepeat) HeldAction() Action {
	if k.held.back {
		return ActionBack
	}
	if k.held.forward {
		return ActionForward
	}
	return ActionNone
}

// Update checks if a repeat should fire at now. Call it on every tick.
// The first repeat occurs after the delay, subsequent ones after the interval.
func (k *KeyRepeat) Update(now time.Time) Action {
	if !k.IsHeld() || k.repeatDelay <= 0 {
		return ActionNone
	}

	threshold := k.repeatInterval
	if !k.hasRepeated {
		threshold = k.repeatDelay
	}

	if now.Sub(k.lastRepeatTime) >= threshold {
		k.lastRepeatTime = now
		k.hasRepeated = true
		return k.HeldAction()
	}
	return ActionNone
}

// Reset clears all held keys.
func (k *KeyRepeat) Reset() {
	k.held.back = false
	k.held.forward = false
	k.hasRepeated = false
}

func (k *KeyRepeat) isHeld(a Action) bool {
	switch a {
	case ActionBack:
		return k.held.back
	case ActionForward:
		return k.held.forward
	}
	return false
}

func (k *KeyRepeat) setHeld(a Action, held bool) {
	switch a {
	case ActionBack:
		k.held.back = held
	case ActionForward:
		k.held.forward = held
	}
}
