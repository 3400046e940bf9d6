package host

// Host is the environment's navigation history.
//
// PushState appends an entry after the current one, discarding any forward
// entries. ReplaceState updates the current entry in place. Back and Forward
// ask the host to move; the host answers later with a Notification.
type Host interface {
	PushState(state State, address string)
	ReplaceState(state State, address string)
	Address() string
	Back()
	Forward()
	SetTitle(title string)
}

// Notification is what the host sends after its current history entry changed
// under the user's or the application's request.
// State is nil when the host did not keep a state payload for the entry, for
// example after the user typed a new address.
type Notification struct {
	State   *State
	Address string
}

// Listener receives host notifications.
type Listener func(Notification)

// Notifier is implemented by hosts that deliver notifications to a listener.
type Notifier interface {
	Notify(fn Listener)
}

// Restorer is implemented by hosts whose history can be rebuilt from saved
// states, e.g. when a session is restored.
type Restorer interface {
	Restore(states []State, cursor int)
}
