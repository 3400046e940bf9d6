//go:build linux

package evdev

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holoplot/go-evdev"

	"github.com/BrandonKowalski/vista/pkg/vista/internal"
)

// History is the part of a host the keys drive. host.Host satisfies it.
type History interface {
	Back()
	Forward()
}

// Keymap maps key codes to history moves.
type Keymap map[evdev.EvCode]Action

// DefaultKeymap covers media remotes and the side buttons of mice.
var DefaultKeymap = Keymap{
	evdev.KEY_BACK:    ActionBack,
	evdev.KEY_FORWARD: ActionForward,
	evdev.BTN_SIDE:    ActionBack,
	evdev.BTN_EXTRA:   ActionForward,
}

const tickInterval = 16 * time.Millisecond

// Option configures a Device.
type Option func(*Device)

// WithKeymap replaces DefaultKeymap.
func WithKeymap(k Keymap) Option {
	return func(d *Device) {
		d.keymap = k
	}
}

// WithRepeat replaces the default repeat timing.
func WithRepeat(delay, interval time.Duration) Option {
	return func(d *Device) {
		d.repeat = NewKeyRepeatWithTiming(delay, interval)
	}
}

// WithGrab takes exclusive access of the device so other readers do not see
// its keys.
func WithGrab() Option {
	return func(d *Device) {
		d.grab = true
	}
}

// Device turns key events from an input device into history moves.
type Device struct {
	input  *evdev.InputDevice
	target History
	keymap Keymap
	repeat KeyRepeat
	grab   bool
}

// Open opens the input device at path, e.g. /dev/input/event3.
func Open(path string, target History, opts ...Option) (*Device, error) {
	input, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("evdev: open %s: %w", path, err)
	}

	d := newDevice(target, opts...)
	d.input = input

	if d.grab {
		if err := input.Grab(); err != nil {
			input.Close()
			return nil, fmt.Errorf("evdev: grab %s: %w", path, err)
		}
	}

	if name, err := input.Name(); err == nil {
		internal.GetInternalLogger().Info("history keys attached", "device", name, "path", path)
	}
	return d, nil
}

// FindHistoryDevices lists input devices able to emit at least one key of
// DefaultKeymap.
func FindHistoryDevices() ([]string, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("evdev: list devices: %w", err)
	}

	var found []string
	for _, p := range paths {
		input, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		for _, code := range input.CapableEvents(evdev.EV_KEY) {
			if _, ok := DefaultKeymap[code]; ok {
				found = append(found, p.Path)
				break
			}
		}
		input.Close()
	}
	return found, nil
}

func newDevice(target History, opts ...Option) *Device {
	d := &Device{
		target: target,
		keymap: DefaultKeymap,
		repeat: NewKeyRepeat(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run reads events until ctx is done or the device fails. The device is
// closed on return.
func (d *Device) Run(ctx context.Context) error {
	events := make(chan *evdev.InputEvent)
	failed := make(chan error, 1)

	go func() {
		for {
			ev, err := d.input.ReadOne()
			if err != nil {
				failed <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	defer d.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-failed:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("evdev: read: %w", err)
		case ev := <-events:
			d.handle(ev, time.Now())
		case now := <-ticker.C:
			d.dispatch(d.repeat.Update(now))
		}
	}
}

// Close releases the device.
func (d *Device) Close() error {
	if d.input == nil {
		return nil
	}
	if d.grab {
		d.input.Ungrab()
	}
	return d.input.Close()
}

func (d *Device) handle(ev *evdev.InputEvent, now time.Time) {
	if ev.Type != evdev.EV_KEY {
		return
	}
	a, ok := d.keymap[ev.Code]
	if !ok {
		return
	}

	switch ev.Value {
	case 1:
		d.dispatch(d.repeat.Press(a, now))
	case 0:
		d.repeat.Release(a)
	}
	// Value 2 is the kernel's own autorepeat; KeyRepeat paces repeats instead.
}

func (d *Device) dispatch(a Action) {
	switch a {
	case ActionBack:
		internal.GetInternalLogger().Debug("hardware back")
		d.target.Back()
	case ActionForward:
		internal.GetInternalLogger().Debug("hardware forward")
		d.target.Forward()
	}
}
