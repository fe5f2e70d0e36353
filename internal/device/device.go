// Package device bridges raw evdev input devices to the normalized
// button vocabulary the matcher understands: it opens each configured
// device, grabs it exclusively unless shared, assigns flattened button
// numbers in device-then-code declaration order, and fans every
// device's reader goroutine into one ordered channel. It generalizes
// texpand's keyboard.go — FindKeyboards/MonitorKeyboard — from a fixed
// "has KEY_A and KEY_ENTER" keyboard probe and a single fixed KeyEvent
// shape into an arbitrary set of configured (path, codes) bindings.
package device

import (
	"fmt"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/rs/zerolog"

	"github.com/pedalrc/pedalrc/internal/config"
	"github.com/pedalrc/pedalrc/internal/event"
)

// binding pairs an open device with the button numbers assigned to
// each of its configured event codes, indexed the same way as
// config.DeviceBinding.Codes.
type binding struct {
	dev     *evdev.InputDevice
	path    string
	codes   []config.EventCodeSpec
	buttons []event.Button
	shared  bool
}

// Source owns a set of open evdev devices and emits normalized button
// events on a single ordered channel until Close is called or every
// device is lost.
type Source struct {
	bindings []binding
	events   chan event.ButtonEvent
	lost     chan error
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// Open resolves each DeviceBinding against the kernel's evdev nodes,
// assigning flattened 1-based button numbers in declaration order
// (device order, then code order within a device) — the numbering
// rule the pattern grammar's bare integers refer to. It grabs each
// device exclusively (EVIOCGRAB) unless the binding is marked shared,
// mirroring texpand's one-goroutine-per-device model but generalized
// to configured paths instead of a fixed keyboard probe.
func Open(bindings []config.DeviceBinding, log zerolog.Logger) (*Source, error) {
	s := &Source{
		events: make(chan event.ButtonEvent, 64),
		lost:   make(chan error, 1),
		log:    log,
	}

	assigned := flattenButtons(bindings)
	for i, b := range bindings {
		dev, err := evdev.Open(b.Path)
		if err != nil {
			s.closeOpened()
			return nil, fmt.Errorf("open device %s: %w", b.Path, err)
		}
		if !b.Shared {
			if err := dev.Grab(); err != nil {
				dev.Close()
				s.closeOpened()
				return nil, fmt.Errorf("grab device %s: %w", b.Path, err)
			}
		}

		s.bindings = append(s.bindings, binding{
			dev:     dev,
			path:    b.Path,
			codes:   b.Codes,
			buttons: assigned[i],
			shared:  b.Shared,
		})
	}

	for i := range s.bindings {
		s.wg.Add(1)
		go s.monitor(&s.bindings[i])
	}

	return s, nil
}

// flattenButtons assigns each binding's codes consecutive 1-based
// button numbers, in device order then code order within a device —
// the numbering rule the pattern grammar's bare integers refer to.
// Pure and deterministic so it can be tested without opening any
// device.
func flattenButtons(bindings []config.DeviceBinding) [][]event.Button {
	out := make([][]event.Button, len(bindings))
	next := event.Button(1)
	for i, b := range bindings {
		buttons := make([]event.Button, len(b.Codes))
		for j := range b.Codes {
			buttons[j] = next
			next++
		}
		out[i] = buttons
	}
	return out
}

func (s *Source) closeOpened() {
	for _, b := range s.bindings {
		b.dev.Close()
	}
	s.bindings = nil
}

// Events returns the channel normalized button transitions are
// delivered on, in arrival order across all devices.
func (s *Source) Events() <-chan event.ButtonEvent {
	return s.events
}

// Lost delivers at most one error when a device read fails (EOF, EIO,
// unplugged) — a fatal condition per the device layer's contract: the
// matcher never sees device-level errors, only the caller orchestrating
// shutdown does.
func (s *Source) Lost() <-chan error {
	return s.lost
}

// Close closes every underlying device and waits for their reader
// goroutines to exit.
func (s *Source) Close() {
	for _, b := range s.bindings {
		b.dev.Close()
	}
	s.wg.Wait()
}

// monitor reads one device's raw evdev stream, translates EV_KEY
// value 1/0 into Down/Up (dropping autorepeat value 2), synthesizes a
// Down immediately followed by an Up for any code flagged AutoRelease
// (a relative axis motion, which the kernel never explicitly
// "releases"), and forwards the normalized events on the shared
// channel. Exits and reports loss when ReadOne fails.
func (s *Source) monitor(b *binding) {
	defer s.wg.Done()
	for {
		raw, err := b.dev.ReadOne()
		if err != nil {
			s.log.Error().Err(err).Str("device", b.path).Msg("device lost")
			select {
			case s.lost <- fmt.Errorf("device %s lost: %w", b.path, err):
			default:
			}
			return
		}

		btn, spec, ok := b.lookup(uint16(raw.Type), uint16(raw.Code), raw.Value)
		if !ok {
			continue
		}

		// The device layer is the one place allowed to touch the wall
		// clock: everything above it (history, matcher) takes
		// timestamps as parameters so it stays deterministic to test.
		now := time.Now()

		if spec.AutoRelease {
			if raw.Value == 0 {
				continue
			}
			s.events <- event.ButtonEvent{Button: btn, Action: event.Down, Time: now}
			s.events <- event.ButtonEvent{Button: btn, Action: event.Up, Time: now}
			continue
		}

		switch raw.Value {
		case 1:
			s.events <- event.ButtonEvent{Button: btn, Action: event.Down, Time: now}
		case 0:
			s.events <- event.ButtonEvent{Button: btn, Action: event.Up, Time: now}
		default:
			// Autorepeat (2) carries no polarity change; drop it.
		}
	}
}

// lookup resolves a raw (type, code, value) triple to the button bound
// to it. A spec with no declared Value matches any value for that
// (type, code); a spec with a declared Value (the "type/code=value"
// grammar) only matches events carrying that exact signed value — the
// mechanism that lets two REL_WHEEL bindings on the same axis resolve
// to different buttons for scroll-up (=1) versus scroll-down (=-1).
func (b *binding) lookup(typ, code uint16, value int32) (event.Button, config.EventCodeSpec, bool) {
	for i, spec := range b.codes {
		if spec.Type != typ || spec.Code != code {
			continue
		}
		if spec.Value != nil && *spec.Value != value {
			continue
		}
		return b.buttons[i], spec, true
	}
	return 0, config.EventCodeSpec{}, false
}
