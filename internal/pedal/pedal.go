// Package pedal tracks the current pressed/released state of every
// known button. It is consulted by the matcher and mutated by nothing
// else.
package pedal

import "github.com/pedalrc/pedalrc/internal/event"

// State is a mapping from button to pressed/released, owned
// exclusively by the matcher.
type State struct {
	pressed map[event.Button]bool
}

// NewState returns an empty State; every button starts released.
func NewState() *State {
	return &State{pressed: make(map[event.Button]bool)}
}

// Set records a Down or Up for button b.
func (s *State) Set(b event.Button, down bool) {
	s.pressed[b] = down
}

// Pressed reports whether b is currently held. Unknown buttons are
// reported as released.
func (s *State) Pressed(b event.Button) bool {
	return s.pressed[b]
}
