// Package event defines the small, dependency-free vocabulary shared by
// every other package in the matcher: the button identifier, the
// action polarity, and the normalized event the device layer delivers.
package event

import "time"

// Button is an opaque positive integer assigned by the device layer.
// The core never interprets its value beyond equality.
type Button int

// Action is the polarity of a button transition.
type Action int

const (
	// Down is a press.
	Down Action = iota
	// Up is a release.
	Up
)

func (a Action) String() string {
	if a == Down {
		return "v"
	}
	return "^"
}

// ButtonEvent is a single normalized transition delivered by the
// device layer into the matcher. Immutable once created.
type ButtonEvent struct {
	Button Button
	Action Action
	Time   time.Time
}
