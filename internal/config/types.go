// Package config implements the pattern/command configuration
// language: parsing a line-oriented source file into an ordered list
// of compiled Rule values and DeviceBinding values, plus the optional
// app-level YAML settings file and a file-watcher that reloads the
// rule configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/pedalrc/pedalrc/internal/event"
)

// ActionFilter restricts which polarity of a button a PatternElement
// accepts.
type ActionFilter int

const (
	// DownOnly accepts a press.
	DownOnly ActionFilter = iota
	// UpOnly accepts a release.
	UpOnly
	// Any accepts either polarity, whichever arrives first as the tail.
	Any
)

func (f ActionFilter) String() string {
	switch f {
	case DownOnly:
		return "v"
	case UpOnly:
		return "^"
	default:
		return ""
	}
}

// Accepts reports whether a the action satisfies the filter.
func (f ActionFilter) Accepts(a event.Action) bool {
	switch f {
	case DownOnly:
		return a == event.Down
	case UpOnly:
		return a == event.Up
	default:
		return true
	}
}

// PatternElement is one position within a rule's sequence.
type PatternElement struct {
	Button event.Button
	Filter ActionFilter
	// MaxUse caps how many times the history entry this element binds
	// to may have previously participated in other rule matches. nil
	// means no cap.
	MaxUse *uint32
}

// AcceptsUse reports whether a history entry (already known to match
// button/filter) is still eligible given its current used count.
func (p PatternElement) AcceptsUse(used uint32) bool {
	return p.MaxUse == nil || used <= *p.MaxUse
}

// Rule is one compiled (sequence, time_limit?, command) configuration
// entry, immutable after load.
type Rule struct {
	Sequence   []PatternElement
	TimeLimit  *time.Duration
	Command    string
	SourceLine int
}

// FiresOnPress reports whether the rule's last element requires a
// Down (as opposed to an Up or Any, which fire on release/either).
func (r Rule) FiresOnPress() bool {
	last := r.Sequence[len(r.Sequence)-1]
	return last.Filter == DownOnly
}

// EventCodeSpec names one evdev event code bound to a device, either a
// bare key code (EV_KEY implied) or an explicit type/code[=value]
// triple. AutoRelease marks specs whose event type is relative
// (EV_REL): the device layer synthesizes a Down immediately followed
// by an Up for these.
type EventCodeSpec struct {
	Type        uint16
	Code        uint16
	Value       *int32
	Name        string
	AutoRelease bool
}

// DeviceBinding is one `dev:` line: a device path, its ordered list of
// event codes (which become buttons 1..N when flattened across all
// bindings), and whether the device is opened non-exclusively.
type DeviceBinding struct {
	Path   string
	Codes  []EventCodeSpec
	Shared bool
}

// Registry is the full result of parsing one configuration file: the
// ordered rule list and the ordered device bindings, both immutable
// after load.
type Registry struct {
	Rules   []Rule
	Devices []DeviceBinding
}

// ParseError reports a fatal configuration problem, referencing the
// source line per spec.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}
