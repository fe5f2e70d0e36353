// Package history implements the ordered, append-mostly event log the
// matcher scans when deciding which rule fires. It owns no I/O and
// calls no wall clock; every timestamp it stores was handed to it by
// the caller, which keeps it deterministic and trivially testable.
package history

import "github.com/pedalrc/pedalrc/internal/event"

// Entry wraps a ButtonEvent with the usage counter the matcher
// maintains while scanning rules against it.
type Entry struct {
	Event event.ButtonEvent
	Used  uint32
}

// History is the ordered, chronological-by-insertion sequence of
// Entry values. It is owned exclusively by the matcher.
type History struct {
	entries []Entry
}

// New returns an empty History.
func New() *History {
	return &History{}
}

// Append adds a new Entry for ev at the tail with Used starting at 0.
func (h *History) Append(ev event.ButtonEvent) *Entry {
	h.entries = append(h.entries, Entry{Event: ev})
	return &h.entries[len(h.entries)-1]
}

// Snapshot exposes the current ordered entries read-only to the
// matcher. The returned slice aliases internal storage and must not be
// mutated by the caller; use MarkUsed to bump a counter.
func (h *History) Snapshot() []Entry {
	return h.entries
}

// Len reports the number of entries currently retained.
func (h *History) Len() int {
	return len(h.entries)
}

// MarkUsed increments the Used counter of the entry at index i.
func (h *History) MarkUsed(i int) {
	h.entries[i].Used++
}

// ReleasePop is invoked once the matcher has fully processed an Up
// event for button b: it was just appended as the new tail. Remove
// that Up, then — only if nothing else separates them in history —
// remove the most recent Down of the same button directly above it.
// If other buttons' entries intervene, the Down stays live for future
// matches.
func (h *History) ReleasePop(b event.Button) {
	n := len(h.entries)
	if n == 0 || h.entries[n-1].Event.Button != b || h.entries[n-1].Event.Action != event.Up {
		return
	}
	h.entries = h.entries[:n-1]

	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if e.Event.Button != b {
			return
		}
		if e.Event.Action == event.Down {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

// TailTrim drops trailing entries whose button is currently released
// (per pressed) and whose Used counter has reached ceiling, bounding
// history growth without disturbing any entry still "live" as an
// anchor for future combination matches.
func (h *History) TailTrim(pressed func(event.Button) bool, ceiling uint32) {
	i := len(h.entries)
	for i > 0 {
		e := h.entries[i-1]
		if pressed(e.Event.Button) || e.Used < ceiling {
			break
		}
		i--
	}
	h.entries = h.entries[:i]
}

// TrimBounded enforces a soft cap on history size: once cap is
// exceeded, drop the oldest entries whose button is not currently
// held. Held entries are never dropped, since a live Down must remain
// available to anchor future matches.
func (h *History) TrimBounded(pressed func(event.Button) bool, cap int) {
	for len(h.entries) > cap {
		dropped := false
		for i := 0; i < len(h.entries); i++ {
			if !pressed(h.entries[i].Event.Button) {
				h.entries = append(h.entries[:i], h.entries[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			return
		}
	}
}
