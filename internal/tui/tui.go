// Package tui implements the optional --debug live history view,
// generalizing pypedal's click.secho-colored HistoryEntry rendering
// (green for a press, red for a release, a trailing used-count) into
// Go with github.com/fatih/color. It only reads a matcher snapshot —
// never the matcher's internal state directly — so it cannot disturb
// the ownership the matcher holds over history and pedal state.
package tui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/pedalrc/pedalrc/internal/event"
	"github.com/pedalrc/pedalrc/internal/history"
)

// Snapshotter is the read-only view the debug view polls; satisfied
// by *matcher.Matcher.
type Snapshotter interface {
	Snapshot() []history.Entry
}

var (
	pressColor   = color.New(color.FgGreen)
	releaseColor = color.New(color.FgRed)
)

// WriteHistory takes a fresh snapshot from src and renders it to w,
// one line per entry, in the style "HH:MM:SS.mmm B3 pressed  (used:1)",
// pressed in green and released in red.
func WriteHistory(w io.Writer, src Snapshotter) {
	for _, e := range src.Snapshot() {
		writeEntry(w, e)
	}
}

func writeEntry(w io.Writer, e history.Entry) {
	ts := e.Event.Time.Format("15:04:05.000")
	label := "pressed "
	c := pressColor
	if e.Event.Action == event.Up {
		label = "released"
		c = releaseColor
	}
	fmt.Fprintf(w, "%s B%d %s (used:%d)\n", ts, e.Event.Button, c.Sprint(label), e.Used)
}
