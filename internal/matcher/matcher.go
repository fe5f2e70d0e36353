// Package matcher implements the core dispatch algorithm: for every
// incoming button event, update pedal state, append to history, scan
// compiled rules in declaration order for a tail-aligned match, fire
// every rule that matches, then run release cleanup and bounded
// growth. The matcher is synchronous and single-threaded with respect
// to its own state — one call to Handle completes before the next may
// begin.
package matcher

import (
	"github.com/rs/zerolog"

	"github.com/pedalrc/pedalrc/internal/config"
	"github.com/pedalrc/pedalrc/internal/event"
	"github.com/pedalrc/pedalrc/internal/history"
	"github.com/pedalrc/pedalrc/internal/pedal"
)

// DefaultHistoryCap is the soft cap on retained history entries used
// when no override is configured.
const DefaultHistoryCap = 256

// DefaultTailTrimCeiling is the used-count threshold the optional
// tail_trim compaction step applies: a released, spent entry this
// many times reused by other rules is eligible to drop even before
// the hard history cap is hit.
const DefaultTailTrimCeiling = 1

// Sink is the one-method capability the matcher hands fired commands
// to. It must not call back into the matcher.
type Sink interface {
	Dispatch(cmd string) error
}

// Matcher owns history and pedal state exclusively; no external
// component may mutate them.
type Matcher struct {
	rules []config.Rule
	hist  *history.History
	pedal *pedal.State
	sink  Sink
	cap   int
	log   zerolog.Logger
}

// New builds a Matcher for rules, dispatching fired commands to sink.
// cap is the soft history-size ceiling enforced once bounded growth
// kicks in; pass DefaultHistoryCap when no override is configured.
func New(rules []config.Rule, sink Sink, cap int, log zerolog.Logger) *Matcher {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &Matcher{
		rules: rules,
		hist:  history.New(),
		pedal: pedal.NewState(),
		sink:  sink,
		cap:   cap,
		log:   log,
	}
}

// Snapshot exposes the current history for read-only inspection
// (--debug history view); callers must not mutate the returned slice.
func (m *Matcher) Snapshot() []history.Entry {
	return m.hist.Snapshot()
}

// Handle processes one normalized button event end to end: ingest,
// rule scan, commit, release cleanup, bounded growth.
func (m *Matcher) Handle(ev event.ButtonEvent) {
	m.pedal.Set(ev.Button, ev.Action == event.Down)
	m.hist.Append(ev)

	snap := m.hist.Snapshot()
	tail := len(snap) - 1

	for _, r := range m.rules {
		if !lastElementFires(r, ev.Action) {
			continue
		}
		indices, ok := tailAlignedMatch(r.Sequence, snap, tail)
		if !ok {
			continue
		}
		if r.TimeLimit != nil {
			elapsed := ev.Time.Sub(snap[indices[0]].Event.Time)
			if elapsed > *r.TimeLimit {
				continue
			}
		}
		for _, idx := range indices {
			m.hist.MarkUsed(idx)
		}
		if err := m.sink.Dispatch(r.Command); err != nil {
			m.log.Warn().Err(err).Str("command", r.Command).Msg("command sink reported failure")
		}
	}

	if ev.Action == event.Up {
		m.hist.ReleasePop(ev.Button)
	}

	m.hist.TailTrim(m.pedal.Pressed, DefaultTailTrimCeiling)
	m.hist.TrimBounded(m.pedal.Pressed, m.cap)
}

// lastElementFires reports whether a rule's last pattern element
// admits the just-arrived action: DownOnly only on Down, UpOnly only
// on Up, Any on either polarity at the moment it arrives.
func lastElementFires(r config.Rule, a event.Action) bool {
	last := r.Sequence[len(r.Sequence)-1]
	return last.Filter.Accepts(a)
}

// tailAlignedMatch aligns the rule's last element with snap[tail] and
// walks the remaining elements right to left, picking for each the
// rightmost unmatched history entry that accepts it (greedy-from-tail:
// a fresh press is preferred over an older already-used one). Returns
// the matched indices in sequence order, or ok=false if no injection
// exists.
func tailAlignedMatch(seq []config.PatternElement, snap []history.Entry, tail int) ([]int, bool) {
	n := len(seq)
	indices := make([]int, n)

	last := seq[n-1]
	if !elementMatches(last, snap[tail]) || alreadyFiredThisEngagement(last, snap, tail) {
		return nil, false
	}
	indices[n-1] = tail

	cursor := tail - 1
	for i := n - 2; i >= 0; i-- {
		el := seq[i]
		found := -1
		for j := cursor; j >= 0; j-- {
			if elementMatches(el, snap[j]) {
				found = j
				break
			}
		}
		if found == -1 {
			return nil, false
		}
		indices[i] = found
		cursor = found - 1
	}
	return indices, true
}

// alreadyFiredThisEngagement guards an Any-filtered tail element
// against firing twice for the same press/release pair: a button's
// Up is refused as the tail when the entry immediately before it in
// history is a Down of the same button whose Used counter is already
// non-zero. Down arrivals are never suppressed. Only that immediate
// predecessor is examined: when another button's entry lies between
// the Up and its Down, the Up is not suppressed, and a Down used by
// any rule (not only this one) suppresses the Up.
func alreadyFiredThisEngagement(last config.PatternElement, snap []history.Entry, tail int) bool {
	if last.Filter != config.Any || snap[tail].Event.Action != event.Up || tail == 0 {
		return false
	}
	prev := snap[tail-1]
	return prev.Event.Button == last.Button && prev.Event.Action == event.Down && prev.Used > 0
}

func elementMatches(el config.PatternElement, h history.Entry) bool {
	return el.Button == h.Event.Button &&
		el.Filter.Accepts(h.Event.Action) &&
		el.AcceptsUse(h.Used)
}
