package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a Registry back into canonical pattern syntax, device
// lines first, then one rule per line. Re-parsing Dump's output yields
// an equivalent compiled Registry (property 6, round-trip).
func Dump(reg *Registry) string {
	var b strings.Builder
	for _, dev := range reg.Devices {
		b.WriteString(dumpDeviceLine(dev))
		b.WriteByte('\n')
	}
	for _, r := range reg.Rules {
		b.WriteString(dumpRuleLine(r))
		b.WriteByte('\n')
	}
	return b.String()
}

func dumpDeviceLine(d DeviceBinding) string {
	tokens := make([]string, len(d.Codes))
	for i, c := range d.Codes {
		tokens[i] = codeSpecToken(c)
	}
	line := fmt.Sprintf("dev: %s %s", d.Path, strings.Join(tokens, ","))
	if d.Shared {
		line += " [shared]"
	}
	return line
}

// codeSpecToken renders one EventCodeSpec back into its dev-line
// token. A spec parsed from the "type/code=value" grammar must dump
// its "=value" suffix back: dropping it collapses two specs that
// share a (type, code) but differ by value — e.g. REL_WHEEL=1 and
// REL_WHEEL=-1 bound to different buttons — into the same bare code on
// re-parse.
func codeSpecToken(c EventCodeSpec) string {
	if c.Value == nil {
		return c.Name
	}
	return fmt.Sprintf("%s=%d", c.Name, *c.Value)
}

func dumpRuleLine(r Rule) string {
	pattern := patternTokens(r.Sequence)
	if r.TimeLimit != nil {
		pattern += " < " + strconv.FormatFloat(r.TimeLimit.Seconds(), 'g', -1, 64)
	}
	return pattern + ": " + r.Command
}

// patternTokens renders a compiled sequence back into pattern syntax.
// The Nv,N^ max_use=0 desugared pair must round-trip as the single
// bare token "N" it came from, not as its expanded explicit form:
// dumping it as "Nv,N^" would re-parse as a two-token pattern, which
// does not re-trigger the bare-N desugar and so yields an uncapped
// (max_use=nil) pair — a different compiled rule than the original.
func patternTokens(seq []PatternElement) string {
	if isDesugaredPair(seq) {
		return fmt.Sprintf("%d", seq[0].Button)
	}
	tokens := make([]string, len(seq))
	for i, el := range seq {
		tokens[i] = fmt.Sprintf("%d%s", el.Button, el.Filter)
	}
	return strings.Join(tokens, ",")
}

func isDesugaredPair(seq []PatternElement) bool {
	if len(seq) != 2 {
		return false
	}
	a, b := seq[0], seq[1]
	return a.Button == b.Button &&
		a.Filter == DownOnly && b.Filter == UpOnly &&
		a.MaxUse != nil && *a.MaxUse == 0 &&
		b.MaxUse != nil && *b.MaxUse == 0
}
