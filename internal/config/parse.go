package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pedalrc/pedalrc/internal/event"
)

// Parse reads and compiles a configuration file into a Registry.
// Any ConfigSyntax or ConfigSemantic problem aborts the whole load:
// partial configs are never returned.
func Parse(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseReader(path, f)
}

// ParseReader parses config source from r, attributing diagnostics to
// name (typically the path Parse was called with).
func ParseReader(name string, r io.Reader) (*Registry, error) {
	reg := &Registry{}
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()

		switch kind, body := classifyLine(raw); kind {
		case lineEmpty:
			continue
		case lineDevice:
			dev, err := parseDeviceLine(body)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNo, Message: err.Error()}
			}
			reg.Devices = append(reg.Devices, dev)
		case lineRule:
			rule, err := parseRuleLine(body, lineNo)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNo, Message: err.Error()}
			}
			key := ruleDedupeKey(rule)
			if seen[key] {
				return nil, &ParseError{File: name, Line: lineNo, Message: "duplicate rule: " + key}
			}
			seen[key] = true
			reg.Rules = append(reg.Rules, rule)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return reg, nil
}

type lineKind int

const (
	lineEmpty lineKind = iota
	lineDevice
	lineRule
)

// classifyLine strips leading/trailing whitespace and decides whether
// the line is empty/comment-only, a device line, or a rule line to be
// split further by parseRuleLine. A device line's body is entirely
// event-code tokens, so a trailing '#' comment is stripped from it
// unconditionally. A rule line's command is taken verbatim: only a '#'
// occurring before the pattern's terminating colon ends the line
// early, since the command itself may legitimately contain '#'.
func classifyLine(raw string) (lineKind, string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return lineEmpty, ""
	}

	if strings.HasPrefix(line, "dev:") {
		body := stripTrailingComment(strings.TrimSpace(line[len("dev:"):]))
		if body == "" {
			return lineEmpty, ""
		}
		return lineDevice, body
	}

	colonIdx := strings.IndexByte(line, ':')
	hashIdx := strings.IndexByte(line, '#')
	if hashIdx >= 0 && (colonIdx < 0 || hashIdx < colonIdx) {
		line = strings.TrimSpace(line[:hashIdx])
		if line == "" {
			return lineEmpty, ""
		}
	}

	return lineRule, line
}

// stripTrailingComment drops everything from the first '#' onward.
func stripTrailingComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// parseDeviceLine parses the body of a `dev:` line (already stripped
// of the `dev:` prefix): `<path> <code-spec-list> [[shared]]`.
func parseDeviceLine(body string) (DeviceBinding, error) {
	shared := false
	if strings.HasSuffix(body, "[shared]") {
		shared = true
		body = strings.TrimSpace(strings.TrimSuffix(body, "[shared]"))
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return DeviceBinding{}, fmt.Errorf("device line missing path")
	}
	path := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(body, path))
	if rest == "" {
		return DeviceBinding{}, fmt.Errorf("device %s has no event codes", path)
	}

	var codes []EventCodeSpec
	for _, tok := range strings.Split(rest, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		spec, err := parseEventCodeSpec(tok)
		if err != nil {
			return DeviceBinding{}, fmt.Errorf("device %s: %w", path, err)
		}
		codes = append(codes, spec)
	}
	if len(codes) == 0 {
		return DeviceBinding{}, fmt.Errorf("device %s has no event codes", path)
	}

	return DeviceBinding{Path: path, Codes: codes, Shared: shared}, nil
}

// parseRuleLine parses `<pattern> : <command>`. The command is
// everything after the first colon, taken verbatim (not re-stripped
// of comments).
func parseRuleLine(line string, sourceLine int) (Rule, error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return Rule{}, fmt.Errorf("missing ':' separating pattern from command")
	}
	patternStr := strings.TrimSpace(line[:colon])
	command := strings.TrimSpace(line[colon+1:])
	if patternStr == "" {
		return Rule{}, fmt.Errorf("empty pattern")
	}

	seq, limit, err := parsePattern(patternStr)
	if err != nil {
		return Rule{}, err
	}

	return Rule{Sequence: seq, TimeLimit: limit, Command: command, SourceLine: sourceLine}, nil
}

// parsePattern parses the pattern half of a rule line: a comma
// separated token list, optionally followed by ` < <seconds>`.
func parsePattern(s string) ([]PatternElement, *time.Duration, error) {
	patternPart := s
	var limit *time.Duration

	if lt := strings.IndexByte(s, '<'); lt >= 0 {
		patternPart = strings.TrimSpace(s[:lt])
		secStr := strings.TrimSpace(s[lt+1:])
		secs, err := strconv.ParseFloat(secStr, 64)
		if err != nil || secs <= 0 {
			return nil, nil, fmt.Errorf("malformed time limit %q", secStr)
		}
		d := time.Duration(secs * float64(time.Second))
		limit = &d
	}

	if patternPart == "" {
		return nil, nil, fmt.Errorf("empty pattern")
	}

	tokens := strings.Split(patternPart, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
		if tokens[i] == "" {
			return nil, nil, fmt.Errorf("empty pattern token")
		}
	}

	// A single bare integer token (the WHOLE pattern, not one token
	// among several) desugars into Nv,N^ both capped at max_use=0.
	if len(tokens) == 1 {
		if btn, ok := bareInt(tokens[0]); ok {
			zero := uint32(0)
			return []PatternElement{
				{Button: btn, Filter: DownOnly, MaxUse: &zero},
				{Button: btn, Filter: UpOnly, MaxUse: &zero},
			}, limit, nil
		}
	}

	seq := make([]PatternElement, 0, len(tokens))
	for _, tok := range tokens {
		el, err := parsePatternToken(tok)
		if err != nil {
			return nil, nil, err
		}
		seq = append(seq, el)
	}
	return seq, limit, nil
}

// bareInt reports whether tok is a plain positive-integer button
// number with no v/^ suffix, returning the parsed button.
func bareInt(tok string) (event.Button, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || n <= 0 {
		return 0, false
	}
	return event.Button(n), true
}

// parsePatternToken parses one comma-separated token within a
// multi-token pattern: Nv, N^, or a bare N (Any filter, no cap — a
// bare N appearing between other tokens behaves differently from a
// bare N that is the entire pattern).
func parsePatternToken(tok string) (PatternElement, error) {
	if strings.HasSuffix(tok, "v") {
		btn, ok := bareInt(strings.TrimSuffix(tok, "v"))
		if !ok {
			return PatternElement{}, fmt.Errorf("invalid pattern token %q", tok)
		}
		return PatternElement{Button: btn, Filter: DownOnly}, nil
	}
	if strings.HasSuffix(tok, "^") {
		btn, ok := bareInt(strings.TrimSuffix(tok, "^"))
		if !ok {
			return PatternElement{}, fmt.Errorf("invalid pattern token %q", tok)
		}
		return PatternElement{Button: btn, Filter: UpOnly}, nil
	}
	btn, ok := bareInt(tok)
	if !ok {
		return PatternElement{}, fmt.Errorf("invalid pattern token %q", tok)
	}
	return PatternElement{Button: btn, Filter: Any}, nil
}

// ruleDedupeKey canonicalizes a rule's pattern+time-limit+command for
// duplicate-rule detection. Two rules with identical shape and
// command are a ConfigSemantic error.
func ruleDedupeKey(r Rule) string {
	var b strings.Builder
	for i, el := range r.Sequence {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d%s", el.Button, el.Filter)
	}
	if r.TimeLimit != nil {
		fmt.Fprintf(&b, "<%s", r.TimeLimit)
	}
	b.WriteByte(':')
	b.WriteString(r.Command)
	return b.String()
}
