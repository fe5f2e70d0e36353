package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pedalrc/pedalrc/internal/config"
)

func parse(t *testing.T, src string) *config.Registry {
	t.Helper()
	reg, err := config.ParseReader("test.conf", strings.NewReader(src))
	require.NoError(t, err)
	return reg
}

func TestBareIntSoleTokenDesugars(t *testing.T) {
	reg := parse(t, "1: C\n")
	require.Len(t, reg.Rules, 1)
	seq := reg.Rules[0].Sequence
	require.Len(t, seq, 2)
	require.Equal(t, config.DownOnly, seq[0].Filter)
	require.Equal(t, config.UpOnly, seq[1].Filter)
	require.NotNil(t, seq[0].MaxUse)
	require.EqualValues(t, 0, *seq[0].MaxUse)
	require.NotNil(t, seq[1].MaxUse)
	require.EqualValues(t, 0, *seq[1].MaxUse)
}

func TestBareIntMidPatternIsAnyNoCap(t *testing.T) {
	reg := parse(t, "1v,2: A\n")
	seq := reg.Rules[0].Sequence
	require.Len(t, seq, 2)
	require.Equal(t, config.DownOnly, seq[0].Filter)
	require.Nil(t, seq[0].MaxUse)
	require.Equal(t, config.Any, seq[1].Filter)
	require.Nil(t, seq[1].MaxUse)
}

func TestExplicitPressReleaseTokens(t *testing.T) {
	reg := parse(t, "1v,1^: D\n")
	seq := reg.Rules[0].Sequence
	require.Len(t, seq, 2)
	require.Equal(t, config.DownOnly, seq[0].Filter)
	require.Equal(t, config.UpOnly, seq[1].Filter)
}

func TestTimeLimitParsed(t *testing.T) {
	reg := parse(t, "1v,2 < 0.100: FAST\n")
	r := reg.Rules[0]
	require.NotNil(t, r.TimeLimit)
	require.InDelta(t, 0.1, r.TimeLimit.Seconds(), 1e-9)
}

func TestCommandKeepsInlineHash(t *testing.T) {
	reg := parse(t, "1v,2: echo hi # not a comment\n")
	require.Equal(t, "echo hi # not a comment", reg.Rules[0].Command)
}

func TestFullLineCommentAndBlankSkipped(t *testing.T) {
	reg := parse(t, "# a comment\n\n1: C\n")
	require.Len(t, reg.Rules, 1)
}

func TestMissingColonIsSyntaxError(t *testing.T) {
	_, err := config.ParseReader("x.conf", strings.NewReader("1v,2 FAST\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "x.conf:1")
}

func TestDuplicateRuleIsSemanticError(t *testing.T) {
	_, err := config.ParseReader("x.conf", strings.NewReader("1: C\n1: C\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestZeroButtonIsRejected(t *testing.T) {
	_, err := config.ParseReader("x.conf", strings.NewReader("0v: C\n"))
	require.Error(t, err)
}

func TestDeviceLineParsesCodesAndShared(t *testing.T) {
	reg := parse(t, "dev: /dev/input/event3 KEY_A,KEY_B [shared]\n")
	require.Len(t, reg.Devices, 1)
	d := reg.Devices[0]
	require.Equal(t, "/dev/input/event3", d.Path)
	require.True(t, d.Shared)
	require.Len(t, d.Codes, 2)
}

func TestDeviceLineRelCodeFlaggedAutoRelease(t *testing.T) {
	reg := parse(t, "dev: /dev/input/event4 REL_WHEEL\n")
	require.True(t, reg.Devices[0].Codes[0].AutoRelease)
}

func TestDeviceLineStripsTrailingComment(t *testing.T) {
	reg := parse(t, "dev: /dev/input/event0 KEY_A # my mouse\n")
	require.Len(t, reg.Devices, 1)
	require.Len(t, reg.Devices[0].Codes, 1)
	require.Equal(t, "KEY_A", reg.Devices[0].Codes[0].Name)
}

func TestRoundTripThroughDump(t *testing.T) {
	src := "1v,2 < 0.5: A\n1v,1^: D\n"
	reg := parse(t, src)
	dumped := config.Dump(reg)
	reg2, err := config.ParseReader("redump.conf", strings.NewReader(dumped))
	require.NoError(t, err)
	require.Equal(t, reg.Rules, reg2.Rules)
}

// TestRoundTripThroughDumpPreservesBareShorthand guards the bare-N
// desugared shape specifically: dumping it back as "Nv,N^" would
// re-parse as an uncapped two-token pattern instead of the original
// max_use=0 pair, changing the rule's shadowing semantics.
func TestRoundTripThroughDumpPreservesBareShorthand(t *testing.T) {
	src := "1: C\n"
	reg := parse(t, src)
	dumped := config.Dump(reg)
	require.Contains(t, dumped, "1: C")
	reg2, err := config.ParseReader("redump.conf", strings.NewReader(dumped))
	require.NoError(t, err)
	require.Equal(t, reg.Rules, reg2.Rules)
}

// TestRoundTripThroughDumpPreservesEventCodeValue guards the
// "type/code=value" device grammar: two codes sharing a (type, code)
// but bound to different buttons by signed value must not collapse
// into the same bare code after a dump/re-parse cycle.
func TestRoundTripThroughDumpPreservesEventCodeValue(t *testing.T) {
	src := "dev: /dev/input/event0 REL_WHEEL=1,REL_WHEEL=-1\n1v: A\n"
	reg := parse(t, src)
	dumped := config.Dump(reg)
	reg2, err := config.ParseReader("redump.conf", strings.NewReader(dumped))
	require.NoError(t, err)
	require.Equal(t, reg.Devices, reg2.Devices)
}
