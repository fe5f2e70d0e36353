package config

import (
	"fmt"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// evTypeByName resolves the handful of event types a pedal/mouse/
// keyboard binding can reasonably name.
var evTypeByName = map[string]evdev.EvType{
	"EV_SYN": evdev.EV_SYN,
	"EV_KEY": evdev.EV_KEY,
	"EV_REL": evdev.EV_REL,
	"EV_ABS": evdev.EV_ABS,
	"EV_MSC": evdev.EV_MSC,
}

type codeSymbol struct {
	typ  evdev.EvType
	code evdev.EvCode
}

// codeByName generalizes texpand's keymap.go (a flat code-to-character
// table) into a code-to-(type,code) symbol table covering the
// keyboard, mouse-button, and relative-axis codes a pedal/mouse
// binding is likely to name.
var codeByName = buildCodeTable()

func buildCodeTable() map[string]codeSymbol {
	m := map[string]codeSymbol{
		"KEY_A": {evdev.EV_KEY, evdev.KEY_A}, "KEY_B": {evdev.EV_KEY, evdev.KEY_B},
		"KEY_C": {evdev.EV_KEY, evdev.KEY_C}, "KEY_D": {evdev.EV_KEY, evdev.KEY_D},
		"KEY_E": {evdev.EV_KEY, evdev.KEY_E}, "KEY_F": {evdev.EV_KEY, evdev.KEY_F},
		"KEY_G": {evdev.EV_KEY, evdev.KEY_G}, "KEY_H": {evdev.EV_KEY, evdev.KEY_H},
		"KEY_I": {evdev.EV_KEY, evdev.KEY_I}, "KEY_J": {evdev.EV_KEY, evdev.KEY_J},
		"KEY_K": {evdev.EV_KEY, evdev.KEY_K}, "KEY_L": {evdev.EV_KEY, evdev.KEY_L},
		"KEY_M": {evdev.EV_KEY, evdev.KEY_M}, "KEY_N": {evdev.EV_KEY, evdev.KEY_N},
		"KEY_O": {evdev.EV_KEY, evdev.KEY_O}, "KEY_P": {evdev.EV_KEY, evdev.KEY_P},
		"KEY_Q": {evdev.EV_KEY, evdev.KEY_Q}, "KEY_R": {evdev.EV_KEY, evdev.KEY_R},
		"KEY_S": {evdev.EV_KEY, evdev.KEY_S}, "KEY_T": {evdev.EV_KEY, evdev.KEY_T},
		"KEY_U": {evdev.EV_KEY, evdev.KEY_U}, "KEY_V": {evdev.EV_KEY, evdev.KEY_V},
		"KEY_W": {evdev.EV_KEY, evdev.KEY_W}, "KEY_X": {evdev.EV_KEY, evdev.KEY_X},
		"KEY_Y": {evdev.EV_KEY, evdev.KEY_Y}, "KEY_Z": {evdev.EV_KEY, evdev.KEY_Z},

		"KEY_1": {evdev.EV_KEY, evdev.KEY_1}, "KEY_2": {evdev.EV_KEY, evdev.KEY_2},
		"KEY_3": {evdev.EV_KEY, evdev.KEY_3}, "KEY_4": {evdev.EV_KEY, evdev.KEY_4},
		"KEY_5": {evdev.EV_KEY, evdev.KEY_5}, "KEY_6": {evdev.EV_KEY, evdev.KEY_6},
		"KEY_7": {evdev.EV_KEY, evdev.KEY_7}, "KEY_8": {evdev.EV_KEY, evdev.KEY_8},
		"KEY_9": {evdev.EV_KEY, evdev.KEY_9}, "KEY_0": {evdev.EV_KEY, evdev.KEY_0},

		"KEY_SPACE": {evdev.EV_KEY, evdev.KEY_SPACE}, "KEY_ENTER": {evdev.EV_KEY, evdev.KEY_ENTER},
		"KEY_ESC": {evdev.EV_KEY, evdev.KEY_ESC}, "KEY_TAB": {evdev.EV_KEY, evdev.KEY_TAB},
		"KEY_LEFTSHIFT": {evdev.EV_KEY, evdev.KEY_LEFTSHIFT}, "KEY_RIGHTSHIFT": {evdev.EV_KEY, evdev.KEY_RIGHTSHIFT},
		"KEY_LEFTCTRL": {evdev.EV_KEY, evdev.KEY_LEFTCTRL}, "KEY_RIGHTCTRL": {evdev.EV_KEY, evdev.KEY_RIGHTCTRL},

		"BTN_LEFT": {evdev.EV_KEY, evdev.BTN_LEFT}, "BTN_RIGHT": {evdev.EV_KEY, evdev.BTN_RIGHT},
		"BTN_MIDDLE": {evdev.EV_KEY, evdev.BTN_MIDDLE}, "BTN_SIDE": {evdev.EV_KEY, evdev.BTN_SIDE},
		"BTN_EXTRA": {evdev.EV_KEY, evdev.BTN_EXTRA},

		"REL_X": {evdev.EV_REL, evdev.REL_X}, "REL_Y": {evdev.EV_REL, evdev.REL_Y},
		"REL_WHEEL": {evdev.EV_REL, evdev.REL_WHEEL}, "REL_HWHEEL": {evdev.EV_REL, evdev.REL_HWHEEL},
	}
	return m
}

// parseEventCodeSpec resolves one comma-list token from a `dev:` line
// into an EventCodeSpec. Accepted shapes: a bare symbolic name
// ("KEY_A", "BTN_LEFT"), a bare integer (implies EV_KEY), or an
// explicit "type/code[=value]" triple where type/code may each be
// symbolic or numeric.
func parseEventCodeSpec(tok string) (EventCodeSpec, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return EventCodeSpec{}, fmt.Errorf("empty event code")
	}

	var valuePtr *int32
	body := tok
	if eq := strings.IndexByte(tok, '='); eq >= 0 {
		body = tok[:eq]
		v, err := strconv.ParseInt(tok[eq+1:], 10, 32)
		if err != nil {
			return EventCodeSpec{}, fmt.Errorf("invalid event value in %q: %w", tok, err)
		}
		v32 := int32(v)
		valuePtr = &v32
	}

	var typ, code uint16
	var name string

	if slash := strings.IndexByte(body, '/'); slash >= 0 {
		typStr, codeStr := body[:slash], body[slash+1:]
		t, err := resolveType(typStr)
		if err != nil {
			return EventCodeSpec{}, err
		}
		c, _, err := resolveCode(codeStr)
		if err != nil {
			return EventCodeSpec{}, err
		}
		typ, code, name = uint16(t), uint16(c), body
	} else if sym, ok := codeByName[strings.ToUpper(body)]; ok {
		typ, code, name = uint16(sym.typ), uint16(sym.code), body
	} else if n, err := strconv.ParseUint(body, 10, 16); err == nil {
		typ, code, name = uint16(evdev.EV_KEY), uint16(n), body
	} else {
		return EventCodeSpec{}, fmt.Errorf("unknown event code %q", tok)
	}

	return EventCodeSpec{
		Type:        typ,
		Code:        code,
		Value:       valuePtr,
		Name:        name,
		AutoRelease: typ == uint16(evdev.EV_REL),
	}, nil
}

func resolveType(s string) (evdev.EvType, error) {
	if t, ok := evTypeByName[strings.ToUpper(s)]; ok {
		return t, nil
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return evdev.EvType(n), nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

func resolveCode(s string) (evdev.EvCode, string, error) {
	if sym, ok := codeByName[strings.ToUpper(s)]; ok {
		return sym.code, s, nil
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return evdev.EvCode(n), s, nil
	}
	return 0, "", fmt.Errorf("unknown event code %q", s)
}
