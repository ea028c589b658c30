package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a hotkey modifier bitmask. Values match Win32 MOD_* constants.
type Modifier uint32

const (
	ModAlt     Modifier = 0x0001
	ModControl Modifier = 0x0002
	ModShift   Modifier = 0x0004
	ModWin     Modifier = 0x0008
)

// DefaultHotkey is the bulk-close shortcut.
const DefaultHotkey = "ctrl+alt+j"

// Hotkey is a modifier+key combination.
type Hotkey struct {
	Modifiers Modifier
	Key       string // lower case: "a".."z", "0".."9", "f1".."f24"
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModControl,
	"control": ModControl,
	"alt":     ModAlt,
	"shift":   ModShift,
	"win":     ModWin,
	"super":   ModWin,
}

// ParseHotkey parses strings like "ctrl+alt+j" or "Shift+Win+F5".
// At least one modifier and exactly one key are required.
func ParseHotkey(s string) (Hotkey, error) {
	var hk Hotkey
	for _, part := range strings.Split(s, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			return Hotkey{}, fmt.Errorf("invalid hotkey %q: empty component", s)
		}
		if mod, ok := modifierNames[part]; ok {
			hk.Modifiers |= mod
			continue
		}
		if hk.Key != "" {
			return Hotkey{}, fmt.Errorf("invalid hotkey %q: more than one key", s)
		}
		if !validKey(part) {
			return Hotkey{}, fmt.Errorf("invalid hotkey %q: unsupported key %q", s, part)
		}
		hk.Key = part
	}
	if hk.Key == "" {
		return Hotkey{}, fmt.Errorf("invalid hotkey %q: no key", s)
	}
	if hk.Modifiers == 0 {
		return Hotkey{}, fmt.Errorf("invalid hotkey %q: at least one modifier is required", s)
	}
	return hk, nil
}

func validKey(k string) bool {
	if len(k) == 1 {
		c := k[0]
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	if strings.HasPrefix(k, "f") {
		n, err := strconv.Atoi(k[1:])
		return err == nil && n >= 1 && n <= 24
	}
	return false
}

// String returns the canonical form, e.g. "ctrl+alt+j".
func (h Hotkey) String() string {
	var parts []string
	if h.Modifiers&ModControl != 0 {
		parts = append(parts, "ctrl")
	}
	if h.Modifiers&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if h.Modifiers&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if h.Modifiers&ModWin != 0 {
		parts = append(parts, "win")
	}
	return strings.Join(append(parts, h.Key), "+")
}

// VirtualKey returns the Win32 virtual-key code of the key.
func (h Hotkey) VirtualKey() uint32 {
	if len(h.Key) == 1 {
		return uint32(strings.ToUpper(h.Key)[0])
	}
	n, _ := strconv.Atoi(h.Key[1:])
	return 0x70 + uint32(n-1) // VK_F1
}
