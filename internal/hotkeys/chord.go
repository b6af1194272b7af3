// Package hotkeys parses key chord strings and maintains the compiled
// chord-to-command table registered with the OS.
package hotkeys

import (
	"fmt"
	"strings"
)

// Modifier bit flags, matching the Win32 RegisterHotKey values.
const (
	ModAlt     uint32 = 0x0001
	ModControl uint32 = 0x0002
	ModShift   uint32 = 0x0004
	ModWin     uint32 = 0x0008
)

// Chord is a parsed key combination: a modifier set plus one virtual key.
type Chord struct {
	Modifiers  uint32
	VirtualKey uint32
}

// String renders the chord in canonical "Win+Shift+L" form.
func (c Chord) String() string {
	var parts []string
	if c.Modifiers&ModWin != 0 {
		parts = append(parts, "Win")
	}
	if c.Modifiers&ModControl != 0 {
		parts = append(parts, "Ctrl")
	}
	if c.Modifiers&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if c.Modifiers&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if name, ok := vkNames[c.VirtualKey]; ok {
		parts = append(parts, name)
	} else {
		parts = append(parts, fmt.Sprintf("0x%02X", c.VirtualKey))
	}
	return strings.Join(parts, "+")
}

// namedKeys maps non-alphanumeric key names (lowercased) to virtual keys.
var namedKeys = map[string]uint32{
	"left":         0x25,
	"up":           0x26,
	"right":        0x27,
	"down":         0x28,
	"space":        0x20,
	"tab":          0x09,
	"enter":        0x0D,
	"return":       0x0D,
	"escape":       0x1B,
	"esc":          0x1B,
	"backspace":    0x08,
	"delete":       0x2E,
	"insert":       0x2D,
	"home":         0x24,
	"end":          0x23,
	"pageup":       0x21,
	"pagedown":     0x22,
	"minus":        0xBD,
	"plus":         0xBB,
	"equals":       0xBB,
	"comma":        0xBC,
	"period":       0xBE,
	"semicolon":    0xBA,
	"slash":        0xBF,
	"backtick":     0xC0,
	"bracketleft":  0xDB,
	"bracketright": 0xDD,
	"backslash":    0xDC,
	"apostrophe":   0xDE,
}

// vkNames is the reverse of namedKeys plus letters, digits and F-keys,
// used for canonical chord rendering.
var vkNames = func() map[uint32]string {
	names := map[uint32]string{
		0x25: "Left", 0x26: "Up", 0x27: "Right", 0x28: "Down",
		0x20: "Space", 0x09: "Tab", 0x0D: "Enter", 0x1B: "Escape",
		0x08: "Backspace", 0x2E: "Delete", 0x2D: "Insert",
		0x24: "Home", 0x23: "End", 0x21: "PageUp", 0x22: "PageDown",
		0xBD: "Minus", 0xBB: "Plus", 0xBC: "Comma", 0xBE: "Period",
		0xBA: "Semicolon", 0xBF: "Slash", 0xC0: "Backtick",
		0xDB: "BracketLeft", 0xDD: "BracketRight", 0xDC: "Backslash",
		0xDE: "Apostrophe",
	}
	for vk := uint32('A'); vk <= 'Z'; vk++ {
		names[vk] = string(rune(vk))
	}
	for vk := uint32('0'); vk <= '9'; vk++ {
		names[vk] = string(rune(vk))
	}
	for i := uint32(1); i <= 24; i++ {
		names[0x70+i-1] = fmt.Sprintf("F%d", i)
	}
	return names
}()

// ParseChord parses a chord string like "Win+Shift+L". The chord must
// name at least one modifier and exactly one non-modifier key.
func ParseChord(s string) (Chord, error) {
	var chord Chord
	parts := strings.Split(s, "+")
	haveKey := false
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			return Chord{}, fmt.Errorf("chord %q: empty token", s)
		}
		switch token {
		case "win", "super", "meta":
			chord.Modifiers |= ModWin
			continue
		case "ctrl", "control":
			chord.Modifiers |= ModControl
			continue
		case "alt":
			chord.Modifiers |= ModAlt
			continue
		case "shift":
			chord.Modifiers |= ModShift
			continue
		}
		if haveKey {
			return Chord{}, fmt.Errorf("chord %q: more than one non-modifier key", s)
		}
		vk, err := parseKey(token)
		if err != nil {
			return Chord{}, fmt.Errorf("chord %q: %w", s, err)
		}
		chord.VirtualKey = vk
		haveKey = true
	}
	if !haveKey {
		return Chord{}, fmt.Errorf("chord %q: missing non-modifier key", s)
	}
	if chord.Modifiers == 0 {
		return Chord{}, fmt.Errorf("chord %q: missing modifier", s)
	}
	return chord, nil
}

func parseKey(token string) (uint32, error) {
	if vk, ok := namedKeys[token]; ok {
		return vk, nil
	}
	if len(token) == 1 {
		c := token[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint32(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return uint32(c), nil
		}
	}
	if len(token) >= 2 && token[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(token[1:], "%d", &n); err == nil && n >= 1 && n <= 24 {
			return uint32(0x70 + n - 1), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", token)
}
