// Package keycode defines the legacy numeric key codes carried by keyboard
// events.
package keycode

import (
	"fmt"
	"strings"
)

// Code is a legacy key code.
type Code int

const (
	// None represents no key.
	None Code = 0

	// Control characters reported by keypress
	ETX      Code = 3
	LineFeed Code = 10

	// Editing keys
	Backspace Code = 8
	Tab       Code = 9
	Enter     Code = 13
	Shift     Code = 16
	Ctrl      Code = 17
	Alt       Code = 18
	Pause     Code = 19
	CapsLock  Code = 20
	Escape    Code = 27
	Space     Code = 32

	// Navigation keys
	PageUp   Code = 33
	PageDown Code = 34
	End      Code = 35
	Home     Code = 36
	Left     Code = 37
	Up       Code = 38
	Right    Code = 39
	Down     Code = 40
	Insert   Code = 45
	Delete   Code = 46

	// Function keys
	F1  Code = 112
	F2  Code = 113
	F3  Code = 114
	F4  Code = 115
	F5  Code = 116
	F6  Code = 117
	F7  Code = 118
	F8  Code = 119
	F9  Code = 120
	F10 Code = 121
	F11 Code = 122
	F12 Code = 123

	NumLock    Code = 144
	ScrollLock Code = 145

	// CopyChar is the character code a CTRL+C keypress is rewritten to ('c').
	CopyChar Code = 99
)

var names = map[Code]string{
	ETX:        "ETX",
	LineFeed:   "LineFeed",
	Backspace:  "Backspace",
	Tab:        "Tab",
	Enter:      "Enter",
	Shift:      "Shift",
	Ctrl:       "Ctrl",
	Alt:        "Alt",
	Pause:      "Pause",
	CapsLock:   "CapsLock",
	Escape:     "Escape",
	Space:      "Space",
	PageUp:     "PageUp",
	PageDown:   "PageDown",
	End:        "End",
	Home:       "Home",
	Left:       "Left",
	Up:         "Up",
	Right:      "Right",
	Down:       "Down",
	Insert:     "Insert",
	Delete:     "Delete",
	NumLock:    "NumLock",
	ScrollLock: "ScrollLock",
}

// String returns a human-readable name for the code.
func (c Code) String() string {
	if c == None {
		return "None"
	}
	if c.IsFunctionKey() {
		return fmt.Sprintf("F%d", int(c-F1)+1)
	}
	if name, ok := names[c]; ok {
		return name
	}
	if c.IsPrintable() {
		return string(rune(c))
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// IsFunctionKey returns true if this is a function key (F1-F12).
func (c Code) IsFunctionKey() bool {
	return c >= F1 && c <= F12
}

// IsArrowKey returns true if this is an arrow key.
func (c Code) IsArrowKey() bool {
	return c >= Left && c <= Down
}

// IsPrintable returns true if the code is a printable character code.
func (c Code) IsPrintable() bool {
	return c > Space && c != 127 && c < 0x110000
}

// Parse returns the code for a key name, case-insensitively.
// Single characters parse to their character code.
func Parse(name string) (Code, bool) {
	if name == "" {
		return None, false
	}
	if r := []rune(name); len(r) == 1 {
		return Code(r[0]), true
	}
	lower := strings.ToLower(name)
	if lower == "none" {
		return None, true
	}
	if strings.HasPrefix(lower, "f") {
		var n int
		if _, err := fmt.Sscanf(lower, "f%d", &n); err == nil && n >= 1 && n <= 12 {
			return F1 + Code(n-1), true
		}
	}
	for code, s := range names {
		if strings.ToLower(s) == lower {
			return code, true
		}
	}
	return None, false
}
