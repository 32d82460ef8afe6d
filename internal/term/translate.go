// Package term is a terminal host: it turns tcell key and mouse input into
// events fired at a document node.
//
// Input is first expressed as raw legacy records, the way an old engine
// would report it. Legacy documents receive those records as they are;
// native documents receive the canonical form.
package term

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/keycode"
)

// KeySource is the part of *tcell.EventKey the translator reads.
type KeySource interface {
	Key() tcell.Key
	Rune() rune
	Modifiers() tcell.ModMask
}

// MouseSource is the part of *tcell.EventMouse the translator reads.
type MouseSource interface {
	Position() (int, int)
	Buttons() tcell.ButtonMask
	Modifiers() tcell.ModMask
}

// Legacy mouse button values.
const (
	ButtonLeft   = 1
	ButtonRight  = 2
	ButtonMiddle = 4
)

const pressMask = tcell.Button1 | tcell.Button2 | tcell.Button3

// Translator converts terminal input into raw legacy event records. It keeps
// the previous mouse button state to tell presses from moves.
type Translator struct {
	prevButtons tcell.ButtonMask
}

// Key returns the records for one key: a keydown, followed by a keypress
// for characters and control characters.
func (t *Translator) Key(src KeySource, target any) []*dom.Event {
	mods := src.Modifiers()
	k := src.Key()
	r := src.Rune()

	// Some terminals report CTRL+letter as a rune with the CTRL modifier.
	if k == tcell.KeyRune && mods&tcell.ModCtrl != 0 && unicode.IsLetter(r) && r < unicode.MaxASCII {
		k = tcell.Key(unicode.ToUpper(r) - 'A' + 1)
	}

	down := newRecord("keydown", target, mods)
	switch {
	case k == tcell.KeyRune:
		down.KeyCode = downCode(r)
		press := newRecord("keypress", target, mods)
		press.KeyCode = int(r)
		return []*dom.Event{down, press}

	case k < 32:
		down.KeyCode = controlDownCode(k)
		if k == tcell.KeyBackspace || k == tcell.KeyTab {
			return []*dom.Event{down}
		}
		press := newRecord("keypress", target, mods)
		press.KeyCode = int(k)
		return []*dom.Event{down, press}

	default:
		down.KeyCode = int(specialCode(k))
		return []*dom.Event{down}
	}
}

// Mouse returns the records for one mouse report.
func (t *Translator) Mouse(src MouseSource, target any) []*dom.Event {
	x, y := src.Position()
	buttons := src.Buttons()
	mods := src.Modifiers()

	record := func(typ string, button int) *dom.Event {
		evt := newRecord(typ, target, mods)
		evt.Legacy.OffsetX = x
		evt.Legacy.OffsetY = y
		evt.Button = button
		return evt
	}

	if wheel := buttons & (tcell.WheelUp | tcell.WheelDown); wheel != 0 {
		evt := record("mousewheel", 0)
		if wheel&tcell.WheelUp != 0 {
			evt.Data = 1
		} else {
			evt.Data = -1
		}
		return []*dom.Event{evt}
	}

	pressed := buttons & pressMask
	prev := t.prevButtons
	t.prevButtons = pressed

	switch {
	case pressed != 0 && prev == 0:
		return []*dom.Event{record("mousedown", legacyButtons(pressed))}
	case pressed == 0 && prev != 0:
		out := []*dom.Event{record("mouseup", legacyButtons(prev))}
		if prev&tcell.Button1 != 0 {
			out = append(out, record("click", ButtonLeft))
		}
		return out
	default:
		return []*dom.Event{record("mousemove", legacyButtons(pressed))}
	}
}

func newRecord(typ string, target any, mods tcell.ModMask) *dom.Event {
	evt := dom.NewLegacyEvent(typ, target)
	evt.CtrlKey = mods&tcell.ModCtrl != 0
	evt.AltKey = mods&tcell.ModAlt != 0
	evt.ShiftKey = mods&tcell.ModShift != 0
	evt.MetaKey = mods&tcell.ModMeta != 0
	return evt
}

func legacyButtons(b tcell.ButtonMask) int {
	var out int
	if b&tcell.Button1 != 0 {
		out |= ButtonLeft
	}
	if b&tcell.Button2 != 0 {
		out |= ButtonRight
	}
	if b&tcell.Button3 != 0 {
		out |= ButtonMiddle
	}
	return out
}

// downCode is the keydown code of a character: letters report their upper
// case code.
func downCode(r rune) int {
	if r < unicode.MaxASCII && unicode.IsLetter(r) {
		return int(unicode.ToUpper(r))
	}
	return int(r)
}

func controlDownCode(k tcell.Key) int {
	switch k {
	case tcell.KeyBackspace:
		return int(keycode.Backspace)
	case tcell.KeyTab:
		return int(keycode.Tab)
	case tcell.KeyEnter, tcell.KeyCtrlJ:
		return int(keycode.Enter)
	case tcell.KeyEscape:
		return int(keycode.Escape)
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return int('A' + k - tcell.KeyCtrlA)
	}
	return int(k)
}

func specialCode(k tcell.Key) keycode.Code {
	switch k {
	case tcell.KeyBackspace2:
		return keycode.Backspace
	case tcell.KeyDelete:
		return keycode.Delete
	case tcell.KeyInsert:
		return keycode.Insert
	case tcell.KeyHome:
		return keycode.Home
	case tcell.KeyEnd:
		return keycode.End
	case tcell.KeyPgUp:
		return keycode.PageUp
	case tcell.KeyPgDn:
		return keycode.PageDown
	case tcell.KeyUp:
		return keycode.Up
	case tcell.KeyDown:
		return keycode.Down
	case tcell.KeyLeft:
		return keycode.Left
	case tcell.KeyRight:
		return keycode.Right
	case tcell.KeyPause:
		return keycode.Pause
	}
	if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
		return keycode.F1 + keycode.Code(k-tcell.KeyF1)
	}
	return keycode.None
}
