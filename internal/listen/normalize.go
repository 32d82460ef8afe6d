package listen

import (
	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/keycode"
)

// Normalize fills the canonical fields of a raw legacy event in place and
// returns it. sender is the node the listener is attached to.
//
// A nil evt is replaced by the current event of sender's document; if there
// is none Normalize returns nil. An event that already has a Target is
// returned unchanged.
func Normalize(evt *dom.Event, sender any) *dom.Event {
	if evt == nil {
		evt = currentEvent(sender)
		if evt == nil {
			return nil
		}
	}
	if evt.Target != nil {
		return evt
	}

	evt.Target = evt.Legacy.SrcElement
	if evt.Target == nil {
		evt.Target = sender
	}
	evt.CurrentTarget = sender
	if sender == nil {
		evt.CurrentTarget = evt.Legacy.SrcElement
	}
	evt.LayerX = evt.Legacy.OffsetX
	evt.LayerY = evt.Legacy.OffsetY

	switch evt.Type {
	case "mouseover":
		evt.RelatedTarget = evt.Legacy.FromElement
	case "mouseout":
		evt.RelatedTarget = evt.Legacy.ToElement
	}

	if !evt.HasCancellation() {
		evt.SetCancellation(stopPropagation, preventDefault)
	}

	if evt.Type == "keypress" {
		fixKeypress(evt)
	}
	return evt
}

func currentEvent(sender any) *dom.Event {
	switch s := sender.(type) {
	case dom.CurrentEventSource:
		return s.CurrentEvent()
	case dom.Node:
		if doc := s.OwnerDocument(); doc != nil {
			return doc.CurrentEvent()
		}
	}
	return nil
}

func stopPropagation(evt *dom.Event) {
	evt.Legacy.CancelBubble = true
}

// preventDefault keeps the key code in BubbledKeyCode. CTRL accelerators are
// only suppressed by clearing the key code; a read-only key code falls back
// to the suppression flag.
func preventDefault(evt *dom.Event) {
	evt.BubbledKeyCode = evt.KeyCode
	if evt.CtrlKey {
		if err := evt.SetKeyCode(0); err == nil {
			return
		}
	}
	evt.Legacy.DefaultSuppressed = true
}

func fixKeypress(evt *dom.Event) {
	c := evt.KeyCode
	if evt.Legacy.HasCharCode {
		c = evt.CharCode
	}

	switch keycode.Code(c) {
	case keycode.LineFeed:
		// CTRL+ENTER arrives as a line feed.
		c = 0
		evt.KeyCode = int(keycode.Enter)
	case keycode.Enter, keycode.Escape:
		c = 0
	case keycode.ETX:
		c = int(keycode.CopyChar)
	}

	evt.CharCode = c
	evt.Legacy.HasCharCode = true
	setKeyChar(evt)
}

func setKeyChar(evt *dom.Event) {
	evt.KeyChar = ""
	if evt.CharCode != 0 {
		evt.KeyChar = string(rune(evt.CharCode))
	}
	if evt.KeyChar != "" {
		evt.CharOrCode = dom.CharOrCode{Char: evt.KeyChar, Code: evt.CharCode}
		return
	}
	evt.CharOrCode = dom.CharOrCode{Code: evt.KeyCode}
}
