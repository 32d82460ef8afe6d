package dom

import (
	"strconv"
	"time"
)

// Event is the event record delivered to listeners.
//
// Events coming from a native host arrive already canonical. Events coming
// from a legacy host carry only the Legacy block and keyboard fields until
// they are normalized; a nil Target marks a record that has not been
// normalized yet.
type Event struct {
	// Type is the event type without the "on" prefix, e.g. "click".
	Type string

	// Target is the node the event originated at.
	Target any

	// CurrentTarget is the node the listener is attached to.
	CurrentTarget any

	// RelatedTarget is the node the pointer came from (mouseover) or
	// moved to (mouseout).
	RelatedTarget any

	// LayerX and LayerY are the pointer offsets relative to the target.
	LayerX int
	LayerY int

	// Button is the pressed pointer button.
	Button int

	// KeyCode is the key code of a keyboard event.
	KeyCode int

	// CharCode is the character code of a keypress event.
	CharCode int

	// KeyChar is the printable character of a keypress, empty if none.
	KeyChar string

	// CharOrCode is KeyChar when printable, KeyCode otherwise.
	CharOrCode CharOrCode

	// BubbledKeyCode preserves KeyCode when PreventDefault clears it.
	BubbledKeyCode int

	CtrlKey  bool
	AltKey   bool
	ShiftKey bool
	MetaKey  bool

	// Data is the payload of an emitted or published event.
	Data any

	// Timestamp is when the host created the event.
	Timestamp time.Time

	// Legacy holds the raw fields of a legacy host event.
	Legacy Legacy

	stopped   bool
	prevented bool
	stop      func(*Event)
	prevent   func(*Event)
}

// Legacy holds the fields a legacy host reports instead of the canonical ones.
type Legacy struct {
	// SrcElement is the legacy name for the originating node.
	SrcElement any

	// OffsetX and OffsetY are the legacy pointer offsets.
	OffsetX int
	OffsetY int

	// FromElement and ToElement are the legacy related nodes for
	// mouseover and mouseout.
	FromElement any
	ToElement   any

	// CancelBubble stops bubbling on a legacy host.
	CancelBubble bool

	// DefaultSuppressed is the legacy "returnValue = false" flag.
	DefaultSuppressed bool

	// HasCharCode reports whether the host populated CharCode.
	HasCharCode bool

	// KeyCodeReadOnly makes SetKeyCode fail, as some engines reject
	// writes to the key code of certain keys.
	KeyCodeReadOnly bool
}

// CharOrCode holds either a printable character or a key code.
type CharOrCode struct {
	Char string
	Code int
}

// IsChar reports whether the value is a printable character.
func (c CharOrCode) IsChar() bool {
	return c.Char != ""
}

// String returns the character, or the decimal key code.
func (c CharOrCode) String() string {
	if c.Char != "" {
		return c.Char
	}
	return strconv.Itoa(c.Code)
}

// NewEvent creates an event as a native host would: canonical fields and
// working cancellation methods.
func NewEvent(typ string) *Event {
	evt := &Event{
		Type:      typ,
		Timestamp: time.Now(),
	}
	evt.SetCancellation(nativeStop, nativePrevent)
	return evt
}

// NewLegacyEvent creates a raw event as a legacy host would: no Target and
// no cancellation methods.
func NewLegacyEvent(typ string, src any) *Event {
	return &Event{
		Type:      typ,
		Timestamp: time.Now(),
		Legacy: Legacy{
			SrcElement: src,
		},
	}
}

func nativeStop(evt *Event)    { evt.stopped = true }
func nativePrevent(evt *Event) { evt.prevented = true }

// StopPropagation stops the event from bubbling further.
// It does nothing on a raw legacy event that has not been normalized.
func (e *Event) StopPropagation() {
	if e.stop != nil {
		e.stop(e)
	}
}

// PreventDefault suppresses the host's default action.
// It does nothing on a raw legacy event that has not been normalized.
func (e *Event) PreventDefault() {
	if e.prevent != nil {
		e.prevent(e)
	}
}

// HasCancellation reports whether StopPropagation and PreventDefault are wired.
func (e *Event) HasCancellation() bool {
	return e.stop != nil
}

// SetCancellation installs the StopPropagation and PreventDefault behavior.
func (e *Event) SetCancellation(stop, prevent func(*Event)) {
	e.stop = stop
	e.prevent = prevent
}

// PropagationStopped reports whether bubbling was stopped natively or via
// the legacy cancel-bubble flag.
func (e *Event) PropagationStopped() bool {
	return e.stopped || e.Legacy.CancelBubble
}

// DefaultPrevented reports whether the default action was suppressed.
func (e *Event) DefaultPrevented() bool {
	return e.prevented || e.Legacy.DefaultSuppressed
}

// SetKeyCode writes KeyCode, failing when the host marks it read-only.
func (e *Event) SetKeyCode(code int) error {
	if e.Legacy.KeyCodeReadOnly {
		return ErrKeyCodeReadOnly
	}
	e.KeyCode = code
	return nil
}
