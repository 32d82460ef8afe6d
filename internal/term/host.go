package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"

	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/listen"
)

// Host feeds terminal input into a document. Key and mouse events are
// dispatched at the focused node, which defaults to the document body.
type Host struct {
	doc   *dom.Document
	focus dom.Node
	tr    Translator
	log   logr.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(log logr.Logger) HostOption {
	return func(h *Host) { h.log = log }
}

// NewHost creates a host for doc.
func NewHost(doc *dom.Document, opts ...HostOption) *Host {
	h := &Host{
		doc: doc,
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.focus = doc.Body()
	return h
}

// Document returns the host document.
func (h *Host) Document() *dom.Document { return h.doc }

// Focus returns the node input is dispatched at.
func (h *Host) Focus() dom.Node { return h.focus }

// SetFocus moves input focus to n. A nil n resets focus to the body.
func (h *Host) SetFocus(n dom.Node) {
	if n == nil {
		n = h.doc.Body()
	}
	h.focus = n
}

// Handle dispatches a tcell event. It reports whether the event was key or
// mouse input.
func (h *Host) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		h.HandleKey(ev)
		return true
	case *tcell.EventMouse:
		h.HandleMouse(ev)
		return true
	default:
		return false
	}
}

// HandleKey dispatches the events for one key and returns them.
func (h *Host) HandleKey(src KeySource) []*dom.Event {
	return h.dispatch(h.tr.Key(src, h.focus))
}

// HandleMouse dispatches the events for one mouse report and returns them.
func (h *Host) HandleMouse(src MouseSource) []*dom.Event {
	return h.dispatch(h.tr.Mouse(src, h.focus))
}

func (h *Host) dispatch(records []*dom.Event) []*dom.Event {
	out := make([]*dom.Event, 0, len(records))
	for _, raw := range records {
		evt := raw
		if h.doc.Features().NativeListeners {
			evt = h.canonical(raw)
		}
		ok := h.doc.Dispatch(h.focus, evt)
		h.log.V(3).Info("dispatched terminal input", "type", evt.Type, "node", h.focus.Name(), "default", ok)
		out = append(out, evt)
	}
	return out
}

// canonical converts a raw record into the event a native host would
// deliver for the same input.
func (h *Host) canonical(raw *dom.Event) *dom.Event {
	norm := listen.Normalize(raw, h.focus)

	evt := dom.NewEvent(norm.Type)
	evt.Timestamp = norm.Timestamp
	evt.Target = h.focus
	evt.LayerX = norm.LayerX
	evt.LayerY = norm.LayerY
	evt.Button = norm.Button
	evt.KeyCode = norm.KeyCode
	evt.CharCode = norm.CharCode
	evt.KeyChar = norm.KeyChar
	evt.CharOrCode = norm.CharOrCode
	evt.CtrlKey = norm.CtrlKey
	evt.AltKey = norm.AltKey
	evt.ShiftKey = norm.ShiftKey
	evt.MetaKey = norm.MetaKey
	evt.Data = norm.Data
	evt.Legacy.HasCharCode = norm.Legacy.HasCharCode
	return evt
}
