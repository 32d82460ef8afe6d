package dom

import "sync"

// Features describes the host a document simulates. Features are fixed when
// the document is created.
type Features struct {
	// NativeListeners selects native listener registration and canonical
	// events. When false the host is a legacy one.
	NativeListeners bool

	// EngineVersion is the legacy engine version, or 0 when not a legacy
	// engine.
	EngineVersion float64
}

// LeakProne reports whether the host leaks handler closures across page
// reloads, which is the case for legacy engines older than 5.7.
func (f Features) LeakProne() bool {
	return f.EngineVersion > 0 && f.EngineVersion < 5.7
}

// CurrentEventSource exposes the host's ambient current event.
type CurrentEventSource interface {
	CurrentEvent() *Event
}

// Document is the root of a node tree and the owner of its window.
type Document struct {
	*node

	features Features
	window   Node

	mu      sync.Mutex
	current *Event
}

// NewDocument creates an empty document for a host with the given features.
func NewDocument(features Features) *Document {
	d := &Document{features: features}
	d.node = newNode("#document", d)
	d.node.self = d
	d.window = d.newElement("#window")
	return d
}

// Features returns the host features.
func (d *Document) Features() Features { return d.features }

// Window returns the document's window. The window is outside the tree.
func (d *Document) Window() Node { return d.window }

// Body returns the first child of the document, creating a "body" element
// if the document is empty.
func (d *Document) Body() Node {
	if children := d.Children(); len(children) > 0 {
		return children[0]
	}
	body := d.CreateElement("body")
	d.AppendChild(body)
	return body
}

// CreateElement creates a detached element of the host's flavor.
func (d *Document) CreateElement(name string) Node {
	return d.newElement(name)
}

func (d *Document) newElement(name string) Node {
	n := newNode(name, d)
	if d.features.NativeListeners {
		e := &NativeElement{node: n}
		n.self = e
		return e
	}
	e := &LegacyElement{node: n}
	n.self = e
	return e
}

// CurrentEvent implements CurrentEventSource. It returns nil outside of a
// legacy dispatch.
func (d *Document) CurrentEvent() *Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Document) swapCurrent(evt *Event) *Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.current
	d.current = evt
	return prev
}

// NewEvent creates an event of the host's flavor originating at target.
func (d *Document) NewEvent(typ string, target Node) *Event {
	if d.features.NativeListeners {
		evt := NewEvent(typ)
		evt.Target = target
		return evt
	}
	return NewLegacyEvent(typ, target)
}

// Dispatch delivers evt at target and bubbles it through the target's
// ancestors. At each node the registered listeners run first, then the
// "on"+type slot. It returns false if the default action was prevented.
func (d *Document) Dispatch(target Node, evt *Event) bool {
	if d.features.NativeListeners {
		d.dispatchNative(target, evt)
	} else {
		d.dispatchLegacy(target, evt)
	}
	return !evt.DefaultPrevented()
}

func (d *Document) dispatchNative(target Node, evt *Event) {
	if evt.Target == nil {
		evt.Target = target
	}
	if !evt.HasCancellation() {
		evt.SetCancellation(nativeStop, nativePrevent)
	}
	for n := target; n != nil; n = n.Parent() {
		evt.CurrentTarget = n
		fireNode(n, evt)
		if evt.PropagationStopped() {
			return
		}
	}
}

// dispatchLegacy passes the raw record to every handler. The record is also
// published as the document's current event for handlers that read it from
// there instead of their argument.
func (d *Document) dispatchLegacy(target Node, evt *Event) {
	if evt.Legacy.SrcElement == nil {
		evt.Legacy.SrcElement = target
	}
	prev := d.swapCurrent(evt)
	defer d.swapCurrent(prev)

	for n := target; n != nil; n = n.Parent() {
		fireNode(n, evt)
		if evt.PropagationStopped() {
			return
		}
	}
}

func fireNode(n Node, evt *Event) {
	if h, ok := n.(listenerHolder); ok {
		h.listeners().fire(evt)
	}
	if m := n.Method("on" + evt.Type); m != nil {
		m.Invoke(evt)
	}
}

// Unload fires "unload" at the window.
func (d *Document) Unload() {
	d.Dispatch(d.window, d.NewEvent("unload", d.window))
}
