package dom

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/evented/internal/aspect"
)

// EventListener receives events through a native listener registry.
// Implementations must be comparable; removal matches by identity.
type EventListener interface {
	HandleEvent(evt *Event)
}

// Listener adapts a function to EventListener. Each Listener is a distinct
// registration identity.
type Listener struct {
	fn func(*Event)
}

// NewListener wraps fn as an EventListener.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{fn: fn}
}

// HandleEvent implements EventListener.
func (l *Listener) HandleEvent(evt *Event) {
	if l.fn != nil {
		l.fn(evt)
	}
}

// NativeTarget is implemented by targets with native listener registration.
type NativeTarget interface {
	AddEventListener(typ string, l EventListener, capture bool)
	RemoveEventListener(typ string, l EventListener, capture bool)
}

// LegacyTarget is implemented by targets with the legacy attach API.
// Names carry the "on" prefix, e.g. "onclick".
type LegacyTarget interface {
	AttachEvent(name string, l EventListener) bool
	DetachEvent(name string, l EventListener)
}

// TreeWalker returns every descendant of a node in document order.
type TreeWalker interface {
	Descendants() []Node
}

// Node is an element of a document tree. Every node carries named handler
// slots ("onclick", ...) in addition to whatever listener API its host has.
type Node interface {
	aspect.Target[*Event]
	TreeWalker

	// ID returns the node's unique identifier.
	ID() string

	// Name returns the node's tag name.
	Name() string

	Parent() Node
	Children() []Node
	AppendChild(child Node)
	RemoveChild(child Node) error

	// OwnerDocument returns the document the node was created by.
	OwnerDocument() *Document

	base() *node
}

// node holds the state shared by every Node implementation.
type node struct {
	aspect.Slots[*Event]

	id   string
	name string
	self Node
	doc  *Document

	mu       sync.RWMutex
	parent   Node
	children []Node
}

func newNode(name string, doc *Document) *node {
	return &node{
		id:   uuid.NewString(),
		name: name,
		doc:  doc,
	}
}

func (n *node) base() *node { return n }

// ID implements Node.
func (n *node) ID() string { return n.id }

// Name implements Node.
func (n *node) Name() string { return n.name }

// OwnerDocument implements Node.
func (n *node) OwnerDocument() *Document { return n.doc }

// Parent implements Node.
func (n *node) Parent() Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children implements Node.
func (n *node) Children() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Node(nil), n.children...)
}

// AppendChild implements Node. A child that already has a parent is moved.
func (n *node) AppendChild(child Node) {
	cb := child.base()
	if old := cb.Parent(); old != nil {
		_ = old.RemoveChild(child)
	}

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()

	cb.mu.Lock()
	cb.parent = n.self
	cb.mu.Unlock()
}

// RemoveChild implements Node.
func (n *node) RemoveChild(child Node) error {
	n.mu.Lock()
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return ErrNotChild
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	n.mu.Unlock()

	cb := child.base()
	cb.mu.Lock()
	cb.parent = nil
	cb.mu.Unlock()
	return nil
}

// Descendants implements TreeWalker.
func (n *node) Descendants() []Node {
	var out []Node
	var walk func(Node)
	walk = func(cur Node) {
		for _, c := range cur.Children() {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n.self)
	return out
}

// registration is one entry in a listener registry.
type registration struct {
	l       EventListener
	capture bool
}

// registry stores listeners per event type in registration order.
type registry struct {
	mu     sync.RWMutex
	byType map[string][]registration
}

func (r *registry) add(typ string, reg registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byType[typ] {
		if existing == reg {
			return
		}
	}
	if r.byType == nil {
		r.byType = make(map[string][]registration)
	}
	r.byType[typ] = append(r.byType[typ], reg)
}

func (r *registry) remove(typ string, reg registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byType[typ]
	for i, existing := range list {
		if existing == reg {
			r.byType[typ] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.byType[typ]) == 0 {
		delete(r.byType, typ)
	}
}

func (r *registry) has(typ string, reg registration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, existing := range r.byType[typ] {
		if existing == reg {
			return true
		}
	}
	return false
}

func (r *registry) count(typ string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType[typ])
}

// fire calls the listeners registered for the event's type. Listeners
// removed while firing are skipped.
func (r *registry) fire(evt *Event) {
	r.mu.RLock()
	list := append([]registration(nil), r.byType[evt.Type]...)
	r.mu.RUnlock()

	for _, reg := range list {
		if r.has(evt.Type, reg) {
			reg.l.HandleEvent(evt)
		}
	}
}

// listenerHolder is implemented by nodes whose host fires registered
// listeners during dispatch.
type listenerHolder interface {
	listeners() *registry
}

// NativeElement is a node on a host with native listener registration.
type NativeElement struct {
	*node
	reg registry
}

// AddEventListener implements NativeTarget. Adding the same listener twice
// is a no-op.
func (e *NativeElement) AddEventListener(typ string, l EventListener, capture bool) {
	e.reg.add(typ, registration{l: l, capture: capture})
}

// RemoveEventListener implements NativeTarget.
func (e *NativeElement) RemoveEventListener(typ string, l EventListener, capture bool) {
	e.reg.remove(typ, registration{l: l, capture: capture})
}

// ListenerCount returns how many listeners are registered for typ.
func (e *NativeElement) ListenerCount(typ string) int {
	return e.reg.count(typ)
}

func (e *NativeElement) listeners() *registry { return &e.reg }

// LegacyElement is a node on a host with only the attach API and handler
// slots.
type LegacyElement struct {
	*node
	reg registry
}

// AttachEvent implements LegacyTarget.
func (e *LegacyElement) AttachEvent(name string, l EventListener) bool {
	e.reg.add(trimOn(name), registration{l: l})
	return true
}

// DetachEvent implements LegacyTarget.
func (e *LegacyElement) DetachEvent(name string, l EventListener) {
	e.reg.remove(trimOn(name), registration{l: l})
}

func (e *LegacyElement) listeners() *registry { return &e.reg }

func trimOn(name string) string {
	if len(name) > 2 && name[:2] == "on" {
		return name[2:]
	}
	return name
}
