package listen

import (
	"sort"
	"strings"

	"github.com/dshills/evented/internal/aspect"
	"github.com/dshills/evented/internal/dom"
)

// Evented gives the struct embedding it On and Emit methods. The zero value
// uses the default runtime and targets itself.
//
//	type Widget struct {
//		listen.Evented
//	}
//
//	w := &Widget{}
//	w.Mixin(w)
//	w.On("open", onOpen)
//	w.Emit("open", nil)
type Evented struct {
	rt    *Runtime
	owner any
	slots aspect.Slots[*dom.Event]
}

// Mixin makes owner the target of On and Emit. owner normally embeds e.
func (e *Evented) Mixin(owner any) {
	e.owner = owner
}

// Bind selects the runtime subscriptions resolve through.
func (e *Evented) Bind(rt *Runtime) {
	e.rt = rt
}

func (e *Evented) runtime() *Runtime {
	if e.rt != nil {
		return e.rt
	}
	return Default()
}

func (e *Evented) self() any {
	if e.owner != nil {
		return e.owner
	}
	return e
}

// Method implements aspect.Target.
func (e *Evented) Method(name string) aspect.Method[*dom.Event] {
	return e.slots.Method(name)
}

// SetMethod implements aspect.Target.
func (e *Evented) SetMethod(name string, m aspect.Method[*dom.Event]) {
	e.slots.SetMethod(name, m)
}

// On implements Subscriber.
func (e *Evented) On(typ string, l Listener) Handle {
	return e.runtime().onTarget(e.self(), typ, l)
}

// OnExtension subscribes l to a custom event on the owner.
func (e *Evented) OnExtension(ext Extension, l Listener) Handle {
	return ext(e.self(), l)
}

// Emit invokes the listeners of typ with evt. It does nothing when there are
// none.
func (e *Evented) Emit(typ string, evt *dom.Event) {
	e.runtime().Emit(e.self(), typ, evt)
}

// Hub is the runtime's topic target.
type Hub struct {
	Evented
}

func newHub(rt *Runtime) *Hub {
	h := &Hub{}
	h.Bind(rt)
	h.Mixin(h)
	return h
}

// On implements Subscriber for a topic.
func (h *Hub) On(topic string, l Listener) Handle {
	return h.runtime().Subscribe(topic, l)
}

// Topics returns the sorted topics that have live subscriptions.
func (h *Hub) Topics() []string {
	var topics []string
	for _, name := range h.slots.Names() {
		if !strings.HasPrefix(name, "on") {
			continue
		}
		if aspect.AdviceCount[*dom.Event](h, name) > 0 {
			topics = append(topics, strings.TrimPrefix(name, "on"))
		}
	}
	sort.Strings(topics)
	return topics
}
