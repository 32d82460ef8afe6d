package listen

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/dshills/evented/internal/aspect"
	"github.com/dshills/evented/internal/dom"
)

// Runtime resolves subscriptions for one host environment. Host features
// are fixed when the runtime is created.
type Runtime struct {
	log       logr.Logger
	rec       Recorder
	features  dom.Features
	normalize bool
	teardown  *Teardown
	hub       *Hub
	doc       *dom.Document
	unload    Handle

	sideMu sync.Mutex
	side   map[any]*sideTable

	subscribed atomic.Uint64
	cancelled  atomic.Uint64
	published  atomic.Uint64
}

// Stats contains runtime counters.
type Stats struct {
	Subscribed uint64
	Cancelled  uint64
	Published  uint64
	Teardowns  uint64

	// SideTables is the number of plain values currently holding a slot
	// table for live subscriptions.
	SideTables int
}

// sideTable holds the handler slots of a target that has none of its own.
// refs counts the live subscriptions using it.
type sideTable struct {
	slots aspect.Slots[*dom.Event]
	refs  int
}

// New creates a runtime for a host with the given features.
func New(features dom.Features, opts ...Option) *Runtime {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Runtime{
		log:       cfg.logger,
		rec:       cfg.recorder,
		features:  features,
		normalize: !features.NativeListeners,
		doc:       cfg.document,
		side:      make(map[any]*sideTable),
	}
	r.hub = newHub(r)

	if features.LeakProne() && !cfg.allowLeaks {
		r.teardown = newTeardown(r.log, r.rec)
	}
	if r.teardown != nil && r.doc != nil {
		doc := r.doc
		r.unload = r.On(doc.Window(), "unload", func(*dom.Event) {
			r.teardown.Run(doc)
		})
	}

	r.log.V(1).Info("runtime created",
		"native", features.NativeListeners,
		"engine", features.EngineVersion,
		"teardown", r.teardown != nil)
	return r
}

// Features returns the host features the runtime was created for.
func (r *Runtime) Features() dom.Features { return r.features }

// Hub returns the runtime's topic hub.
func (r *Runtime) Hub() *Hub { return r.hub }

// Teardown returns the teardown chain, or nil when it is inactive.
func (r *Runtime) Teardown() *Teardown { return r.teardown }

// Document returns the bound document, if any.
func (r *Runtime) Document() *dom.Document { return r.doc }

// Stats returns a snapshot of the runtime counters.
func (r *Runtime) Stats() Stats {
	s := Stats{
		Subscribed: r.subscribed.Load(),
		Cancelled:  r.cancelled.Load(),
		Published:  r.published.Load(),
	}
	if r.teardown != nil {
		s.Teardowns = r.teardown.Passes()
	}
	r.sideMu.Lock()
	s.SideTables = len(r.side)
	r.sideMu.Unlock()
	return s
}

// Close releases the runtime's own unload subscription.
func (r *Runtime) Close() {
	if r.unload != nil {
		r.unload.Cancel()
	}
}

// Probe reports how On would attach to target.
func (r *Runtime) Probe(target any) Strategy {
	if target == any(r.hub) {
		return StrategyHub
	}
	if _, ok := target.(Subscriber); ok {
		return StrategyDelegate
	}
	if _, ok := target.(dom.NativeTarget); ok {
		return StrategyNative
	}
	return StrategyAdvice
}

// On subscribes l to events of type typ on target.
func (r *Runtime) On(target any, typ string, l Listener) Handle {
	switch r.Probe(target) {
	case StrategyHub:
		return r.Subscribe(typ, l)
	case StrategyDelegate:
		// The target's own On does the counting when it resolves back to
		// this runtime.
		r.log.V(1).Info("delegating", "type", typ)
		return target.(Subscriber).On(typ, l)
	default:
		return r.onTarget(target, typ, l)
	}
}

// OnExtension subscribes l to a custom event on target.
func (r *Runtime) OnExtension(target any, ext Extension, l Listener) Handle {
	return ext(target, l)
}

// Subscribe subscribes l to a hub topic.
func (r *Runtime) Subscribe(topic string, l Listener) Handle {
	return r.advise(r.hub, topic, l, StrategyHub)
}

// Publish delivers data to every subscriber of topic. Publishing to a topic
// with no subscribers does nothing.
func (r *Runtime) Publish(topic string, data any) {
	r.published.Add(1)
	r.rec.Published(topic)
	r.hub.Emit(topic, &dom.Event{Type: topic, Data: data})
}

// Emit invokes the "on"+typ slot of target with evt. It does nothing when
// the slot is empty. A nil evt is replaced by an event of type typ.
func (r *Runtime) Emit(target any, typ string, evt *dom.Event) {
	slots := r.lookup(target)
	if slots == nil {
		return
	}
	emit(slots, typ, evt)
}

func emit(t aspect.Target[*dom.Event], typ string, evt *dom.Event) {
	m := t.Method(SlotName(typ))
	if m == nil {
		return
	}
	if evt == nil {
		evt = &dom.Event{Type: typ}
	} else if evt.Type == "" {
		evt.Type = typ
	}
	m.Invoke(evt)
}

// onTarget attaches l directly to target, skipping delegation.
func (r *Runtime) onTarget(target any, typ string, l Listener) Handle {
	if nt, ok := target.(dom.NativeTarget); ok {
		return r.native(nt, typ, l)
	}
	return r.advise(target, typ, l, StrategyAdvice)
}

func (r *Runtime) native(nt dom.NativeTarget, typ string, l Listener) Handle {
	dl := dom.NewListener(l)
	nt.AddEventListener(typ, dl, false)
	r.track(StrategyNative)
	r.log.V(1).Info("subscribed", "type", typ, "strategy", StrategyNative)

	return newSignal(func() {
		nt.RemoveEventListener(typ, dl, false)
		r.untrack(StrategyNative)
	})
}

func (r *Runtime) advise(target any, typ string, l Listener, s Strategy) Handle {
	slots, release := r.acquire(target)

	if r.teardown != nil {
		if _, ok := target.(dom.LegacyTarget); ok {
			r.teardown.Mark(slots, typ)
		}
	}

	fn := l
	if r.normalize && s != StrategyHub {
		fn = func(evt *dom.Event) {
			l(Normalize(evt, target))
		}
	}

	h := aspect.After[*dom.Event](slots, SlotName(typ), aspect.Func[*dom.Event](fn))
	r.track(s)
	r.log.V(1).Info("subscribed", "type", typ, "strategy", s)

	return newSignal(func() {
		h.Cancel()
		release()
		r.untrack(s)
	})
}

// lookup returns the handler slots of target, or nil when target has none.
func (r *Runtime) lookup(target any) aspect.Target[*dom.Event] {
	if t, ok := target.(aspect.Target[*dom.Event]); ok {
		return t
	}
	if !reflect.ValueOf(target).Comparable() {
		return nil
	}

	r.sideMu.Lock()
	defer r.sideMu.Unlock()
	if st, ok := r.side[target]; ok {
		return &st.slots
	}
	return nil
}

// acquire returns the handler slots a new subscription on target attaches
// to, and the func that releases them when the subscription ends. Targets
// without slots share a side table that is dropped with its last
// subscription.
func (r *Runtime) acquire(target any) (aspect.Target[*dom.Event], func()) {
	if t, ok := target.(aspect.Target[*dom.Event]); ok {
		return t, func() {}
	}
	if !reflect.ValueOf(target).Comparable() {
		r.log.V(1).Info("target is not comparable, using a detached slot table")
		return &aspect.Slots[*dom.Event]{}, func() {}
	}

	r.sideMu.Lock()
	defer r.sideMu.Unlock()

	st, ok := r.side[target]
	if !ok {
		st = &sideTable{}
		r.side[target] = st
	}
	st.refs++
	return &st.slots, func() {
		r.sideMu.Lock()
		defer r.sideMu.Unlock()
		st.refs--
		if st.refs == 0 && r.side[target] == st {
			delete(r.side, target)
		}
	}
}

func (r *Runtime) track(s Strategy) {
	r.subscribed.Add(1)
	r.rec.Subscribed(s)
}

func (r *Runtime) untrack(s Strategy) {
	r.cancelled.Add(1)
	r.rec.Cancelled(s)
}
