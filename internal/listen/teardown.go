package listen

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/dshills/evented/internal/aspect"
	"github.com/dshills/evented/internal/dom"
)

// MarkerSlot is the handler slot that marks a node as holding handlers that
// must be cleared on teardown. No host fires it.
const MarkerSlot = "onpage"

// PageEvent is the event type delivered to destroy listeners.
const PageEvent = "page"

// Teardown states.
const (
	stateArmed int32 = iota
	statePropagating
)

// Registry is the set of event types subscribed through the legacy slot
// path. It only grows.
type Registry struct {
	mu   sync.RWMutex
	used map[string]struct{}
}

// Add records an event type.
func (r *Registry) Add(typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.used == nil {
		r.used = make(map[string]struct{})
	}
	r.used[typ] = struct{}{}
}

// Len returns the number of recorded types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.used)
}

// Slots returns the sorted "on"+type slot names of every recorded type.
func (r *Registry) Slots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.used))
	for typ := range r.used {
		names = append(names, SlotName(typ))
	}
	sort.Strings(names)
	return names
}

// Teardown clears handler slots of marked nodes so that the handlers, and
// everything they reference, can be collected.
//
// A pass walks a subtree in reverse document order and invokes the marker
// of every marked node, then clears the root. The marker clears every used
// slot on its node. Invoked outside a pass, a marker starts a pass rooted at
// its own node.
type Teardown struct {
	log      logr.Logger
	rec      Recorder
	registry Registry
	state    atomic.Int32
	passes   atomic.Uint64

	mu    sync.Mutex
	slots []string
}

func newTeardown(log logr.Logger, rec Recorder) *Teardown {
	return &Teardown{log: log, rec: rec}
}

// Registry returns the used-events registry.
func (t *Teardown) Registry() *Registry { return &t.registry }

// Passes returns the number of completed passes.
func (t *Teardown) Passes() uint64 { return t.passes.Load() }

// Propagating reports whether a pass is running.
func (t *Teardown) Propagating() bool {
	return t.state.Load() == statePropagating
}

// Mark records typ as used and installs the marker on node if it has none.
func (t *Teardown) Mark(node aspect.Target[*dom.Event], typ string) {
	t.registry.Add(typ)
	if node.Method(MarkerSlot) != nil {
		return
	}
	node.SetMethod(MarkerSlot, aspect.Func[*dom.Event](func(*dom.Event) {
		if t.Propagating() {
			t.clear(node)
			return
		}
		t.Run(node)
	}))
}

// Run performs a pass rooted at root. Calls made while a pass is running are
// ignored.
func (t *Teardown) Run(root aspect.Target[*dom.Event]) {
	if !t.state.CompareAndSwap(stateArmed, statePropagating) {
		t.log.V(2).Info("teardown already propagating")
		return
	}
	defer t.state.Store(stateArmed)

	slots := t.registry.Slots()
	t.mu.Lock()
	t.slots = slots
	t.mu.Unlock()

	visited := 0
	if w, ok := root.(dom.TreeWalker); ok {
		nodes := w.Descendants()
		for i := len(nodes) - 1; i >= 0; i-- {
			n := nodes[i]
			if m := n.Method(MarkerSlot); m != nil {
				m.Invoke(pageEvent(n))
				visited++
				t.log.V(2).Info("node torn down", "node", n.Name())
			}
		}
	}

	if m := root.Method(MarkerSlot); m != nil {
		m.Invoke(pageEvent(root))
		visited++
	}
	t.clear(root)
	root.SetMethod(MarkerSlot, nil)

	t.mu.Lock()
	t.slots = nil
	t.mu.Unlock()

	t.passes.Add(1)
	t.rec.TeardownPass(visited, len(slots))
	t.log.V(2).Info("teardown pass complete", "nodes", visited, "slots", len(slots))
}

// clear empties the slots snapshotted for the current pass.
func (t *Teardown) clear(node aspect.Target[*dom.Event]) {
	t.mu.Lock()
	slots := t.slots
	t.mu.Unlock()

	for _, name := range slots {
		if node.Method(name) != nil {
			node.SetMethod(name, nil)
		}
	}
}

func pageEvent(target any) *dom.Event {
	return &dom.Event{Type: PageEvent, Target: target, CurrentTarget: target}
}
