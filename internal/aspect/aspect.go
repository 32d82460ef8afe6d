package aspect

import (
	"sync"
	"sync/atomic"
)

// Method is a value stored in a named slot.
type Method[A any] interface {
	Invoke(arg A)
}

// Func adapts a plain function to Method.
type Func[A any] func(arg A)

// Invoke implements Method.
func (f Func[A]) Invoke(arg A) {
	if f != nil {
		f(arg)
	}
}

// Target exposes named method slots.
// Method returns nil for an empty slot. SetMethod with a nil value empties it.
type Target[A any] interface {
	Method(name string) Method[A]
	SetMethod(name string, m Method[A])
}

// Handle removes a piece of advice.
type Handle interface {
	Cancel()
}

// kind identifies where advice runs relative to the original method.
type kind int

const (
	kindBefore kind = iota
	kindAround
	kindAfter
)

// advice is one link in a dispatcher chain.
type advice[A any] struct {
	kind    kind
	fn      func(A)
	wrap    func(next func(A)) func(A)
	removed atomic.Bool
}

// dispatcher replaces a slot value once advice is attached to it.
type dispatcher[A any] struct {
	mu       sync.Mutex
	target   Target[A]
	name     string
	original Method[A]
	before   []*advice[A]
	around   []*advice[A]
	after    []*advice[A]
}

// Invoke runs the chain. The chain is snapshotted before running so advice
// may cancel itself or others while it runs; cancelled advice is skipped.
func (d *dispatcher[A]) Invoke(arg A) {
	d.mu.Lock()
	original := d.original
	before := append([]*advice[A](nil), d.before...)
	around := append([]*advice[A](nil), d.around...)
	after := append([]*advice[A](nil), d.after...)
	d.mu.Unlock()

	for i := len(before) - 1; i >= 0; i-- {
		if !before[i].removed.Load() {
			before[i].fn(arg)
		}
	}

	call := func(a A) {
		if original != nil {
			original.Invoke(a)
		}
	}
	for _, adv := range around {
		if adv.removed.Load() {
			continue
		}
		call = adv.wrap(call)
	}
	call(arg)

	for _, adv := range after {
		if !adv.removed.Load() {
			adv.fn(arg)
		}
	}
}

// Len returns the number of live advice entries.
func (d *dispatcher[A]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.before) + len(d.around) + len(d.after)
}

func (d *dispatcher[A]) add(adv *advice[A]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch adv.kind {
	case kindBefore:
		d.before = append(d.before, adv)
	case kindAround:
		d.around = append(d.around, adv)
	default:
		d.after = append(d.after, adv)
	}
}

func (d *dispatcher[A]) remove(adv *advice[A]) {
	d.mu.Lock()
	switch adv.kind {
	case kindBefore:
		d.before = removeAdvice(d.before, adv)
	case kindAround:
		d.around = removeAdvice(d.around, adv)
	default:
		d.after = removeAdvice(d.after, adv)
	}
	empty := len(d.before)+len(d.around)+len(d.after) == 0
	original := d.original
	d.mu.Unlock()

	if !empty {
		return
	}
	// Only restore if nothing has overwritten the slot since.
	if cur, ok := d.target.Method(d.name).(*dispatcher[A]); ok && cur == d {
		d.target.SetMethod(d.name, original)
	}
}

func removeAdvice[A any](list []*advice[A], adv *advice[A]) []*advice[A] {
	for i, a := range list {
		if a == adv {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// handle is the Handle returned for a single piece of advice.
type handle[A any] struct {
	once sync.Once
	d    *dispatcher[A]
	adv  *advice[A]
}

// Cancel removes the advice. Safe to call more than once.
func (h *handle[A]) Cancel() {
	h.once.Do(func() {
		h.adv.removed.Store(true)
		h.d.remove(h.adv)
	})
}

// dispatcherFor returns the dispatcher installed on the slot, installing a
// new one over the current slot value when needed.
func dispatcherFor[A any](t Target[A], name string) *dispatcher[A] {
	cur := t.Method(name)
	if d, ok := cur.(*dispatcher[A]); ok {
		return d
	}
	d := &dispatcher[A]{
		target:   t,
		name:     name,
		original: cur,
	}
	t.SetMethod(name, d)
	return d
}

func attach[A any](t Target[A], name string, adv *advice[A]) Handle {
	d := dispatcherFor(t, name)
	d.add(adv)
	return &handle[A]{d: d, adv: adv}
}

// Before runs fn ahead of the slot's current method.
func Before[A any](t Target[A], name string, fn Method[A]) Handle {
	return attach(t, name, &advice[A]{kind: kindBefore, fn: fn.Invoke})
}

// After runs fn once the slot's current method returns.
func After[A any](t Target[A], name string, fn Method[A]) Handle {
	return attach(t, name, &advice[A]{kind: kindAfter, fn: fn.Invoke})
}

// Around wraps the slot's method. wrap receives the next method in the chain
// and returns its replacement.
func Around[A any](t Target[A], name string, wrap func(next func(A)) func(A)) Handle {
	return attach(t, name, &advice[A]{kind: kindAround, wrap: wrap})
}

// IsAdvised reports whether the slot currently holds an advice dispatcher.
func IsAdvised[A any](t Target[A], name string) bool {
	_, ok := t.Method(name).(*dispatcher[A])
	return ok
}

// AdviceCount returns how many pieces of advice are attached to the slot.
func AdviceCount[A any](t Target[A], name string) int {
	d, ok := t.Method(name).(*dispatcher[A])
	if !ok {
		return 0
	}
	return d.Len()
}

// Slots is a ready-made Target backed by a map.
// The zero value is ready to use.
type Slots[A any] struct {
	mu    sync.RWMutex
	slots map[string]Method[A]
}

// Method implements Target.
func (s *Slots[A]) Method(name string) Method[A] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[name]
}

// SetMethod implements Target.
func (s *Slots[A]) SetMethod(name string, m Method[A]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m == nil {
		delete(s.slots, name)
		return
	}
	if s.slots == nil {
		s.slots = make(map[string]Method[A])
	}
	s.slots[name] = m
}

// Names returns the names of all occupied slots.
func (s *Slots[A]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.slots))
	for name := range s.slots {
		names = append(names, name)
	}
	return names
}
