package listen

import (
	"sync/atomic"

	"github.com/dshills/evented/internal/dom"
)

// pausable gates delivery to a listener without touching the subscription.
type pausable struct {
	Handle
	paused atomic.Bool
}

// Pause implements PausableHandle.
func (p *pausable) Pause() { p.paused.Store(true) }

// Resume implements PausableHandle.
func (p *pausable) Resume() { p.paused.Store(false) }

func (p *pausable) wrap(l Listener) Listener {
	return func(evt *dom.Event) {
		if !p.paused.Load() {
			l(evt)
		}
	}
}

// Pausable subscribes like On and returns a handle that can pause delivery.
func (r *Runtime) Pausable(target any, typ string, l Listener) PausableHandle {
	p := &pausable{}
	p.Handle = r.On(target, typ, p.wrap(l))
	return p
}

// SubscribePausable subscribes like Subscribe and returns a handle that can
// pause delivery.
func (r *Runtime) SubscribePausable(topic string, l Listener) PausableHandle {
	p := &pausable{}
	p.Handle = r.Subscribe(topic, p.wrap(l))
	return p
}
