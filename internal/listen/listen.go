package listen

import (
	"sync"

	"github.com/dshills/evented/internal/dom"
)

// Listener receives an event.
type Listener func(evt *dom.Event)

// Handle cancels a subscription. Cancel is idempotent.
type Handle interface {
	Cancel()
}

// PausableHandle is a Handle that can also suspend delivery.
type PausableHandle interface {
	Handle

	// Pause drops events until Resume is called.
	Pause()

	// Resume restarts delivery.
	Resume()
}

// Subscriber is implemented by targets that handle their own subscriptions.
type Subscriber interface {
	On(typ string, l Listener) Handle
}

// Extension is a custom event: a function that subscribes l to target in
// whatever way the event requires.
type Extension func(target any, l Listener) Handle

// Strategy is how a subscription was attached to its target.
type Strategy int

const (
	// StrategyDelegate calls the target's own On method.
	StrategyDelegate Strategy = iota

	// StrategyNative registers with the target's native listener API.
	StrategyNative

	// StrategyAdvice attaches after-advice to the "on"+type slot.
	StrategyAdvice

	// StrategyHub attaches to a topic on the runtime's hub.
	StrategyHub
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyDelegate:
		return "delegate"
	case StrategyNative:
		return "native"
	case StrategyAdvice:
		return "advice"
	case StrategyHub:
		return "hub"
	default:
		return "unknown"
	}
}

// SlotName returns the conventional handler slot for an event type.
func SlotName(typ string) string {
	return "on" + typ
}

// signal is the Handle returned by the runtime.
type signal struct {
	once   sync.Once
	cancel func()
}

func newSignal(cancel func()) *signal {
	return &signal{cancel: cancel}
}

// Cancel implements Handle.
func (s *signal) Cancel() {
	s.once.Do(s.cancel)
}

// Compose returns a Handle that cancels every handle in hs.
func Compose(hs ...Handle) Handle {
	return newSignal(func() {
		for _, h := range hs {
			if h != nil {
				h.Cancel()
			}
		}
	})
}
