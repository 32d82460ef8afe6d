package listen

import (
	"sync/atomic"

	"github.com/dshills/evented/internal/aspect"
	"github.com/dshills/evented/internal/dom"
)

var defaultRuntime atomic.Pointer[Runtime]

// Default returns the process-wide runtime. Unless SetDefault was called it
// is a runtime for a native host.
func Default() *Runtime {
	if rt := defaultRuntime.Load(); rt != nil {
		return rt
	}
	defaultRuntime.CompareAndSwap(nil, New(dom.Features{NativeListeners: true}))
	return defaultRuntime.Load()
}

// SetDefault replaces the process-wide runtime.
func SetDefault(rt *Runtime) {
	defaultRuntime.Store(rt)
}

// On subscribes through the default runtime.
func On(target any, typ string, l Listener) Handle {
	return Default().On(target, typ, l)
}

// OnExtension subscribes to a custom event through the default runtime.
func OnExtension(target any, ext Extension, l Listener) Handle {
	return Default().OnExtension(target, ext, l)
}

// Subscribe subscribes to a topic on the default hub.
func Subscribe(topic string, l Listener) Handle {
	return Default().Subscribe(topic, l)
}

// Publish publishes to the default hub.
func Publish(topic string, data any) {
	Default().Publish(topic, data)
}

// Pausable subscribes through the default runtime with a pausable handle.
func Pausable(target any, typ string, l Listener) PausableHandle {
	return Default().Pausable(target, typ, l)
}

// Destroy subscribes to node destruction through the default runtime.
func Destroy(node aspect.Target[*dom.Event], l Listener) Handle {
	return Default().Destroy(node, l)
}
