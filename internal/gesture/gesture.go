// Package gesture defines extension events that combine several host event
// types into one.
package gesture

import (
	"github.com/dshills/evented/internal/listen"
)

// Combine returns an extension event that fires for any of types.
// A nil rt uses the default runtime.
func Combine(rt *listen.Runtime, types ...string) listen.Extension {
	return func(target any, l listen.Listener) listen.Handle {
		r := rt
		if r == nil {
			r = listen.Default()
		}
		hs := make([]listen.Handle, 0, len(types))
		for _, typ := range types {
			hs = append(hs, r.On(target, typ, l))
		}
		return listen.Compose(hs...)
	}
}

// Press fires when a pointer or touch goes down.
func Press(rt *listen.Runtime) listen.Extension {
	return Combine(rt, "mousedown", "touchstart")
}

// Release fires when a pointer or touch goes up.
func Release(rt *listen.Runtime) listen.Extension {
	return Combine(rt, "mouseup", "touchend")
}

// Move fires when a pointer or touch moves.
func Move(rt *listen.Runtime) listen.Extension {
	return Combine(rt, "mousemove", "touchmove")
}
