// Package listen provides one subscription contract over every kind of event
// target.
//
// A Runtime resolves each subscription once, when it is made:
//
//   - targets with their own On method are delegated to;
//   - targets with native listener registration (dom.NativeTarget) get a
//     native listener;
//   - everything else gets after-advice on the "on"+type handler slot.
//
// Every path returns a Handle whose Cancel fully detaches the listener.
//
// On hosts without native listeners the advice path normalizes raw events
// (see Normalize) and, on leak-prone engines, a Teardown chain clears every
// handler slot it has seen when the window unloads or a node is destroyed.
//
// The same Runtime is a topic hub: Subscribe and Publish address the hub's
// "on"+topic slots. Evented gives any struct On and Emit methods with the
// same semantics.
//
// Delivery is synchronous, in the calling goroutine. Listener panics
// propagate to whoever emitted the event.
package listen
