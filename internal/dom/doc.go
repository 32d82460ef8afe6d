// Package dom models the host environment events are dispatched in.
//
// A Document owns a tree of nodes and a window. The document is created for
// a fixed set of Features: a native host registers listeners with
// AddEventListener and delivers canonical events, while a legacy host only
// offers AttachEvent and named handler slots and delivers raw records that
// must be normalized before use.
//
// Every node, whatever its host, exposes its handler slots ("onclick",
// "onkeypress", ...) through aspect.Target so advice can be attached to them.
package dom
