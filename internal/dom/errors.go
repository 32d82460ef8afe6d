package dom

import "errors"

var (
	// ErrKeyCodeReadOnly is returned when a host rejects a write to KeyCode.
	ErrKeyCodeReadOnly = errors.New("key code is read-only")

	// ErrNotChild is returned when removing a node that is not a child.
	ErrNotChild = errors.New("node is not a child")
)
