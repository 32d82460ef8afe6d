package script

import "errors"

// Errors for script engine operations.
var (
	// ErrEngineClosed is returned when operating on a closed engine.
	ErrEngineClosed = errors.New("script engine is closed")

	// ErrInvalidTopic is raised in Lua for an empty or malformed topic.
	ErrInvalidTopic = errors.New("invalid topic")
)

// ListenerError is the panic value when a Lua listener fails.
type ListenerError struct {
	Topic string
	Err   error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return "lua listener for " + e.Topic + ": " + e.Err.Error()
}

// Unwrap returns the underlying Lua error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}
