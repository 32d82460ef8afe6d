package listen

import (
	"github.com/go-logr/logr"

	"github.com/dshills/evented/internal/dom"
)

// Option configures a Runtime.
type Option func(*runtimeConfig)

// runtimeConfig contains configuration for a Runtime.
type runtimeConfig struct {
	// logger receives debug output. V(1) logs subscriptions, V(2) logs
	// teardown detail.
	logger logr.Logger

	// recorder observes subscriptions, publishes and teardown passes.
	recorder Recorder

	// allowLeaks disables the teardown chain on leak-prone engines.
	allowLeaks bool

	// document is the document whose window unload runs teardown.
	document *dom.Document
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		logger:   logr.Discard(),
		recorder: nopRecorder{},
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l logr.Logger) Option {
	return func(c *runtimeConfig) {
		c.logger = l
	}
}

// WithRecorder sets the activity recorder.
func WithRecorder(r Recorder) Option {
	return func(c *runtimeConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithAllowLeaks opts out of the teardown chain.
func WithAllowLeaks(allow bool) Option {
	return func(c *runtimeConfig) {
		c.allowLeaks = allow
	}
}

// WithDocument binds the runtime to a document. When the teardown chain is
// active the runtime subscribes to the document window's unload and tears
// the whole document down.
func WithDocument(doc *dom.Document) Option {
	return func(c *runtimeConfig) {
		c.document = doc
	}
}
