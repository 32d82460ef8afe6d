// Package watch publishes filesystem changes to a hub as "fs/<op>" topics.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/dshills/evented/internal/topic"
)

// Errors returned by the watcher.
var (
	// ErrWatcherClosed is returned when operating on a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrPathNotExist is returned when watching a path that does not exist.
	ErrPathNotExist = errors.New("path does not exist")
)

// Publisher receives change notifications. *listen.Runtime implements it.
type Publisher interface {
	Publish(topic string, data any)
}

// Change is the payload of every published notification.
type Change struct {
	Path string `lua:"path"`
	Op   string `lua:"op"`
}

// Operation names, also the last topic segment.
const (
	OpCreate = "create"
	OpWrite  = "write"
	OpRemove = "remove"
	OpRename = "rename"
	OpChmod  = "chmod"
)

// Watcher turns fsnotify events into hub publishes.
type Watcher struct {
	fsw    *fsnotify.Watcher
	pub    Publisher
	prefix topic.Topic
	ignore []topic.Topic
	log    logr.Logger

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPrefix sets the topic prefix, "fs" by default.
func WithPrefix(prefix string) Option {
	return func(w *Watcher) {
		if prefix != "" {
			w.prefix = topic.Topic(prefix)
		}
	}
}

// WithIgnore skips paths matching any of patterns. Patterns use topic
// wildcards over "/"-separated paths, e.g. "**/.git/**".
func WithIgnore(patterns ...string) Option {
	return func(w *Watcher) {
		for _, p := range patterns {
			w.ignore = append(w.ignore, topic.Topic(strings.Trim(p, "/")))
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l logr.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// New creates a watcher publishing to pub.
func New(pub Publisher, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		pub:    pub,
		prefix: "fs",
		log:    logr.Discard(),
		paths:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches path. Directories are watched recursively, skipping ignored
// subtrees.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPathNotExist, path)
		}
		return err
	}
	if !info.IsDir() {
		return w.watch(absPath)
	}

	return filepath.WalkDir(absPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.Ignored(p) {
			return filepath.SkipDir
		}
		return w.watch(p)
	})
}

func (w *Watcher) watch(absPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[absPath] {
		return nil
	}
	if err := w.fsw.Add(absPath); err != nil {
		return fmt.Errorf("watching %s: %w", absPath, err)
	}
	w.paths[absPath] = true
	w.log.V(1).Info("watching", "path", absPath)
	return nil
}

// Paths returns the number of watched paths.
func (w *Watcher) Paths() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

// Ignored reports whether path matches an ignore pattern.
func (w *Watcher) Ignored(path string) bool {
	t := topic.Topic(strings.Trim(filepath.ToSlash(path), "/"))
	for _, pattern := range w.ignore {
		if t.Matches(pattern) {
			return true
		}
	}
	return false
}

// Run publishes changes until ctx is done or the watcher is closed.
// Publishes happen on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.Handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "watch error")
		}
	}
}

// Handle publishes one fsnotify event, once per operation it carries.
func (w *Watcher) Handle(ev fsnotify.Event) {
	if w.Ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		w.publish(OpCreate, ev.Name)
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.Add(ev.Name); err != nil {
				w.log.Error(err, "watching new directory", "path", ev.Name)
			}
		}
	}
	if ev.Has(fsnotify.Write) {
		w.publish(OpWrite, ev.Name)
	}
	if ev.Has(fsnotify.Remove) {
		w.publish(OpRemove, ev.Name)
	}
	if ev.Has(fsnotify.Rename) {
		w.publish(OpRename, ev.Name)
	}
	if ev.Has(fsnotify.Chmod) {
		w.publish(OpChmod, ev.Name)
	}
}

// Topic returns the topic an operation is published on.
func (w *Watcher) Topic(op string) string {
	return w.prefix.Child(op).String()
}

func (w *Watcher) publish(op, path string) {
	w.log.V(2).Info("change", "op", op, "path", path)
	w.pub.Publish(w.Topic(op), Change{Path: path, Op: op})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
