package script

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evented/internal/listen"
)

// DefaultTimeout bounds a single DoFile or DoString call.
const DefaultTimeout = 5 * time.Second

// Engine is a sandboxed Lua state bound to a runtime's hub.
type Engine struct {
	L *lua.LState

	rt      *listen.Runtime
	log     logr.Logger
	timeout time.Duration

	mu      sync.Mutex
	handles []listen.Handle
	closed  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger behind evented.log.
func WithLogger(l logr.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithTimeout sets the execution timeout for DoFile and DoString.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a sandboxed engine whose scripts use rt.
func NewEngine(rt *listen.Runtime, opts ...Option) *Engine {
	e := &Engine{
		rt:      rt,
		log:     logr.Discard(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.L.PreloadModule(ModuleName, e.loader)
	return e
}

// openSafeLibraries opens the standard libraries that cannot reach the
// filesystem or the process, and removes the loaders that could.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// DoFile runs a script file.
func (e *Engine) DoFile(path string) error {
	return e.do(filepath.Base(path), func() error {
		return e.L.DoFile(path)
	})
}

// DoString runs a chunk of Lua.
func (e *Engine) DoString(code string) error {
	return e.do("<string>", func() error {
		return e.L.DoString(code)
	})
}

func (e *Engine) do(name string, fn func() error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic in %s: %v", name, r)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}
	e.log.V(1).Info("script loaded", "script", name)
	return nil
}

// Subscriptions returns the number of live script subscriptions.
func (e *Engine) Subscriptions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handles)
}

func (e *Engine) track(h listen.Handle) {
	e.handles = append(e.handles, h)
}

func (e *Engine) untrack(h listen.Handle) {
	for i, cur := range e.handles {
		if cur == h {
			e.handles = append(e.handles[:i], e.handles[i+1:]...)
			return
		}
	}
}

// Close cancels every script subscription and closes the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for _, h := range e.handles {
		h.Cancel()
	}
	e.handles = nil
	e.L.Close()
}
