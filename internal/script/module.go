package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/keycode"
	"github.com/dshills/evented/internal/listen"
	"github.com/dshills/evented/internal/topic"
)

// ModuleName is the name scripts require.
const ModuleName = "evented"

const handleTypeName = "evented.handle"

func (e *Engine) loader(L *lua.LState) int {
	mt := L.NewTypeMetatable(handleTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"cancel": e.handleCancel,
		"pause":  handlePause,
		"resume": handleResume,
	}))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"subscribe": e.subscribe,
		"publish":   e.publish,
		"log":       e.logf,
		"keycode":   keycodeOf,
	})
	L.Push(mod)
	return 1
}

// subscribe(topic, fn) -> handle
func (e *Engine) subscribe(L *lua.LState) int {
	name := checkTopic(L, 1)
	fn := L.CheckFunction(2)

	h := e.rt.SubscribePausable(name, func(evt *dom.Event) {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, eventToTable(L, evt)); err != nil {
			panic(&ListenerError{Topic: name, Err: err})
		}
	})
	e.track(h)

	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(handleTypeName))
	L.Push(ud)
	return 1
}

// publish(topic, value)
func (e *Engine) publish(L *lua.LState) int {
	name := checkTopic(L, 1)
	data := ToGo(L.Get(2))

	var failure error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					failure = err
					return
				}
				failure = fmt.Errorf("%v", r)
			}
		}()
		e.rt.Publish(name, data)
	}()
	if failure != nil {
		L.RaiseError("%s", failure.Error())
	}
	return 0
}

// log(msg, ...)
func (e *Engine) logf(L *lua.LState) int {
	msg := L.CheckString(1)
	var kv []any
	for i := 2; i+1 <= L.GetTop(); i += 2 {
		kv = append(kv, L.CheckString(i), ToGo(L.Get(i+1)))
	}
	e.log.Info(msg, kv...)
	return 0
}

// keycode(name) -> number or nil
func keycodeOf(L *lua.LState) int {
	code, ok := keycode.Parse(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(code))
	return 1
}

func checkTopic(L *lua.LState, n int) string {
	name := L.CheckString(n)
	if !topic.Topic(name).IsValid() || topic.Topic(name).IsWildcard() {
		L.ArgError(n, fmt.Sprintf("%v: %q", ErrInvalidTopic, name))
	}
	return name
}

func checkHandle(L *lua.LState) listen.PausableHandle {
	ud := L.CheckUserData(1)
	h, ok := ud.Value.(listen.PausableHandle)
	if !ok {
		L.ArgError(1, "handle expected")
	}
	return h
}

func (e *Engine) handleCancel(L *lua.LState) int {
	h := checkHandle(L)
	h.Cancel()
	e.untrack(h)
	return 0
}

func handlePause(L *lua.LState) int {
	checkHandle(L).Pause()
	return 0
}

func handleResume(L *lua.LState) int {
	checkHandle(L).Resume()
	return 0
}
