package script

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evented/internal/dom"
)

// ToGo converts a Lua value to a Go value. Tables with contiguous integer
// keys from 1 become []any, other tables map[string]any.
func ToGo(lv lua.LValue) any {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGo(v, visited)
	})
	return m
}

// ToLua converts a Go value to a Lua value. Structs and other values without
// a direct mapping go through reflection; anything else becomes its string
// form.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(ToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, ToLua(L, item))
		}
		return t
	case fmt.Stringer:
		return lua.LString(val.String())
	}
	return reflectToLua(L, reflect.ValueOf(v))
}

func reflectToLua(L *lua.LState, rv reflect.Value) lua.LValue {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
		return reflectToLua(L, rv.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Slice, reflect.Array:
		t := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.Append(reflectToLua(L, rv.Index(i)))
		}
		return t
	case reflect.Map:
		t := L.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSetString(fmt.Sprint(iter.Key().Interface()), reflectToLua(L, iter.Value()))
		}
		return t
	case reflect.Struct:
		t := L.NewTable()
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Tag.Get("lua")
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			t.RawSetString(name, reflectToLua(L, rv.Field(i)))
		}
		return t
	case reflect.Invalid:
		return lua.LNil
	}
	if rv.CanInterface() {
		return lua.LString(fmt.Sprint(rv.Interface()))
	}
	return lua.LNil
}

// eventToTable converts an event to the table script listeners receive.
func eventToTable(L *lua.LState, evt *dom.Event) *lua.LTable {
	t := L.NewTable()
	if evt == nil {
		return t
	}
	t.RawSetString("type", lua.LString(evt.Type))
	t.RawSetString("data", ToLua(L, evt.Data))
	if evt.KeyCode != 0 || evt.CharCode != 0 {
		t.RawSetString("key_code", lua.LNumber(evt.KeyCode))
		t.RawSetString("char_code", lua.LNumber(evt.CharCode))
		t.RawSetString("key_char", lua.LString(evt.KeyChar))
		t.RawSetString("char_or_code", lua.LString(evt.CharOrCode.String()))
	}
	t.RawSetString("ctrl", lua.LBool(evt.CtrlKey))
	t.RawSetString("alt", lua.LBool(evt.AltKey))
	t.RawSetString("shift", lua.LBool(evt.ShiftKey))
	return t
}
