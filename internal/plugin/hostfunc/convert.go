// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hostfunc

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// maxExactInt is the largest integer a Lua number holds exactly.
const maxExactInt = 1 << 53

// maxListLen bounds the index of a table converted to a slice.
const maxListLen = 1 << 24

// ToLua converts a Go value to a Lua value.
//
// Scalars map to Lua scalars, maps with string keys and slices map to tables,
// structs go through a JSON round-trip. Anything else (functions, channels)
// is wrapped in userdata so it comes back unchanged from FromLua.
//
// Slice elements keep their positions, so nil elements become holes. Lua
// cannot tell an empty list from an empty map: an empty slice comes back from
// FromLua as an empty map, and trailing nil elements are dropped.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return x
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []any:
		t := L.CreateTable(len(x), 0)
		for i, item := range x {
			t.RawSetInt(i+1, ToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(x))
		for k, item := range x {
			t.RawSetString(k, ToLua(L, item))
		}
		return t
	}
	return reflectToLua(L, reflect.ValueOf(v))
}

func reflectToLua(L *lua.LState, rv reflect.Value) lua.LValue {
	switch rv.Kind() {
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		t := L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSetString(iter.Key().String(), ToLua(L, iter.Value().Interface()))
		}
		return t
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return L.NewTable()
		}
		t := L.CreateTable(rv.Len(), 0)
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, ToLua(L, rv.Index(i).Interface()))
		}
		return t
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return jsonToLua(L, rv.Interface())
		}
	case reflect.Struct:
		return jsonToLua(L, rv.Interface())
	}

	ud := L.NewUserData()
	ud.Value = rv.Interface()
	return ud
}

func jsonToLua(L *lua.LState, v any) lua.LValue {
	b, err := json.Marshal(v)
	if err != nil {
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return lua.LString(string(b))
	}
	return ToLua(L, generic)
}

// FromLua converts a Lua value to a Go value.
//
// Integral numbers become int64, other numbers float64. A table whose keys
// are all positive integers, with at least half of 1..max present, becomes
// []any with nil in the holes; any other table, including the empty one,
// becomes map[string]any. Userdata yields its Go value. Functions are
// returned as *lua.LFunction.
func FromLua(v lua.LValue) any {
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTBool:
		return bool(v.(lua.LBool))
	case lua.LTString:
		return string(v.(lua.LString))
	case lua.LTNumber:
		n := float64(v.(lua.LNumber))
		if n == math.Trunc(n) && math.Abs(n) <= maxExactInt {
			return int64(n)
		}
		return n
	case lua.LTTable:
		return tableToGo(v.(*lua.LTable))
	case lua.LTUserData:
		return v.(*lua.LUserData).Value
	case lua.LTFunction:
		return v
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable) any {
	count, maxKey, list := 0, 0, true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		n, ok := k.(lua.LNumber)
		f := float64(n)
		if !ok || f < 1 || f != math.Trunc(f) || f > maxListLen {
			list = false
			return
		}
		maxKey = max(maxKey, int(f))
	})

	if count > 0 && list && maxKey <= 2*count {
		out := make([]any, maxKey)
		for i := 1; i <= maxKey; i++ {
			out[i-1] = FromLua(t.RawGetInt(i))
		}
		return out
	}

	out := make(map[string]any, count)
	t.ForEach(func(k, val lua.LValue) {
		out[tableKey(k)] = FromLua(val)
	})
	return out
}

func tableKey(k lua.LValue) string {
	if n, ok := k.(lua.LNumber); ok {
		f := float64(n)
		if f == math.Trunc(f) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return k.String()
}
