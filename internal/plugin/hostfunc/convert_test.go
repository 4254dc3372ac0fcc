// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hostfunc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/learnhooks/learnhooks/internal/plugin/hostfunc"
)

type attrs struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func TestToLua_Scalars(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	assert.Equal(t, lua.LNil, hostfunc.ToLua(L, nil))
	assert.Equal(t, lua.LTrue, hostfunc.ToLua(L, true))
	assert.Equal(t, lua.LString("hi"), hostfunc.ToLua(L, "hi"))
	assert.Equal(t, lua.LNumber(42), hostfunc.ToLua(L, int64(42)))
	assert.Equal(t, lua.LNumber(7), hostfunc.ToLua(L, uint32(7)))
	assert.Equal(t, lua.LNumber(1.5), hostfunc.ToLua(L, 1.5))
}

func TestToLua_Tables(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	list, ok := hostfunc.ToLua(L, []string{"a", "b"}).(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, lua.LString("b"), list.RawGetInt(2))

	m, ok := hostfunc.ToLua(L, map[string]any{"alt": "Sunset", "n": 3}).(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LString("Sunset"), m.RawGetString("alt"))
	assert.Equal(t, lua.LNumber(3), m.RawGetString("n"))

	s, ok := hostfunc.ToLua(L, attrs{Label: "x", Count: 2}).(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LString("x"), s.RawGetString("label"))
	assert.Equal(t, lua.LNumber(2), s.RawGetString("count"))
}

func TestToLua_ListKeepsPositions(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	in := map[string]any{"list": []any{"a", nil, "c"}, "empty": []any{}}
	out := hostfunc.FromLua(hostfunc.ToLua(L, in))

	assert.Equal(t, map[string]any{
		"list":  []any{"a", nil, "c"},
		"empty": map[string]any{},
	}, out)
}

func TestToLua_OpaqueValueRoundTrips(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	ch := make(chan int)
	v := hostfunc.ToLua(L, ch)
	require.Equal(t, lua.LTUserData, v.Type())
	assert.Equal(t, ch, hostfunc.FromLua(v))
}

func TestFromLua(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	require.NoError(t, L.DoString(`
		list = {"a", "b", 3}
		record = {name = "x", nested = {1, 2}}
		empty = {}
		holes = {[1] = "a", [3] = "c"}
		sparse = {[1] = "a", [10] = "j"}
		mixed = {"a", name = "x"}
	`))

	tests := []struct {
		name string
		in   lua.LValue
		want any
	}{
		{"nil", lua.LNil, nil},
		{"bool", lua.LFalse, false},
		{"string", lua.LString("s"), "s"},
		{"integral number", lua.LNumber(42), int64(42)},
		{"fractional number", lua.LNumber(2.5), 2.5},
		{"sequence", L.GetGlobal("list"), []any{"a", "b", int64(3)}},
		{"record", L.GetGlobal("record"), map[string]any{"name": "x", "nested": []any{int64(1), int64(2)}}},
		{"empty table", L.GetGlobal("empty"), map[string]any{}},
		{"list with holes", L.GetGlobal("holes"), []any{"a", nil, "c"}},
		{"sparse table", L.GetGlobal("sparse"), map[string]any{"1": "a", "10": "j"}},
		{"mixed keys", L.GetGlobal("mixed"), map[string]any{"1": "a", "name": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hostfunc.FromLua(tt.in))
		})
	}
}
