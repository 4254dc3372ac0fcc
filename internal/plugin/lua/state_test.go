// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package lua_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	pluginlua "github.com/learnhooks/learnhooks/internal/plugin/lua"
)

func TestStateFactory_LoadsSafeLibraries(t *testing.T) {
	L, err := pluginlua.NewStateFactory().NewState()
	require.NoError(t, err)
	defer L.Close()

	for _, lib := range []string{"table", "string", "math"} {
		assert.NotEqual(t, lua.LNil, L.GetGlobal(lib), "library %q not loaded", lib)
	}
	require.NoError(t, L.DoString(`x = string.upper("a") .. math.floor(2.7) .. tostring(#table.concat({"a"}))`))
	assert.Equal(t, "A21", L.GetGlobal("x").String())
}

func TestStateFactory_BlocksUnsafeGlobals(t *testing.T) {
	L, err := pluginlua.NewStateFactory().NewState()
	require.NoError(t, err)
	defer L.Close()

	blocked := []string{"os", "io", "debug", "package", "dofile", "loadfile", "loadstring", "load", "require"}
	for _, name := range blocked {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, lua.LNil, L.GetGlobal(name))
		})
	}
}

func TestStateFactory_CallStackSize(t *testing.T) {
	L, err := pluginlua.NewStateFactory(pluginlua.WithCallStackSize(16)).NewState()
	require.NoError(t, err)
	defer L.Close()

	err = L.DoString(`local function f(n) return f(n + 1) + 1 end f(0)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stack overflow")
}
