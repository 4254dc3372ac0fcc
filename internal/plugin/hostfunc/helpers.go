// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hostfunc

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// stateContext returns the context the Lua state is running under, or
// context.Background when none is set.
func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// argsFrom converts the Lua arguments from position start onwards to Go values.
func argsFrom(L *lua.LState, start int) []any {
	top := L.GetTop()
	if top < start {
		return nil
	}
	args := make([]any, 0, top-start+1)
	for i := start; i <= top; i++ {
		args = append(args, FromLua(L.Get(i)))
	}
	return args
}
