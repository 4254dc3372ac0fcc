// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package lua runs plugins in sandboxed gopher-lua states.
package lua

import (
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

type library struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math.
// Not loaded: os, io, debug, package, channel, coroutine.
func safeLibraries() []library {
	return []library{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// Base library functions that reach the filesystem or compile arbitrary chunks.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load", "require", "module"}

// StateFactory creates sandboxed Lua states.
type StateFactory struct {
	libraries     []library
	callStackSize int
	registrySize  int
}

// StateOption configures a StateFactory.
type StateOption func(*StateFactory)

// WithCallStackSize limits the Lua call depth.
func WithCallStackSize(n int) StateOption {
	return func(f *StateFactory) {
		f.callStackSize = n
	}
}

// WithRegistrySize sets the initial Lua registry size.
func WithRegistrySize(n int) StateOption {
	return func(f *StateFactory) {
		f.registrySize = n
	}
}

// NewStateFactory creates a state factory.
func NewStateFactory(opts ...StateOption) *StateFactory {
	f := &StateFactory{
		libraries:     safeLibraries(),
		callStackSize: lua.CallStackSize,
		registrySize:  lua.RegistrySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewState creates a Lua state with only the safe libraries loaded.
func (f *StateFactory) NewState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: f.callStackSize,
		RegistrySize:  f.registrySize,
	})

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.In("lua").With("library", lib.name).Wrapf(err, "open library")
		}
	}

	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}
	return L, nil
}
