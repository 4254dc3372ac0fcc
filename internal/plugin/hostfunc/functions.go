// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package hostfunc exposes the hook registry to Lua plugins as the global
// learnhooks module.
//
// Registering on or dispatching a hook requires a grant for that hook name.
// Every callback a plugin registers is recorded so it can be removed when the
// plugin is unloaded.
package hostfunc

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/learnhooks/learnhooks/internal/plugin/capability"
	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// ModuleName is the Lua global holding the host functions.
const ModuleName = "learnhooks"

// Runtime runs Lua functions for one plugin.
type Runtime interface {
	// Plugin returns the plugin name.
	Plugin() string
	// Call invokes fn with args converted by ToLua and returns nret results
	// converted by FromLua.
	Call(ctx context.Context, fn *lua.LFunction, nret int, args ...any) ([]any, error)
}

// Registration is one callback a plugin registered.
type Registration struct {
	Hook      string
	Namespace string
}

// Functions provides host functions to Lua plugins.
type Functions struct {
	registry *hooks.Registry
	enforcer *capability.Enforcer

	mu    sync.Mutex
	owned map[string]map[Registration]struct{}
}

// New creates host functions that register on reg and check grants with enforcer.
// Panics if either is nil.
func New(reg *hooks.Registry, enforcer *capability.Enforcer) *Functions {
	if reg == nil || enforcer == nil {
		panic("hostfunc.New: registry and enforcer are required")
	}
	return &Functions{
		registry: reg,
		enforcer: enforcer,
		owned:    make(map[string]map[Registration]struct{}),
	}
}

// Namespace returns the registry namespace used for a plugin's callbacks, so
// that plugins cannot collide with or remove each other's callbacks.
func Namespace(plugin, ns string) string {
	prefix := plugin + "/"
	if strings.HasPrefix(ns, prefix) {
		return ns
	}
	return prefix + ns
}

// Grant sets the hook grants of plugin.
func (f *Functions) Grant(plugin string, patterns []string) error {
	return f.enforcer.SetGrants(plugin, patterns)
}

// Revoke removes the hook grants of plugin.
func (f *Functions) Revoke(plugin string) {
	f.enforcer.RemoveGrants(plugin)
}

// Register installs the learnhooks module in ls for rt.
func (f *Functions) Register(ls *lua.LState, rt Runtime) {
	mod := ls.NewTable()

	ls.SetField(mod, "log", ls.NewFunction(f.logFn(rt.Plugin())))
	ls.SetField(mod, "new_request_id", ls.NewFunction(f.newRequestIDFn()))

	ls.SetField(mod, "add_action", ls.NewFunction(f.addActionFn(rt)))
	ls.SetField(mod, "add_filter", ls.NewFunction(f.addFilterFn(rt)))
	ls.SetField(mod, "remove", ls.NewFunction(f.removeFn(rt.Plugin())))
	ls.SetField(mod, "do_action", ls.NewFunction(f.doActionFn(rt.Plugin())))
	ls.SetField(mod, "apply_filters", ls.NewFunction(f.applyFiltersFn(rt.Plugin())))
	ls.SetField(mod, "default_priority", lua.LNumber(hooks.DefaultPriority))

	ls.SetGlobal(ModuleName, mod)
}

// Registrations returns the callbacks plugin currently has registered, sorted.
func (f *Functions) Registrations(plugin string) []Registration {
	f.mu.Lock()
	defer f.mu.Unlock()

	regs := make([]Registration, 0, len(f.owned[plugin]))
	for r := range f.owned[plugin] {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].Hook != regs[j].Hook {
			return regs[i].Hook < regs[j].Hook
		}
		return regs[i].Namespace < regs[j].Namespace
	})
	return regs
}

// UnregisterAll removes every callback plugin registered and returns how many
// registry entries were removed.
func (f *Functions) UnregisterAll(plugin string) int {
	f.mu.Lock()
	owned := f.owned[plugin]
	delete(f.owned, plugin)
	f.mu.Unlock()

	removed := 0
	for r := range owned {
		removed += f.registry.Unregister(r.Hook, r.Namespace)
	}
	if removed > 0 {
		slog.Debug("plugin callbacks removed", "plugin", plugin, "count", removed)
	}
	return removed
}

func (f *Functions) track(plugin string, r Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owned[plugin] == nil {
		f.owned[plugin] = make(map[Registration]struct{})
	}
	f.owned[plugin][r] = struct{}{}
}

func (f *Functions) untrack(plugin string, r Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.owned[plugin], r)
}

// checkHook raises a Lua error unless plugin is granted hook.
func (f *Functions) checkHook(L *lua.LState, plugin, hook string) bool {
	if err := f.enforcer.Require(plugin, hook); err != nil {
		slog.Warn("plugin hook denied", "plugin", plugin, "hook", hook)
		L.RaiseError("capability denied: %s is not granted hook %q", plugin, hook)
		return false
	}
	return true
}

// learnhooks.add_action(hook, namespace, fn [, priority])
func (f *Functions) addActionFn(rt Runtime) lua.LGFunction {
	return func(L *lua.LState) int {
		hook := L.CheckString(1)
		ns := L.CheckString(2)
		fn := L.CheckFunction(3)
		priority := L.OptInt(4, hooks.DefaultPriority)
		if !f.checkHook(L, rt.Plugin(), hook) {
			return 0
		}

		action := func(ctx context.Context, args ...any) error {
			_, err := rt.Call(ctx, fn, 0, args...)
			return err
		}
		reg := Registration{Hook: hook, Namespace: Namespace(rt.Plugin(), ns)}
		if err := f.registry.RegisterAction(reg.Hook, reg.Namespace, priority, action); err != nil {
			L.RaiseError("add_action: %s", err.Error())
			return 0
		}
		f.track(rt.Plugin(), reg)
		return 0
	}
}

// learnhooks.add_filter(hook, namespace, fn [, priority])
func (f *Functions) addFilterFn(rt Runtime) lua.LGFunction {
	return func(L *lua.LState) int {
		hook := L.CheckString(1)
		ns := L.CheckString(2)
		fn := L.CheckFunction(3)
		priority := L.OptInt(4, hooks.DefaultPriority)
		if !f.checkHook(L, rt.Plugin(), hook) {
			return 0
		}

		filter := func(ctx context.Context, value any, args ...any) (any, error) {
			results, err := rt.Call(ctx, fn, 1, append([]any{value}, args...)...)
			if err != nil {
				return nil, err
			}
			return results[0], nil
		}
		reg := Registration{Hook: hook, Namespace: Namespace(rt.Plugin(), ns)}
		if err := f.registry.RegisterFilter(reg.Hook, reg.Namespace, priority, filter); err != nil {
			L.RaiseError("add_filter: %s", err.Error())
			return 0
		}
		f.track(rt.Plugin(), reg)
		return 0
	}
}

// learnhooks.remove(hook, namespace) -> count
func (f *Functions) removeFn(plugin string) lua.LGFunction {
	return func(L *lua.LState) int {
		reg := Registration{Hook: L.CheckString(1), Namespace: Namespace(plugin, L.CheckString(2))}
		removed := f.registry.Unregister(reg.Hook, reg.Namespace)
		f.untrack(plugin, reg)
		L.Push(lua.LNumber(removed))
		return 1
	}
}

// learnhooks.do_action(hook, ...)
func (f *Functions) doActionFn(plugin string) lua.LGFunction {
	return func(L *lua.LState) int {
		hook := L.CheckString(1)
		if !f.checkHook(L, plugin, hook) {
			return 0
		}
		if err := f.registry.DoAction(stateContext(L), hook, argsFrom(L, 2)...); err != nil {
			L.RaiseError("do_action %s: %s", hook, err.Error())
		}
		return 0
	}
}

// learnhooks.apply_filters(hook, value, ...) -> value
func (f *Functions) applyFiltersFn(plugin string) lua.LGFunction {
	return func(L *lua.LState) int {
		hook := L.CheckString(1)
		if !f.checkHook(L, plugin, hook) {
			return 0
		}
		value := FromLua(L.Get(2))
		result, err := f.registry.ApplyFilter(stateContext(L), hook, value, argsFrom(L, 3)...)
		if err != nil {
			L.RaiseError("apply_filters %s: %s", hook, err.Error())
			return 0
		}
		L.Push(ToLua(L, result))
		return 1
	}
}

// learnhooks.log(level, message [, fields])
func (f *Functions) logFn(plugin string) lua.LGFunction {
	return func(L *lua.LState) int {
		level := L.CheckString(1)
		message := L.CheckString(2)

		attrs := []any{"plugin", plugin}
		if fields, ok := L.Get(3).(*lua.LTable); ok {
			fields.ForEach(func(k, v lua.LValue) {
				attrs = append(attrs, tableKey(k), FromLua(v))
			})
		}

		var lvl slog.Level
		switch level {
		case "debug":
			lvl = slog.LevelDebug
		case "warn":
			lvl = slog.LevelWarn
		case "error":
			lvl = slog.LevelError
		default:
			lvl = slog.LevelInfo
		}
		slog.Default().Log(stateContext(L), lvl, message, attrs...)
		return 0
	}
}

// learnhooks.new_request_id() -> ULID string
func (f *Functions) newRequestIDFn() lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LString(ulid.Make().String()))
		return 1
	}
}
