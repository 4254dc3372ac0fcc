// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package lua

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	plugins "github.com/learnhooks/learnhooks/internal/plugin"
	"github.com/learnhooks/learnhooks/internal/plugin/hostfunc"
)

// Compile-time interface checks.
var (
	_ plugins.Host     = (*Host)(nil)
	_ hostfunc.Runtime = (*luaPlugin)(nil)
)

// UnloadHook is the optional global function called before a plugin is unloaded.
const UnloadHook = "on_unload"

// activeKey marks a context as already running inside a plugin's state, so a
// hook dispatched from Lua that calls back into the same plugin does not
// lock it again.
type activeKey struct{ p *luaPlugin }

// luaPlugin is a loaded plugin with its own Lua state.
type luaPlugin struct {
	manifest *plugins.Manifest

	mu     sync.Mutex
	state  *lua.LState
	closed bool
}

func (p *luaPlugin) Plugin() string {
	return p.manifest.Name
}

// Call runs fn in the plugin's state. Calls are serialized per plugin.
func (p *luaPlugin) Call(ctx context.Context, fn *lua.LFunction, nret int, args ...any) ([]any, error) {
	var results []any
	err := p.run(ctx, func(L *lua.LState) error {
		largs := make([]lua.LValue, len(args))
		for i, arg := range args {
			largs[i] = hostfunc.ToLua(L, arg)
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, largs...); err != nil {
			return err
		}
		results = make([]any, nret)
		for i := 0; i < nret; i++ {
			results[i] = hostfunc.FromLua(L.Get(-nret + i))
		}
		L.Pop(nret)
		return nil
	})
	if err != nil {
		return nil, oops.In("lua").With("plugin", p.Plugin()).Wrap(err)
	}
	return results, nil
}

// run executes fn with the state bound to ctx.
func (p *luaPlugin) run(ctx context.Context, fn func(L *lua.LState) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Value(activeKey{p}) == nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		ctx = context.WithValue(ctx, activeKey{p}, true)
	}
	if p.closed {
		return oops.In("lua").With("plugin", p.Plugin()).New("plugin is unloaded")
	}

	L := p.state
	prev := L.Context()
	L.SetContext(ctx)
	defer func() {
		if prev != nil {
			L.SetContext(prev)
		} else {
			L.RemoveContext()
		}
	}()
	return fn(L)
}

func (p *luaPlugin) callUnloadHook(ctx context.Context) {
	err := p.run(ctx, func(L *lua.LState) error {
		fn, ok := L.GetGlobal(UnloadHook).(*lua.LFunction)
		if !ok {
			return nil
		}
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
	if err != nil {
		slog.Warn("plugin unload hook failed", "plugin", p.Plugin(), "error", err)
	}
}

func (p *luaPlugin) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.state.Close()
	}
}

// Host manages Lua plugins.
type Host struct {
	factory *StateFactory
	funcs   *hostfunc.Functions
	plugins map[string]*luaPlugin
	mu      sync.RWMutex
	closed  bool
}

// NewHost creates a Lua plugin host whose plugins reach the hook registry
// through funcs. Panics if funcs is nil.
func NewHost(funcs *hostfunc.Functions, opts ...StateOption) *Host {
	if funcs == nil {
		panic("lua.NewHost: host functions cannot be nil")
	}
	return &Host{
		factory: NewStateFactory(opts...),
		funcs:   funcs,
		plugins: make(map[string]*luaPlugin),
	}
}

// Load grants the plugin its manifest hooks, then runs its entry script,
// which registers its callbacks.
func (h *Host) Load(ctx context.Context, manifest *plugins.Manifest, dir string) error {
	name := manifest.Name
	errb := oops.In("lua").With("plugin", name).With("operation", "load")

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errb.New("host is closed")
	}
	if _, ok := h.plugins[name]; ok {
		return errb.New("plugin already loaded")
	}
	if manifest.LuaPlugin == nil {
		return errb.New("manifest has no lua-plugin section")
	}

	entryPath := filepath.Join(dir, manifest.LuaPlugin.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return errb.With("path", entryPath).Hint("failed to read entry file").Wrap(err)
	}

	L, err := h.factory.NewState()
	if err != nil {
		return errb.Hint("failed to create state").Wrap(err)
	}
	p := &luaPlugin{manifest: manifest, state: L}

	if err := h.funcs.Grant(name, manifest.Hooks); err != nil {
		L.Close()
		return errb.Wrap(err)
	}
	h.funcs.Register(L, p)

	err = p.run(ctx, func(L *lua.LState) error {
		return L.DoString(string(code))
	})
	if err != nil {
		h.funcs.UnregisterAll(name)
		h.funcs.Revoke(name)
		L.Close()
		return errb.With("entry", manifest.LuaPlugin.Entry).Hint("entry script failed").Wrap(err)
	}

	h.plugins[name] = p
	slog.Debug("lua plugin started",
		"plugin", name,
		"registrations", len(h.funcs.Registrations(name)))
	return nil
}

// Unload calls the plugin's on_unload, removes its callbacks and grants, and
// closes its state.
func (h *Host) Unload(ctx context.Context, name string) error {
	h.mu.Lock()
	p, ok := h.plugins[name]
	delete(h.plugins, name)
	h.mu.Unlock()

	if !ok {
		return oops.In("lua").With("plugin", name).With("operation", "unload").New("plugin not loaded")
	}
	h.stop(ctx, p)
	return nil
}

func (h *Host) stop(ctx context.Context, p *luaPlugin) {
	p.callUnloadHook(ctx)
	h.funcs.UnregisterAll(p.Plugin())
	h.funcs.Revoke(p.Plugin())
	p.close()
}

// Plugins returns names of loaded plugins, sorted.
func (h *Host) Plugins() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close unloads every plugin and rejects further loads.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	loaded := h.plugins
	h.plugins = make(map[string]*luaPlugin)
	h.closed = true
	h.mu.Unlock()

	for _, p := range loaded {
		h.stop(ctx, p)
	}
	return nil
}
