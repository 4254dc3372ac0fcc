// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package plugin

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/oops"
)

// ManifestFile is the manifest file name inside a plugin directory.
const ManifestFile = "plugin.yaml"

// LoadObserver is told the outcome of every plugin load attempt.
type LoadObserver func(name string, err error)

// Manager discovers and manages plugin lifecycle.
type Manager struct {
	pluginsDir  string
	hostVersion string
	luaHost     Host
	observe     LoadObserver
	loaded      map[string]*DiscoveredPlugin
	mu          sync.RWMutex
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLuaHost sets the Lua host for the manager.
func WithLuaHost(h Host) ManagerOption {
	return func(m *Manager) {
		m.luaHost = h
	}
}

// WithHostVersion sets the version checked against each manifest's requires.
func WithHostVersion(v string) ManagerOption {
	return func(m *Manager) {
		m.hostVersion = v
	}
}

// WithLoadObserver sets a function told about every load attempt.
func WithLoadObserver(fn LoadObserver) ManagerOption {
	return func(m *Manager) {
		m.observe = fn
	}
}

// NewManager creates a plugin manager.
func NewManager(pluginsDir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		pluginsDir: pluginsDir,
		loaded:     make(map[string]*DiscoveredPlugin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DiscoveredPlugin contains a manifest and its directory.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// Invalid describes a plugin directory whose manifest could not be used.
type Invalid struct {
	Dir string
	Err error
}

// Discover finds all valid plugins in the plugins directory, sorted by name.
// Invalid plugins are logged and skipped.
func (m *Manager) Discover(ctx context.Context) ([]*DiscoveredPlugin, error) {
	plugins, invalid, err := m.Scan(ctx)
	for _, bad := range invalid {
		slog.Warn("skipping plugin with invalid manifest", "dir", bad.Dir, "error", bad.Err)
	}
	return plugins, err
}

// Scan is Discover returning invalid plugins instead of logging them.
func (m *Manager) Scan(_ context.Context) ([]*DiscoveredPlugin, []Invalid, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, oops.In("plugin").With("dir", m.pluginsDir).Wrapf(err, "read plugins directory")
	}

	var (
		plugins []*DiscoveredPlugin
		invalid []Invalid
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(m.pluginsDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(pluginDir, ManifestFile)) //nolint:gosec // path built from ReadDir entries
		if err != nil {
			invalid = append(invalid, Invalid{Dir: entry.Name(), Err: err})
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			invalid = append(invalid, Invalid{Dir: entry.Name(), Err: err})
			continue
		}

		plugins = append(plugins, &DiscoveredPlugin{Manifest: manifest, Dir: pluginDir})
	}

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins, invalid, nil
}

// LoadAll discovers and loads every plugin in the plugins directory.
// A plugin that fails to load is logged and skipped, so one broken plugin
// does not keep the others from loading.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, dp := range discovered {
		if err := m.Load(ctx, dp); err != nil {
			slog.Error("failed to load plugin",
				"plugin", dp.Manifest.Name,
				"error", err)
		}
	}
	return nil
}

// Load loads a single discovered plugin.
func (m *Manager) Load(ctx context.Context, dp *DiscoveredPlugin) (err error) {
	name := dp.Manifest.Name
	defer func() {
		if m.observe != nil {
			m.observe(name, err)
		}
	}()

	m.mu.RLock()
	_, exists := m.loaded[name]
	m.mu.RUnlock()
	if exists {
		return oops.Code(CodeLoadFailed).In("plugin").With("plugin", name).Errorf("plugin %s is already loaded", name)
	}

	if err := dp.Manifest.CheckCompatible(m.hostVersion); err != nil {
		return err
	}

	switch dp.Manifest.Type {
	case TypeLua:
		if m.luaHost == nil {
			return oops.Code(CodeLoadFailed).In("plugin").With("plugin", name).Errorf("no Lua host configured")
		}
		if err := m.luaHost.Load(ctx, dp.Manifest, dp.Dir); err != nil {
			return oops.Code(CodeLoadFailed).In("plugin").With("plugin", name).Wrap(err)
		}
	default:
		return oops.Code(CodeLoadFailed).
			In("plugin").
			With("plugin", name).
			With("type", dp.Manifest.Type).
			Errorf("unsupported plugin type %q", dp.Manifest.Type)
	}

	m.mu.Lock()
	m.loaded[name] = dp
	m.mu.Unlock()

	slog.Info("loaded plugin",
		"plugin", name,
		"type", dp.Manifest.Type,
		"version", dp.Manifest.Version)
	return nil
}

// Unload unloads a loaded plugin, removing its hook callbacks.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	dp, ok := m.loaded[name]
	if ok {
		delete(m.loaded, name)
	}
	m.mu.Unlock()

	if !ok {
		return oops.Code(CodeNotLoaded).In("plugin").With("plugin", name).Errorf("plugin %s is not loaded", name)
	}

	if dp.Manifest.Type == TypeLua && m.luaHost != nil {
		if err := m.luaHost.Unload(ctx, name); err != nil {
			return oops.In("plugin").With("plugin", name).Wrap(err)
		}
	}
	slog.Info("unloaded plugin", "plugin", name)
	return nil
}

// ListPlugins returns names of all loaded plugins, sorted.
func (m *Manager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plugin returns a loaded plugin by name.
func (m *Manager) Plugin(name string) (*DiscoveredPlugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dp, ok := m.loaded[name]
	return dp, ok
}

// Close shuts down the manager and all loaded plugins.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Cleared first so the manager is consistent even if the host fails to close.
	m.loaded = make(map[string]*DiscoveredPlugin)

	if m.luaHost != nil {
		if err := m.luaHost.Close(ctx); err != nil {
			return oops.In("plugin").Wrapf(err, "close lua host")
		}
	}
	return nil
}
