// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package plugin discovers plugin manifests and manages plugin lifecycle.
package plugin

import "context"

// Host manages plugins of one runtime type.
type Host interface {
	// Load starts a plugin from its manifest. The plugin registers its hook
	// callbacks while loading.
	Load(ctx context.Context, manifest *Manifest, dir string) error

	// Unload removes every hook callback the plugin registered and stops it.
	Unload(ctx context.Context, name string) error

	// Plugins returns names of all loaded plugins.
	Plugins() []string

	// Close unloads all plugins and shuts down the host.
	Close(ctx context.Context) error
}
