// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package capability decides which hooks a plugin may register on or dispatch.
//
// Grants are gobwas/glob patterns over hook names with '.' and '/' as segment
// separators:
//   - '*' matches within one segment
//   - '**' matches across segments
//
// Examples:
//   - "learnhooks.*" matches "learnhooks.modifyEnrollmentMessage"
//   - "learninghooks/user_enrolled_*" matches "learninghooks/user_enrolled_42"
//   - "**" matches any hook
package capability

import (
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// CodeDenied is the error code for a hook the plugin was not granted.
const CodeDenied = "CAPABILITY_DENIED"

// separators split hook names into segments for '*' matching.
var separators = []rune{'.', '/'}

type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer checks plugin hook grants at runtime.
//
// Enforcer is safe for concurrent use. The zero value is ready to use.
type Enforcer struct {
	grants map[string][]compiledGrant
	mu     sync.RWMutex
}

// NewEnforcer creates an enforcer with no grants.
func NewEnforcer() *Enforcer {
	return &Enforcer{
		grants: make(map[string][]compiledGrant),
	}
}

// SetGrants replaces the grants of plugin. Either every pattern compiles and
// the grants are replaced, or an error is returned and nothing changes.
func (e *Enforcer) SetGrants(plugin string, patterns []string) error {
	if plugin == "" {
		return oops.In("capability").Errorf("plugin name cannot be empty")
	}

	compiled := make([]compiledGrant, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" {
			return oops.In("capability").
				With("plugin", plugin).
				With("index", i).
				Errorf("empty hook grant")
		}
		g, err := glob.Compile(pattern, separators...)
		if err != nil {
			return oops.In("capability").
				With("plugin", plugin).
				With("pattern", pattern).
				Wrapf(err, "compile hook grant")
		}
		compiled[i] = compiledGrant{pattern: pattern, glob: g}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.grants == nil {
		e.grants = make(map[string][]compiledGrant)
	}
	e.grants[plugin] = compiled
	return nil
}

// IsRegistered reports whether SetGrants was called for plugin.
func (e *Enforcer) IsRegistered(plugin string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.grants[plugin]
	return ok
}

// RemoveGrants forgets plugin. Unknown plugins are ignored.
func (e *Enforcer) RemoveGrants(plugin string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.grants, plugin)
}

// Grants returns a copy of the patterns granted to plugin, or nil if unknown.
func (e *Enforcer) Grants(plugin string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	grants, ok := e.grants[plugin]
	if !ok {
		return nil
	}
	patterns := make([]string, len(grants))
	for i, g := range grants {
		patterns[i] = g.pattern
	}
	return patterns
}

// Plugins returns the registered plugin names, sorted.
func (e *Enforcer) Plugins() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	plugins := make([]string, 0, len(e.grants))
	for name := range e.grants {
		plugins = append(plugins, name)
	}
	sort.Strings(plugins)
	return plugins
}

// Check reports whether plugin may use hook. Unknown plugins and empty hook
// names are denied.
func (e *Enforcer) Check(plugin, hook string) bool {
	if hook == "" {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, grant := range e.grants[plugin] {
		if grant.glob.Match(hook) {
			return true
		}
	}
	return false
}

// Require is Check returning a CAPABILITY_DENIED error instead of false.
func (e *Enforcer) Require(plugin, hook string) error {
	if e.Check(plugin, hook) {
		return nil
	}
	return oops.Code(CodeDenied).
		In("capability").
		With("plugin", plugin).
		With("hook", hook).
		Errorf("plugin %s is not granted hook %q", plugin, hook)
}
