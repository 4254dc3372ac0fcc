// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package plugin

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Error codes for plugin manifests and loading.
const (
	CodeInvalidManifest = "PLUGIN_INVALID_MANIFEST"
	CodeIncompatible    = "PLUGIN_INCOMPATIBLE"
	CodeLoadFailed      = "PLUGIN_LOAD_FAILED"
	CodeNotLoaded       = "PLUGIN_NOT_LOADED"
)

// Type identifies the plugin runtime.
type Type string

// TypeLua is the only supported plugin runtime.
const TypeLua Type = "lua"

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name        string     `yaml:"name" json:"name" jsonschema:"required,minLength=1,maxLength=64,pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$"`
	Version     string     `yaml:"version" json:"version" jsonschema:"required,description=Plugin version (semver)"`
	Type        Type       `yaml:"type" json:"type" jsonschema:"required,enum=lua"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Requires    string     `yaml:"requires,omitempty" json:"requires,omitempty" jsonschema:"description=Semver constraint on the host version"`
	Hooks       []string   `yaml:"hooks,omitempty" json:"hooks,omitempty" jsonschema:"description=Glob patterns of hook names the plugin may use"`
	LuaPlugin   *LuaConfig `yaml:"lua-plugin,omitempty" json:"lua-plugin,omitempty"`
}

// LuaConfig holds Lua-specific configuration.
type LuaConfig struct {
	Entry string `yaml:"entry" json:"entry" jsonschema:"required,minLength=1"`
}

const maxNameLength = 64

// namePattern: lowercase letter first, then lowercase letters, digits or
// hyphens, not ending with a hyphen.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest validates data against the manifest schema, then parses and
// validates it.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, invalidManifest("manifest data is empty")
	}
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeInvalidManifest).In("plugin").Wrapf(err, "invalid YAML")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest constraints the schema cannot express.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return invalidManifest("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return invalidManifest("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return invalidManifest("version is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return invalidManifest("version %q is not a valid semantic version: %v", m.Version, err)
	}

	if m.Requires != "" {
		if _, err := semver.NewConstraint(m.Requires); err != nil {
			return invalidManifest("requires %q is not a valid version constraint: %v", m.Requires, err)
		}
	}

	for i, pattern := range m.Hooks {
		if pattern == "" {
			return invalidManifest("hooks[%d] is empty", i)
		}
		if _, err := glob.Compile(pattern, '.', '/'); err != nil {
			return invalidManifest("hooks[%d] %q is not a valid pattern: %v", i, pattern, err)
		}
	}

	switch m.Type {
	case TypeLua:
		if m.LuaPlugin == nil {
			return invalidManifest("lua-plugin is required when type is lua")
		}
		if m.LuaPlugin.Entry == "" {
			return invalidManifest("lua-plugin.entry is required")
		}
	default:
		return invalidManifest("type must be 'lua', got %q", m.Type)
	}

	return nil
}

// CheckCompatible returns a PLUGIN_INCOMPATIBLE error when hostVersion does
// not satisfy Requires. An empty Requires accepts any host; a host version
// that is not semver (such as "dev") accepts any plugin.
func (m *Manifest) CheckCompatible(hostVersion string) error {
	if m.Requires == "" {
		return nil
	}
	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return nil //nolint:nilerr // development builds are not versioned
	}
	c, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return invalidManifest("requires %q is not a valid version constraint: %v", m.Requires, err)
	}
	if ok, reasons := c.Validate(v); !ok {
		errs := make([]string, len(reasons))
		for i, r := range reasons {
			errs[i] = r.Error()
		}
		return oops.Code(CodeIncompatible).
			In("plugin").
			With("plugin", m.Name).
			With("requires", m.Requires).
			With("host_version", hostVersion).
			With("reasons", errs).
			Errorf("plugin %s requires host %s, running %s", m.Name, m.Requires, hostVersion)
	}
	return nil
}

func invalidManifest(format string, args ...any) error {
	return oops.Code(CodeInvalidManifest).In("plugin").Errorf(format, args...)
}
