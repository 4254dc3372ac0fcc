// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package blocks models the parts of a block editor that extensions hook into:
// block type registration, the edit UI and the props written at save time.
package blocks

import "maps"

// Hook names fired by the editor pipeline.
const (
	HookRegisterBlockType = "blocks.registerBlockType"
	HookBlockEdit         = "editor.BlockEdit"
	HookSaveExtraProps    = "blocks.getSaveContent.extraProps"
)

// Settings is a block type definition. The "attributes" key holds the
// attribute schema as a map of attribute name to definition.
type Settings map[string]any

// Attributes holds the attribute values of one block instance.
type Attributes map[string]any

// Props are the extra HTML props written when a block is saved.
type Props map[string]any

// AttributeDef declares one attribute in a block type's schema.
type AttributeDef struct {
	Type    string `json:"type"`
	Default any    `json:"default"`
}

// Map returns the definition in the shape stored under Settings["attributes"].
func (d AttributeDef) Map() map[string]any {
	return map[string]any{"type": d.Type, "default": d.Default}
}

// Clone returns a shallow copy of s with its attribute schema copied too.
func (s Settings) Clone() Settings {
	out := maps.Clone(s)
	if out == nil {
		out = Settings{}
	}
	if attrs := s.AttributeSchema(); attrs != nil {
		out["attributes"] = maps.Clone(attrs)
	}
	return out
}

// AttributeSchema returns the "attributes" entry, or nil when absent.
func (s Settings) AttributeSchema() map[string]any {
	switch attrs := s["attributes"].(type) {
	case map[string]any:
		return attrs
	case Attributes:
		return attrs
	default:
		return nil
	}
}

// WithAttribute returns a copy of s whose schema also declares name.
func (s Settings) WithAttribute(name string, def AttributeDef) Settings {
	out := s.Clone()
	attrs := out.AttributeSchema()
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs[name] = def.Map()
	out["attributes"] = attrs
	return out
}

// Clone returns a shallow copy of p; a nil p yields an empty map.
func (p Props) Clone() Props {
	out := maps.Clone(p)
	if out == nil {
		out = Props{}
	}
	return out
}

// String returns the attribute value as a string, or "" when absent or not a string.
func (a Attributes) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// BlockType identifies the block being saved.
type BlockType struct {
	Name string `json:"name"`
}

// EditProps are the props an edit function renders from.
type EditProps struct {
	Name       string     `json:"name"`
	ClientID   string     `json:"clientId,omitempty"`
	Attributes Attributes `json:"attributes"`
}

// Element is an opaque renderable value. The pipeline never inspects it.
type Element any

// Fragment groups elements rendered side by side.
type Fragment []Element

// BlockUI is what the default edit function renders for a block.
type BlockUI struct {
	Name       string
	Attributes Attributes
}

// TextControl is a sidebar text input bound to one attribute.
type TextControl struct {
	Panel     string
	Label     string
	Help      string
	Attribute string
	Value     string
}
