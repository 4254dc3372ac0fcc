// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package extension registers block extensions: an extra attribute on one
// target block, optional sidebar controls for it, and optional save-time props
// derived from it.
package extension

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/learnhooks/learnhooks/internal/blocks"
	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// Hook names fired around and inside an extension.
const (
	HookShouldInit       = "learnhooks.shouldInitExtension"
	HookBeforeInit       = "learnhooks.beforeInit"
	HookAfterInit        = "learnhooks.afterInit"
	HookModifyAttributes = "learnhooks.modifyAttributes"
	HookControlsRendered = "learnhooks.controlsRendered"
	HookModifySaveProps  = "learnhooks.modifySaveProps"
)

// ControlsRenderer renders the extension's controls for a block being edited.
type ControlsRenderer func(props blocks.EditProps) blocks.Element

// PropsModifier derives save-time props from a block's attributes.
type PropsModifier func(props blocks.Props, attrs blocks.Attributes) blocks.Props

// Config describes one block extension.
type Config struct {
	// Namespace identifies the extension in hook namespaces and lifecycle actions.
	Namespace string
	// TargetBlock is the block name the extension applies to, e.g. "core/image".
	TargetBlock string
	// Attribute is the attribute added to the target block's schema.
	Attribute string
	// AttributeDef defaults to a string attribute with an empty default.
	AttributeDef blocks.AttributeDef
	// Controls is optional; without it the edit UI is left unchanged.
	Controls ControlsRenderer
	// PropsModifier is optional; without it saved props are left unchanged.
	PropsModifier PropsModifier
}

// Extension is a validated Config. Create one with New.
type Extension struct {
	cfg Config
}

// New validates cfg and returns the extension.
func New(cfg Config) (*Extension, error) {
	if strings.TrimSpace(cfg.Namespace) == "" {
		return nil, hooks.ErrInvalidArgument("namespace", "extension namespace cannot be empty")
	}
	if strings.TrimSpace(cfg.TargetBlock) == "" {
		return nil, hooks.ErrInvalidArgument("target_block", "the name of the block to extend cannot be empty")
	}
	if strings.TrimSpace(cfg.Attribute) == "" {
		return nil, hooks.ErrInvalidArgument("attribute", "attribute name cannot be empty")
	}
	if cfg.AttributeDef.Type == "" {
		cfg.AttributeDef = blocks.AttributeDef{Type: "string", Default: ""}
	}
	return &Extension{cfg: cfg}, nil
}

// Namespace returns the extension namespace.
func (e *Extension) Namespace() string { return e.cfg.Namespace }

// TargetBlock returns the block name the extension applies to.
func (e *Extension) TargetBlock() string { return e.cfg.TargetBlock }

// Attribute returns the attribute name the extension adds.
func (e *Extension) Attribute() string { return e.cfg.Attribute }

func (e *Extension) attrNamespace() string     { return "learnhooks/add-" + e.cfg.Namespace + "-attr" }
func (e *Extension) controlsNamespace() string { return "learnhooks/" + e.cfg.Namespace + "-controls" }
func (e *Extension) saveNamespace() string     { return "learnhooks/save-" + e.cfg.Namespace + "-attr" }

// Register installs ext's filters on reg.
//
// HookShouldInit is applied first with a seed of true; when it yields false
// nothing is registered and no lifecycle action fires, and Register returns
// false. Otherwise HookBeforeInit fires, the schema, edit and save filters are
// registered, and HookAfterInit fires.
func Register(ctx context.Context, ext *Extension, reg *hooks.Registry) (bool, error) {
	ns, target := ext.cfg.Namespace, ext.cfg.TargetBlock

	shouldInit, err := hooks.Apply(ctx, reg, HookShouldInit, true, ns, target)
	if err != nil {
		return false, oops.In("extension").With("extension", ns).Wrap(err)
	}
	if !shouldInit {
		slog.DebugContext(ctx, "extension init skipped", "extension", ns, "block", target)
		return false, nil
	}

	if err := reg.DoAction(ctx, HookBeforeInit, ns, target); err != nil {
		return false, oops.In("extension").With("extension", ns).Wrap(err)
	}

	if err := reg.RegisterFilter(blocks.HookRegisterBlockType, ext.attrNamespace(), hooks.DefaultPriority, ext.attributesFilter(reg)); err != nil {
		return false, err
	}
	if err := reg.RegisterFilter(blocks.HookBlockEdit, ext.controlsNamespace(), hooks.DefaultPriority, ext.controlsFilter(reg)); err != nil {
		return false, err
	}
	if err := reg.RegisterFilter(blocks.HookSaveExtraProps, ext.saveNamespace(), hooks.DefaultPriority, ext.propsFilter(reg)); err != nil {
		return false, err
	}

	if err := reg.DoAction(ctx, HookAfterInit, ns, target); err != nil {
		return true, oops.In("extension").With("extension", ns).Wrap(err)
	}

	slog.InfoContext(ctx, "extension registered", "extension", ns, "block", target)
	return true, nil
}

// Unregister removes the filters Register installed.
func Unregister(ext *Extension, reg *hooks.Registry) {
	reg.Unregister(blocks.HookRegisterBlockType, ext.attrNamespace())
	reg.Unregister(blocks.HookBlockEdit, ext.controlsNamespace())
	reg.Unregister(blocks.HookSaveExtraProps, ext.saveNamespace())
}

// attributesFilter is the blocks.registerBlockType filter: (settings, name).
func (e *Extension) attributesFilter(reg *hooks.Registry) hooks.FilterFunc {
	return func(ctx context.Context, value any, args ...any) (any, error) {
		name, _ := argAt[string](args, 0)
		if name != e.cfg.TargetBlock {
			return value, nil
		}

		settings, err := asSettings(value)
		if err != nil {
			return nil, err
		}
		modified := settings.WithAttribute(e.cfg.Attribute, e.cfg.AttributeDef)
		return hooks.Apply(ctx, reg, HookModifyAttributes, modified, name, e.cfg.Namespace)
	}
}

// controlsFilter is the editor.BlockEdit filter: it wraps the incoming edit function.
func (e *Extension) controlsFilter(reg *hooks.Registry) hooks.FilterFunc {
	return func(_ context.Context, value any, _ ...any) (any, error) {
		next, ok := value.(blocks.EditFunc)
		if !ok {
			return nil, hooks.ErrInvalidResult(blocks.HookBlockEdit, "blocks.EditFunc", value)
		}

		return blocks.EditFunc(func(ctx context.Context, props blocks.EditProps) (blocks.Element, error) {
			defaultUI, err := next(ctx, props)
			if err != nil {
				return nil, err
			}
			if e.cfg.Controls == nil || props.Name != e.cfg.TargetBlock {
				return defaultUI, nil
			}
			if err := reg.DoAction(ctx, HookControlsRendered, e.cfg.Namespace, props); err != nil {
				return nil, err
			}
			return blocks.Fragment{defaultUI, e.cfg.Controls(props)}, nil
		}), nil
	}
}

// propsFilter is the blocks.getSaveContent.extraProps filter: (props, blockType, attributes).
func (e *Extension) propsFilter(reg *hooks.Registry) hooks.FilterFunc {
	return func(ctx context.Context, value any, args ...any) (any, error) {
		blockType, _ := argAt[blocks.BlockType](args, 0)
		if blockType.Name != e.cfg.TargetBlock || e.cfg.PropsModifier == nil {
			return value, nil
		}

		extra, ok := value.(blocks.Props)
		if !ok && value != nil {
			return nil, hooks.ErrInvalidResult(blocks.HookSaveExtraProps, "blocks.Props", value)
		}
		attrs, _ := argAt[blocks.Attributes](args, 1)

		modified, err := hooks.Apply(ctx, reg, HookModifySaveProps,
			e.cfg.PropsModifier(extra.Clone(), attrs), blockType.Name, attrs, e.cfg.Namespace)
		if err != nil {
			return nil, err
		}
		if modified == nil {
			return extra, nil
		}
		return modified, nil
	}
}

func asSettings(value any) (blocks.Settings, error) {
	switch v := value.(type) {
	case blocks.Settings:
		return v, nil
	case map[string]any:
		return blocks.Settings(v), nil
	case nil:
		return blocks.Settings{}, nil
	default:
		return nil, hooks.ErrInvalidResult(blocks.HookRegisterBlockType, "blocks.Settings", value)
	}
}

func argAt[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}
