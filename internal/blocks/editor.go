// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package blocks

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/oops"

	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// EditFunc renders the edit UI for a block.
type EditFunc func(ctx context.Context, props EditProps) (Element, error)

// DefaultEdit renders the block's own UI.
func DefaultEdit(_ context.Context, props EditProps) (Element, error) {
	return BlockUI{Name: props.Name, Attributes: props.Attributes}, nil
}

// Editor drives the three extension points of the block pipeline:
// type registration, edit and save.
type Editor struct {
	hooks *hooks.Registry
	types map[string]Settings
	mu    sync.RWMutex
}

// NewEditor creates an editor that dispatches through reg.
func NewEditor(reg *hooks.Registry) *Editor {
	return &Editor{
		hooks: reg,
		types: make(map[string]Settings),
	}
}

// RegisterBlockType filters settings through HookRegisterBlockType and stores the result.
func (e *Editor) RegisterBlockType(ctx context.Context, name string, settings Settings) (Settings, error) {
	if name == "" {
		return nil, oops.Code(hooks.CodeInvalidArgument).
			In("blocks").
			Errorf("block name cannot be empty")
	}

	filtered, err := hooks.Apply(ctx, e.hooks, HookRegisterBlockType, settings.Clone(), name)
	if err != nil {
		return nil, oops.In("blocks").With("block", name).With("operation", "register").Wrap(err)
	}
	if filtered == nil {
		filtered = Settings{}
	}

	e.mu.Lock()
	if _, exists := e.types[name]; exists {
		slog.Warn("block type re-registered: overwriting", "block", name)
	}
	e.types[name] = filtered
	e.mu.Unlock()

	return filtered, nil
}

// BlockType returns the registered settings for name.
func (e *Editor) BlockType(name string) (Settings, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.types[name]
	return s, ok
}

// BlockTypes returns the registered block names, sorted.
func (e *Editor) BlockTypes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.types))
	for name := range e.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edit wraps DefaultEdit through HookBlockEdit and renders props with the result.
func (e *Editor) Edit(ctx context.Context, props EditProps) (Element, error) {
	edit, err := hooks.Apply(ctx, e.hooks, HookBlockEdit, EditFunc(DefaultEdit))
	if err != nil {
		return nil, oops.In("blocks").With("block", props.Name).With("operation", "edit").Wrap(err)
	}
	if edit == nil {
		return nil, oops.Code(hooks.CodeInvalidResult).
			In("blocks").
			With("block", props.Name).
			Errorf("%s filter returned no edit function", HookBlockEdit)
	}
	return edit(ctx, props)
}

// SaveProps filters empty props through HookSaveExtraProps for a block being saved.
func (e *Editor) SaveProps(ctx context.Context, name string, attrs Attributes) (Props, error) {
	props, err := hooks.Apply(ctx, e.hooks, HookSaveExtraProps, Props{}, BlockType{Name: name}, attrs)
	if err != nil {
		return nil, oops.In("blocks").With("block", name).With("operation", "save").Wrap(err)
	}
	if props == nil {
		props = Props{}
	}
	return props, nil
}
