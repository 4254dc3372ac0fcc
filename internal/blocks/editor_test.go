// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package blocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhooks/learnhooks/pkg/errutil"
	"github.com/learnhooks/learnhooks/pkg/hooks"
)

func TestEditor_RegisterBlockType_NoFiltersKeepsSettings(t *testing.T) {
	editor := NewEditor(hooks.New())
	settings := Settings{"title": "Image", "attributes": map[string]any{"url": map[string]any{"type": "string"}}}

	got, err := editor.RegisterBlockType(context.Background(), "core/image", settings)
	require.NoError(t, err)
	assert.Equal(t, settings, got)

	stored, ok := editor.BlockType("core/image")
	require.True(t, ok)
	assert.Equal(t, settings, stored)
	assert.Equal(t, []string{"core/image"}, editor.BlockTypes())
}

func TestEditor_RegisterBlockType_PassesNameToFilter(t *testing.T) {
	reg := hooks.New()
	var seenName any
	require.NoError(t, reg.RegisterFilter(HookRegisterBlockType, "test/name", hooks.DefaultPriority,
		func(_ context.Context, v any, args ...any) (any, error) {
			seenName = args[0]
			return v.(Settings).WithAttribute("extra", AttributeDef{Type: "string", Default: ""}), nil
		}))

	editor := NewEditor(reg)
	got, err := editor.RegisterBlockType(context.Background(), "core/button", Settings{"title": "Button"})
	require.NoError(t, err)
	assert.Equal(t, "core/button", seenName)
	assert.Equal(t, map[string]any{"type": "string", "default": ""}, got.AttributeSchema()["extra"])
}

func TestEditor_RegisterBlockType_DoesNotMutateInput(t *testing.T) {
	reg := hooks.New()
	require.NoError(t, reg.RegisterFilter(HookRegisterBlockType, "test/mutate", hooks.DefaultPriority,
		func(_ context.Context, v any, _ ...any) (any, error) {
			s := v.(Settings)
			s.AttributeSchema()["added"] = true
			return s, nil
		}))

	input := Settings{"attributes": map[string]any{}}
	_, err := NewEditor(reg).RegisterBlockType(context.Background(), "core/image", input)
	require.NoError(t, err)
	assert.Empty(t, input.AttributeSchema())
}

func TestEditor_RegisterBlockType_Errors(t *testing.T) {
	_, err := NewEditor(hooks.New()).RegisterBlockType(context.Background(), "", Settings{})
	errutil.AssertErrorCode(t, err, hooks.CodeInvalidArgument)

	reg := hooks.New()
	boom := errors.New("boom")
	require.NoError(t, reg.RegisterFilter(HookRegisterBlockType, "test/fail", hooks.DefaultPriority,
		func(context.Context, any, ...any) (any, error) { return nil, boom }))

	editor := NewEditor(reg)
	_, err = editor.RegisterBlockType(context.Background(), "core/image", Settings{})
	require.ErrorIs(t, err, boom)
	errutil.AssertErrorCode(t, err, hooks.CodeCallbackFailure)
	_, ok := editor.BlockType("core/image")
	assert.False(t, ok)
}

func TestEditor_Edit_DefaultUI(t *testing.T) {
	editor := NewEditor(hooks.New())
	props := EditProps{Name: "core/paragraph", Attributes: Attributes{"content": "hi"}}

	got, err := editor.Edit(context.Background(), props)
	require.NoError(t, err)
	assert.Equal(t, BlockUI{Name: "core/paragraph", Attributes: Attributes{"content": "hi"}}, got)
}

func TestEditor_Edit_WrappedByFilter(t *testing.T) {
	reg := hooks.New()
	require.NoError(t, reg.RegisterFilter(HookBlockEdit, "test/wrap", hooks.DefaultPriority,
		func(_ context.Context, v any, _ ...any) (any, error) {
			next := v.(EditFunc)
			return EditFunc(func(ctx context.Context, props EditProps) (Element, error) {
				ui, err := next(ctx, props)
				return Fragment{ui, "extra"}, err
			}), nil
		}))

	got, err := NewEditor(reg).Edit(context.Background(), EditProps{Name: "core/image"})
	require.NoError(t, err)
	assert.Equal(t, Fragment{BlockUI{Name: "core/image"}, "extra"}, got)
}

func TestEditor_Edit_NilEditFunction(t *testing.T) {
	reg := hooks.New()
	require.NoError(t, reg.RegisterFilter(HookBlockEdit, "test/forgets", hooks.DefaultPriority,
		func(context.Context, any, ...any) (any, error) { return nil, nil }))

	_, err := NewEditor(reg).Edit(context.Background(), EditProps{Name: "core/image"})
	errutil.AssertErrorCode(t, err, hooks.CodeInvalidResult)
}

func TestEditor_SaveProps(t *testing.T) {
	reg := hooks.New()
	var seenType any
	require.NoError(t, reg.RegisterFilter(HookSaveExtraProps, "test/save", hooks.DefaultPriority,
		func(_ context.Context, v any, args ...any) (any, error) {
			seenType = args[0]
			props := v.(Props).Clone()
			props["data-alt"] = args[1].(Attributes).String("customAlt")
			return props, nil
		}))

	got, err := NewEditor(reg).SaveProps(context.Background(), "core/image", Attributes{"customAlt": "cat"})
	require.NoError(t, err)
	assert.Equal(t, BlockType{Name: "core/image"}, seenType)
	assert.Equal(t, Props{"data-alt": "cat"}, got)
}

func TestEditor_SaveProps_NoFilters(t *testing.T) {
	got, err := NewEditor(hooks.New()).SaveProps(context.Background(), "core/image", nil)
	require.NoError(t, err)
	assert.Equal(t, Props{}, got)
}

func TestSettings_Clone(t *testing.T) {
	var nilSettings Settings
	assert.Equal(t, Settings{}, nilSettings.Clone())

	orig := Settings{"title": "x", "attributes": map[string]any{"a": 1}}
	clone := orig.Clone()
	clone.AttributeSchema()["b"] = 2
	clone["title"] = "y"
	assert.Equal(t, Settings{"title": "x", "attributes": map[string]any{"a": 1}}, orig)
}
