// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package capability_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhooks/learnhooks/internal/plugin/capability"
	"github.com/learnhooks/learnhooks/pkg/errutil"
)

func TestEnforcer_Check(t *testing.T) {
	tests := []struct {
		name   string
		grants []string
		hook   string
		want   bool
	}{
		{"exact match", []string{"learnhooks.modifyEnrollmentMessage"}, "learnhooks.modifyEnrollmentMessage", true},
		{"star matches one dot segment", []string{"learnhooks.*"}, "learnhooks.afterInit", true},
		{"star does not cross dots", []string{"blocks.*"}, "blocks.getSaveContent.extraProps", false},
		{"double star crosses dots", []string{"blocks.**"}, "blocks.getSaveContent.extraProps", true},
		{"star within slash segment", []string{"learninghooks/user_enrolled_*"}, "learninghooks/user_enrolled_42", true},
		{"star does not cross slashes", []string{"learninghooks*"}, "learninghooks/user_enrolled", false},
		{"alternation", []string{"learnhooks.{beforeInit,afterInit}"}, "learnhooks.beforeInit", true},
		{"root double star", []string{"**"}, "editor.BlockEdit", true},
		{"prefix is not a match", []string{"learnhooks"}, "learnhooks.afterInit", false},
		{"no grants", []string{}, "learnhooks.afterInit", false},
		{"empty hook", []string{"**"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := capability.NewEnforcer()
			require.NoError(t, e.SetGrants("try-hooks", tt.grants))
			assert.Equal(t, tt.want, e.Check("try-hooks", tt.hook))
		})
	}
}

func TestEnforcer_UnknownPluginDenied(t *testing.T) {
	e := capability.NewEnforcer()
	assert.False(t, e.Check("ghost", "learnhooks.afterInit"))
	assert.False(t, e.IsRegistered("ghost"))

	var zero capability.Enforcer
	assert.False(t, zero.Check("ghost", "learnhooks.afterInit"))
	require.NoError(t, zero.SetGrants("p", []string{"**"}))
	assert.True(t, zero.Check("p", "x"))
}

func TestEnforcer_Require(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("p", []string{"learnhooks.*"}))

	require.NoError(t, e.Require("p", "learnhooks.afterInit"))

	err := e.Require("p", "blocks.registerBlockType")
	errutil.AssertErrorCode(t, err, capability.CodeDenied)
	errutil.AssertErrorContext(t, err, "hook", "blocks.registerBlockType")
	errutil.AssertErrorContext(t, err, "plugin", "p")
}

func TestEnforcer_SetGrants_Invalid(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("p", []string{"learnhooks.*"}))

	assert.Error(t, e.SetGrants("", []string{"**"}))
	assert.Error(t, e.SetGrants("p", []string{"ok.*", ""}))
	assert.Error(t, e.SetGrants("p", []string{"[unclosed"}))

	assert.Equal(t, []string{"learnhooks.*"}, e.Grants("p"), "failed SetGrants must not change grants")
}

func TestEnforcer_GrantsLifecycle(t *testing.T) {
	e := capability.NewEnforcer()
	grants := []string{"a.*", "b.*"}
	require.NoError(t, e.SetGrants("beta", grants))
	require.NoError(t, e.SetGrants("alpha", nil))
	grants[0] = "mutated"

	assert.Equal(t, []string{"a.*", "b.*"}, e.Grants("beta"))
	assert.Equal(t, []string{"alpha", "beta"}, e.Plugins())
	assert.True(t, e.IsRegistered("alpha"))

	copied := e.Grants("beta")
	copied[0] = "changed"
	assert.Equal(t, "a.*", e.Grants("beta")[0])

	e.RemoveGrants("beta")
	e.RemoveGrants("never-registered")
	assert.Nil(t, e.Grants("beta"))
	assert.False(t, e.Check("beta", "a.x"))
	assert.Equal(t, []string{"alpha"}, e.Plugins())
}

func TestEnforcer_Concurrent(t *testing.T) {
	e := capability.NewEnforcer()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = e.SetGrants("p", []string{"learnhooks.*"})
		}()
		go func() {
			defer wg.Done()
			_ = e.Check("p", "learnhooks.afterInit")
		}()
	}
	wg.Wait()
	assert.True(t, e.Check("p", "learnhooks.afterInit"))
}
