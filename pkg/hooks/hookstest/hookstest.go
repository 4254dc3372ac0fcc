// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package hookstest provides assertions for code that dispatches hooks.
package hookstest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnhooks/learnhooks/pkg/errutil"
	"github.com/learnhooks/learnhooks/pkg/hooks"
)

// AssertCallbackFailure asserts that err is the failure of the callback
// registered under namespace on hook, and returns it.
func AssertCallbackFailure(t *testing.T, err error, hook, namespace string) *hooks.CallbackError {
	t.Helper()
	cbErr := errutil.AssertErrorAs[*hooks.CallbackError](t, err)
	assert.Equal(t, hook, cbErr.Hook, "hook")
	assert.Equal(t, namespace, cbErr.Namespace, "namespace")
	errutil.AssertErrorContext(t, err, "hook", hook)
	return cbErr
}
