// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

// Package hooks provides a named hook registry with ordered dispatch.
//
// Two dispatch modes share one namespace of hook names:
//
//   - Actions broadcast the same arguments to every registered callback.
//   - Filters thread a value through the chain; each callback receives the
//     previous callback's result and the last result is returned.
//
// Callbacks run in ascending priority order, ties broken by registration
// order. Dispatch is synchronous and fail-fast: the first callback that
// returns an error (or panics) aborts the chain and the failure is returned
// to the caller as a CALLBACK_FAILURE.
//
// A filter callback must return a value. Whatever it returns, nil included,
// becomes the input of the next stage:
//
//	hooks.RegisterFilter("learnhooks.modifyEnrollmentMessage", "my-plugin/emoji", hooks.DefaultPriority,
//		func(_ context.Context, value any, _ ...any) (any, error) {
//			return value.(string) + " 🎉", nil
//		})
//
//	msg, err := hooks.ApplyFilter(ctx, "learnhooks.modifyEnrollmentMessage", "User 101 enrolled in course 42", 101, 42)
package hooks
