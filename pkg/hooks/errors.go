// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hooks

import (
	"fmt"

	"github.com/samber/oops"
)

// Error codes for registry failures.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeCallbackFailure = "CALLBACK_FAILURE"
	CodeInvalidResult   = "INVALID_RESULT"
)

// CallbackError is the failure of a single registered callback during dispatch.
// It is wrapped in an oops error carrying CodeCallbackFailure; use errors.As to
// reach it and errors.Is / errors.As through it to reach the callback's own error.
type CallbackError struct {
	Hook      string
	Namespace string
	Kind      Kind
	Priority  int
	Err       error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s %q callback %q failed: %v", e.Kind, e.Hook, e.Namespace, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// ErrInvalidArgument creates an error for a malformed registration.
func ErrInvalidArgument(field, reason string) error {
	return oops.Code(CodeInvalidArgument).
		In("hooks").
		With("field", field).
		Errorf("invalid %s: %s", field, reason)
}

// ErrInvalidResult creates an error for a filter result that cannot be used as the expected type.
func ErrInvalidResult(hook string, want string, got any) error {
	return oops.Code(CodeInvalidResult).
		In("hooks").
		With("hook", hook).
		With("want", want).
		With("got", fmt.Sprintf("%T", got)).
		Errorf("filter %q returned %T, want %s", hook, got, want)
}

func callbackFailure(e entry, cause error) error {
	return oops.Code(CodeCallbackFailure).
		In("hooks").
		With("hook", e.hook).
		With("namespace", e.namespace).
		With("kind", string(e.kind)).
		With("priority", e.priority).
		Wrap(&CallbackError{
			Hook:      e.hook,
			Namespace: e.namespace,
			Kind:      e.kind,
			Priority:  e.priority,
			Err:       cause,
		})
}
