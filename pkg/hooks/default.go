// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hooks

import "context"

// std is the process-wide registry.
var std = New()

// Default returns the process-wide registry.
func Default() *Registry {
	return std
}

// RegisterAction registers an action on the default registry.
func RegisterAction(hook, namespace string, priority int, fn ActionFunc) error {
	return std.RegisterAction(hook, namespace, priority, fn)
}

// RegisterFilter registers a filter on the default registry.
func RegisterFilter(hook, namespace string, priority int, fn FilterFunc) error {
	return std.RegisterFilter(hook, namespace, priority, fn)
}

// Unregister removes callbacks from the default registry.
func Unregister(hook, namespace string) int {
	return std.Unregister(hook, namespace)
}

// DoAction dispatches an action on the default registry.
func DoAction(ctx context.Context, hook string, args ...any) error {
	return std.DoAction(ctx, hook, args...)
}

// ApplyFilter dispatches a filter on the default registry.
func ApplyFilter(ctx context.Context, hook string, seed any, args ...any) (any, error) {
	return std.ApplyFilter(ctx, hook, seed, args...)
}

// Reset clears the default registry. Tests use it to isolate cases.
func Reset() {
	std.Reset()
}

// Hookable is implemented by services that register their own callbacks.
type Hookable interface {
	RegisterHooks(r *Registry) error
}

// RegisterAll calls RegisterHooks on each service in order, stopping at the first error.
func RegisterAll(r *Registry, services ...Hookable) error {
	for _, s := range services {
		if err := s.RegisterHooks(r); err != nil {
			return err
		}
	}
	return nil
}
