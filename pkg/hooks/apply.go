// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hooks

import (
	"context"
	"reflect"
)

// Apply is a typed ApplyFilter. A nil result yields the zero T, a result whose
// type converts to T (for example map[string]any to a named map type) is
// converted, and anything else fails with CodeInvalidResult.
func Apply[T any](ctx context.Context, r *Registry, hook string, seed T, args ...any) (T, error) {
	var zero T

	out, err := r.ApplyFilter(ctx, hook, seed, args...)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	if v, ok := out.(T); ok {
		return v, nil
	}

	want := reflect.TypeFor[T]()
	rv := reflect.ValueOf(out)
	if convertible(rv, want) {
		v, ok := rv.Convert(want).Interface().(T)
		if ok {
			return v, nil
		}
	}
	return zero, ErrInvalidResult(hook, want.String(), out)
}

// ActionOf adapts a callback that cannot fail.
func ActionOf(fn func(ctx context.Context, args ...any)) ActionFunc {
	return func(ctx context.Context, args ...any) error {
		fn(ctx, args...)
		return nil
	}
}

// convertible allows same-kind conversions (named map and slice types) and
// numeric widening or narrowing, but not number-to-string.
func convertible(v reflect.Value, want reflect.Type) bool {
	if want.Kind() == reflect.Interface || !v.Type().ConvertibleTo(want) {
		return false
	}
	return v.Kind() == want.Kind() || (isNumber(v.Kind()) && isNumber(want.Kind()))
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
