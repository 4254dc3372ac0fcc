// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hooks

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("learnhooks/hooks")

// DefaultPriority is the conventional mid-range priority.
const DefaultPriority = 10

// Kind distinguishes action callbacks from filter callbacks.
type Kind string

// Callback kinds.
const (
	KindAction Kind = "action"
	KindFilter Kind = "filter"
)

// ActionFunc is an action callback. Every callback in the chain receives the same args.
type ActionFunc func(ctx context.Context, args ...any) error

// FilterFunc is a filter callback. It receives the current value and returns the next one.
type FilterFunc func(ctx context.Context, value any, args ...any) (any, error)

// entry is one registered callback. Exactly one of action and filter is set.
type entry struct {
	hook      string
	namespace string
	priority  int
	kind      Kind
	seq       uint64
	action    ActionFunc
	filter    FilterFunc
}

// EntryInfo describes a registered callback for diagnostics.
type EntryInfo struct {
	Hook      string
	Namespace string
	Priority  int
	Kind      Kind
}

// Registry stores named callback chains and dispatches them synchronously.
// It is safe for concurrent use. Chains are replaced on every mutation, so a
// dispatch in progress always sees the chain as it was when the dispatch began.
type Registry struct {
	mu         sync.RWMutex
	chains     map[string][]entry
	dispatched map[string]int
	seq        uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		chains:     make(map[string][]entry),
		dispatched: make(map[string]int),
	}
}

// RegisterAction appends an action callback to the chain for hook.
func (r *Registry) RegisterAction(hook, namespace string, priority int, fn ActionFunc) error {
	if fn == nil {
		return ErrInvalidArgument("callback", "action callback is nil")
	}
	return r.add(entry{hook: hook, namespace: namespace, priority: priority, kind: KindAction, action: fn})
}

// RegisterFilter appends a filter callback to the chain for hook.
//
// The callback must return a value: a nil result is passed to the next stage
// as-is, it is not replaced by the seed.
func (r *Registry) RegisterFilter(hook, namespace string, priority int, fn FilterFunc) error {
	if fn == nil {
		return ErrInvalidArgument("callback", "filter callback is nil")
	}
	return r.add(entry{hook: hook, namespace: namespace, priority: priority, kind: KindFilter, filter: fn})
}

func (r *Registry) add(e entry) error {
	if strings.TrimSpace(e.hook) == "" {
		return ErrInvalidArgument("hook", "hook name cannot be empty")
	}
	if strings.TrimSpace(e.namespace) == "" {
		return ErrInvalidArgument("namespace", "namespace cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e.seq = r.seq

	chain := r.chains[e.hook]
	for _, existing := range chain {
		if existing.namespace == e.namespace {
			slog.Warn("duplicate hook registration: appending another callback",
				"hook", e.hook,
				"namespace", e.namespace,
				"kind", string(e.kind))
			break
		}
	}

	// Insert after every entry with priority <= e.priority so equal
	// priorities keep registration order.
	idx := sort.Search(len(chain), func(i int) bool {
		return chain[i].priority > e.priority
	})
	r.chains[e.hook] = slices.Insert(slices.Clone(chain), idx, e)
	HookRegistrations.WithLabelValues(string(e.kind)).Inc()

	slog.Debug("hook registered",
		"hook", e.hook,
		"namespace", e.namespace,
		"kind", string(e.kind),
		"priority", e.priority)
	return nil
}

// Unregister removes every callback registered on hook under namespace.
// It returns the number of callbacks removed; zero is not an error.
func (r *Registry) Unregister(hook, namespace string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain, ok := r.chains[hook]
	if !ok {
		return 0
	}

	kept := make([]entry, 0, len(chain))
	for _, e := range chain {
		if e.namespace == namespace {
			HookRegistrations.WithLabelValues(string(e.kind)).Dec()
			continue
		}
		kept = append(kept, e)
	}

	removed := len(chain) - len(kept)
	if removed == 0 {
		return 0
	}
	if len(kept) == 0 {
		delete(r.chains, hook)
	} else {
		r.chains[hook] = kept
	}

	slog.Debug("hook unregistered",
		"hook", hook,
		"namespace", namespace,
		"removed", removed)
	return removed
}

// RemoveAll removes every callback registered on hook.
func (r *Registry) RemoveAll(hook string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain := r.chains[hook]
	for _, e := range chain {
		HookRegistrations.WithLabelValues(string(e.kind)).Dec()
	}
	delete(r.chains, hook)
	return len(chain)
}

// Reset clears all callbacks and dispatch counters.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, chain := range r.chains {
		for _, e := range chain {
			HookRegistrations.WithLabelValues(string(e.kind)).Dec()
		}
	}
	r.chains = make(map[string][]entry)
	r.dispatched = make(map[string]int)
}

// Has reports whether hook has callbacks. An empty namespace matches any namespace.
func (r *Registry) Has(hook, namespace string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.chains[hook] {
		if namespace == "" || e.namespace == namespace {
			return true
		}
	}
	return false
}

// Entries returns the chain for hook in dispatch order.
func (r *Registry) Entries(hook string) []EntryInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[hook]
	infos := make([]EntryInfo, 0, len(chain))
	for _, e := range chain {
		infos = append(infos, EntryInfo{
			Hook:      e.hook,
			Namespace: e.namespace,
			Priority:  e.priority,
			Kind:      e.kind,
		})
	}
	return infos
}

// Hooks returns the names of all hooks with at least one callback, sorted.
func (r *Registry) Hooks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatched returns how many times hook has been dispatched, with or without callbacks.
func (r *Registry) Dispatched(hook string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dispatched[hook]
}

// snapshot returns the current chain for hook and counts the dispatch.
func (r *Registry) snapshot(hook string) []entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dispatched[hook]++
	return r.chains[hook]
}

// DoAction invokes every callback registered on hook, in order, with args.
// The first failing callback aborts the chain.
func (r *Registry) DoAction(ctx context.Context, hook string, args ...any) (err error) {
	chain := r.snapshot(hook)
	rec := newDispatchRecorder(KindAction)

	ctx, span := tracer.Start(ctx, "hooks.action",
		trace.WithAttributes(
			attribute.String("hook.name", hook),
			attribute.Int("hook.callbacks", len(chain)),
		),
	)
	defer func() {
		if err != nil {
			rec.status = StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		rec.record()
		span.End()
	}()

	for _, e := range chain {
		rec.invoked()
		if err = invokeAction(ctx, e, args); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFilter threads seed through every callback registered on hook and returns
// the final value. With no callbacks the seed is returned unchanged. On failure
// no partial value is returned.
func (r *Registry) ApplyFilter(ctx context.Context, hook string, seed any, args ...any) (result any, err error) {
	chain := r.snapshot(hook)
	rec := newDispatchRecorder(KindFilter)

	ctx, span := tracer.Start(ctx, "hooks.filter",
		trace.WithAttributes(
			attribute.String("hook.name", hook),
			attribute.Int("hook.callbacks", len(chain)),
		),
	)
	defer func() {
		if err != nil {
			rec.status = StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		rec.record()
		span.End()
	}()

	value := seed
	for _, e := range chain {
		rec.invoked()
		if value, err = invokeFilter(ctx, e, value, args); err != nil {
			return nil, err
		}
	}
	return value, nil
}

// invokeAction runs one entry for an action dispatch. A filter entry reached by
// an action dispatch gets args[0] as its value and its result is discarded.
func invokeAction(ctx context.Context, e entry, args []any) error {
	var cbErr error
	panicErr := oops.Recover(func() {
		if e.kind == KindAction {
			cbErr = e.action(ctx, args...)
			return
		}
		var value any
		var rest []any
		if len(args) > 0 {
			value, rest = args[0], args[1:]
		}
		_, cbErr = e.filter(ctx, value, rest...)
	})
	if panicErr != nil {
		return callbackFailure(e, panicErr)
	}
	if cbErr != nil {
		return callbackFailure(e, cbErr)
	}
	return nil
}

// invokeFilter runs one entry for a filter dispatch. An action entry reached by
// a filter dispatch sees the value as its first argument and the value passes through.
func invokeFilter(ctx context.Context, e entry, value any, args []any) (any, error) {
	next := value
	var cbErr error
	panicErr := oops.Recover(func() {
		if e.kind == KindFilter {
			next, cbErr = e.filter(ctx, value, args...)
			return
		}
		cbErr = e.action(ctx, append([]any{value}, args...)...)
	})
	if panicErr != nil {
		return nil, callbackFailure(e, panicErr)
	}
	if cbErr != nil {
		return nil, callbackFailure(e, cbErr)
	}
	return next, nil
}
