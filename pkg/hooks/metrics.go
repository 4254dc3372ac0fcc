// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for dispatch metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "empty"
)

// HookDispatches is the counter for hook dispatches.
// Hook names are open-ended, so they are not used as a label.
var HookDispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "learnhooks_hook_dispatches_total",
		Help: "Total number of hook dispatches",
	},
	[]string{"kind", "status"},
)

// HookDispatchDuration is the histogram for dispatch duration.
var HookDispatchDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "learnhooks_hook_dispatch_duration_seconds",
		Help:    "Hook dispatch duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// HookCallbacks is the counter for individual callback invocations.
var HookCallbacks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "learnhooks_hook_callbacks_total",
		Help: "Total number of hook callback invocations",
	},
	[]string{"kind"},
)

// HookRegistrations is the gauge of callbacks currently registered.
var HookRegistrations = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "learnhooks_hook_registrations",
		Help: "Number of hook callbacks currently registered",
	},
	[]string{"kind"},
)

// RegisterMetrics registers hooks package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HookDispatches)
	reg.MustRegister(HookDispatchDuration)
	reg.MustRegister(HookCallbacks)
	reg.MustRegister(HookRegistrations)
}

// dispatchRecorder tracks metrics for a single dispatch.
type dispatchRecorder struct {
	start     time.Time
	kind      Kind
	status    string
	callbacks int
}

func newDispatchRecorder(kind Kind) *dispatchRecorder {
	return &dispatchRecorder{start: time.Now(), kind: kind, status: StatusSuccess}
}

func (m *dispatchRecorder) invoked() {
	m.callbacks++
}

func (m *dispatchRecorder) record() {
	if m.callbacks == 0 && m.status == StatusSuccess {
		m.status = StatusEmpty
	}
	HookDispatches.WithLabelValues(string(m.kind), m.status).Inc()
	HookDispatchDuration.WithLabelValues(string(m.kind)).Observe(time.Since(m.start).Seconds())
	if m.callbacks > 0 {
		HookCallbacks.WithLabelValues(string(m.kind)).Add(float64(m.callbacks))
	}
}
