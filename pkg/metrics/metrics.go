// Copyright (c) 2025 AAStar Community
//
// This file is part of go-hostbridge.
//
// go-hostbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@aastar.community for commercial licensing options.

// Package metrics provides Prometheus instrumentation for bridge operations.
// It exposes invocation counters, per-transport attempt counters, fallback
// counters, and latency histograms so operators can see which call path is
// actually serving commands.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all bridge metrics
	Namespace = "hostbridge"

	// Label names
	LabelCommand   = "command"
	LabelRoute     = "route"
	LabelTransport = "transport"
	LabelStatus    = "status"
	LabelReason    = "reason"
	LabelResult    = "result"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Route values: which layer ultimately served the invocation
	RouteNative     = "native"
	RouteSimulation = "simulation"

	// Fallback reasons
	ReasonNoNativeContext    = "no_native_context"
	ReasonTransportExhausted = "transport_exhausted"

	// Readiness wait results
	ResultReady   = "ready"
	ResultTimeout = "timeout"
)

var (
	// InvocationsTotal counts command invocations by command, serving route,
	// and terminal status.
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "invocations_total",
			Help:      "Total number of bridge invocations by command, route, and status",
		},
		[]string{LabelCommand, LabelRoute, LabelStatus},
	)

	// TransportAttemptsTotal counts individual transport attempts. A single
	// invocation may record several attempts before one succeeds.
	TransportAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transport_attempts_total",
			Help:      "Total number of transport attempts by transport and status",
		},
		[]string{LabelTransport, LabelStatus},
	)

	// FallbacksTotal counts invocations served by the simulation engine,
	// by reason.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of invocations routed to the simulation engine",
		},
		[]string{LabelReason},
	)

	// ReadinessWaitsTotal counts readiness waits by result. Collapsed
	// waiters sharing one underlying wait record once per caller.
	ReadinessWaitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "readiness_waits_total",
			Help:      "Total number of native-API readiness waits by result",
		},
		[]string{LabelResult},
	)

	// InvocationDuration tracks end-to-end invocation latency in seconds,
	// including transport retries and readiness waits.
	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "invocation_duration_seconds",
			Help:      "End-to-end duration of bridge invocations in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{LabelCommand},
	)
)

// RecordInvocation increments the invocation counter and observes latency.
func RecordInvocation(command, route string, err error, started time.Time) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	InvocationsTotal.WithLabelValues(command, route, status).Inc()
	InvocationDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

// RecordTransportAttempt increments the per-transport attempt counter.
func RecordTransportAttempt(transport string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	TransportAttemptsTotal.WithLabelValues(transport, status).Inc()
}

// RecordFallback increments the fallback counter.
func RecordFallback(reason string) {
	FallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordReadinessWait increments the readiness-wait counter.
func RecordReadinessWait(ready bool) {
	result := ResultTimeout
	if ready {
		result = ResultReady
	}
	ReadinessWaitsTotal.WithLabelValues(result).Inc()
}
