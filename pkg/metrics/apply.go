/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Apply operation metrics
	applyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgde_apply_total",
		Help: "Total number of resource apply operations",
	}, []string{"result", "mode", "gvk"})

	applyDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rgde_apply_duration_seconds",
		Help:    "Duration of resource apply operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"mode", "gvk"})

	resourcesManaged = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rgde_resources_managed",
		Help: "Number of resources currently managed by rgde",
	}, []string{"gvk", "namespace"})

	watchReconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgde_watch_reconnects_total",
		Help: "Total number of watch reconnect attempts, by outcome",
	}, []string{"gvk", "outcome"})

	watchDegraded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rgde_watch_monitoring_degraded",
		Help: "1 if a watch has exhausted its reconnect budget and is no longer monitored, else 0",
	}, []string{"gvk"})

	statusHydrationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgde_status_hydration_failures_total",
		Help: "Total number of status hydration failures",
	}, []string{"graph"})
)

func init() {
	// Register apply metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		applyTotal,
		applyDuration,
		resourcesManaged,
		watchReconnectsTotal,
		watchDegraded,
		statusHydrationFailuresTotal,
	)
}

// RecordApply records an apply operation
// result: "success" or "failure"
// mode: "apply", "create", or "adopt"
// gvk: GroupVersionKind as string (e.g., "apps/v1/Deployment")
func RecordApply(result, mode, gvk string, durationSeconds float64) {
	applyTotal.WithLabelValues(result, mode, gvk).Inc()
	applyDuration.WithLabelValues(mode, gvk).Observe(durationSeconds)
}

// SetManagedResources sets the gauge for managed resources
func SetManagedResources(gvk, namespace string, count int) {
	resourcesManaged.WithLabelValues(gvk, namespace).Set(float64(count))
}

// IncrementManagedResources increments the managed resources gauge
func IncrementManagedResources(gvk, namespace string) {
	resourcesManaged.WithLabelValues(gvk, namespace).Inc()
}

// DecrementManagedResources decrements the managed resources gauge
func DecrementManagedResources(gvk, namespace string) {
	resourcesManaged.WithLabelValues(gvk, namespace).Dec()
}

// RecordWatchReconnect records a watch reconnect attempt.
// outcome: "success" or "failure"
func RecordWatchReconnect(gvk, outcome string) {
	watchReconnectsTotal.WithLabelValues(gvk, outcome).Inc()
}

// SetWatchDegraded marks whether a watch has exhausted its reconnect budget.
func SetWatchDegraded(gvk string, degraded bool) {
	v := 0.0
	if degraded {
		v = 1.0
	}
	watchDegraded.WithLabelValues(gvk).Set(v)
}

// RecordStatusHydrationFailure records a failure to build a graph's status.
func RecordStatusHydrationFailure(graphName string) {
	statusHydrationFailuresTotal.WithLabelValues(graphName).Inc()
}
