/*
Copyright 2025 the Unikorn Authors.
Copyright 2026 Nscale.

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
)

const namespace = "geefixture"

//nolint:gochecknoglobals
var (
	// Registry holds every collector defined here.  It is separate from the
	// default registry so test binaries importing this package stay clean.
	Registry = prometheus.NewRegistry()

	// Checks counts regression checks by data kind and outcome.
	Checks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "regression_checks_total",
		Help:      "Regression checks by kind and outcome.",
	}, []string{"kind", "outcome"})

	// SnapshotRefreshes counts serialized snapshot rewrites by result.
	SnapshotRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_refresh_total",
		Help:      "Serialized request snapshot refreshes by kind and result.",
	}, []string{"kind", "result"})

	// RemoteRequests counts API calls by operation and HTTP status code.
	RemoteRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_requests_total",
		Help:      "Earth Engine API requests by operation and status code.",
	}, []string{"operation", "code"})

	// RemoteRequestDuration observes API latency by operation.
	RemoteRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_request_duration_seconds",
		Help:      "Earth Engine API request latency.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"operation"})

	// TaskStates counts the final state of every waited on export task.
	TaskStates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_final_states_total",
		Help:      "Export tasks by the last observed state.",
	}, []string{"state"})
)

//nolint:gochecknoinits
func init() {
	Registry.MustRegister(Checks, SnapshotRefreshes, RemoteRequests, RemoteRequestDuration, TaskStates)
}

// WriteToFile dumps every metric in text exposition format.
func WriteToFile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
