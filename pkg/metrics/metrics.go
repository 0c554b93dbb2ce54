// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics records signing and upload counters on a private
// Prometheus registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cbi_sign"

// Attempt results reported by the transport.
const (
	AttemptSigned       = "signed"
	AttemptRejected     = "rejected"
	AttemptEmptyBody    = "empty_body"
	AttemptUnauthorized = "unauthorized"
	AttemptError        = "error"
)

// Metrics holds the collectors for one signing run.
type Metrics struct {
	registry *prometheus.Registry

	// Targets processed by the orchestrator, by outcome.
	TargetOutcomes *prometheus.CounterVec

	// Time spent signing one target, by outcome.
	SignDuration *prometheus.HistogramVec

	// Upload attempts by result.
	UploadAttempts *prometheus.CounterVec

	// Waits between upload attempts.
	RetryWaits prometheus.Counter

	// Bytes received from the signing server and written back to disk.
	SignedBytes prometheus.Counter

	// Targets found by discovery.
	DiscoveredTargets prometheus.Gauge
}

// New creates a Metrics instance on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		TargetOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "targets_total",
			Help:      "Signing targets processed, by outcome",
		}, []string{"outcome"}),
		SignDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_duration_seconds",
			Help:      "Duration of signing one target, by outcome",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		UploadAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_attempts_total",
			Help:      "Upload attempts to the signing server, by result",
		}, []string{"result"}),
		RetryWaits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_retry_waits_total",
			Help:      "Waits performed before retrying an upload",
		}),
		SignedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signed_bytes_total",
			Help:      "Bytes of signed content written back to disk",
		}),
		DiscoveredTargets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_targets",
			Help:      "Targets found by the last discovery run",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTarget records one orchestrator outcome and its duration.
func (m *Metrics) ObserveTarget(outcome string, d time.Duration) {
	if m != nil {
		m.TargetOutcomes.WithLabelValues(outcome).Inc()
		m.SignDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncAttempt records one upload attempt.
func (m *Metrics) IncAttempt(result string) {
	if m != nil {
		m.UploadAttempts.WithLabelValues(result).Inc()
	}
}

// IncRetryWait records one wait between attempts.
func (m *Metrics) IncRetryWait() {
	if m != nil {
		m.RetryWaits.Inc()
	}
}

// AddSignedBytes records n bytes of signed content.
func (m *Metrics) AddSignedBytes(n int64) {
	if m != nil && n > 0 {
		m.SignedBytes.Add(float64(n))
	}
}

// SetDiscovered records the size of the last discovered target set.
func (m *Metrics) SetDiscovered(n int) {
	if m != nil {
		m.DiscoveredTargets.Set(float64(n))
	}
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
