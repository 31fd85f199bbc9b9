// Package metrics records what a release run did against the hosting API
// as Prometheus metrics: step durations, API calls, run resolution
// attempts and status polls. A run is short-lived, so nothing is served;
// the registry is written once to a node_exporter textfile when
// --metrics-file is given.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "release_runner"

// Metrics holds the collectors of one release run.
type Metrics struct {
	registry *prometheus.Registry

	stepDuration    *prometheus.HistogramVec
	apiRequests     *prometheus.CounterVec
	resolveAttempts *prometheus.CounterVec
	runPolls        *prometheus.CounterVec
	stage           prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of release steps in seconds",
				Buckets:   []float64{1, 5, 30, 60, 120, 300, 600, 900, 1800},
			},
			[]string{"step", "outcome"},
		),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of hosting API requests",
			},
			[]string{"endpoint", "code"},
		),
		resolveAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_attempts_total",
				Help:      "Total number of workflow run listing fetches while resolving a run",
			},
			[]string{"trigger"},
		),
		runPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "run_polls_total",
				Help:      "Total number of workflow run status checks",
			},
			[]string{"trigger"},
		),
		stage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stage",
				Help:      "Current release stage (0=initial .. 4=published)",
			},
		),
	}

	m.registry.MustRegister(m.stepDuration, m.apiRequests, m.resolveAttempts, m.runPolls, m.stage)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStep records how long step took and whether it failed.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.stepDuration.WithLabelValues(step, outcome).Observe(d.Seconds())
}

// APIRequest counts one API call by endpoint and HTTP status code.
func (m *Metrics) APIRequest(endpoint, code string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(endpoint, code).Inc()
}

// ResolveAttempt counts one run listing fetch.
func (m *Metrics) ResolveAttempt(trigger string) {
	if m == nil {
		return
	}
	m.resolveAttempts.WithLabelValues(trigger).Inc()
}

// RunPoll counts one run status fetch.
func (m *Metrics) RunPoll(trigger string) {
	if m == nil {
		return
	}
	m.runPolls.WithLabelValues(trigger).Inc()
}

// SetStage records the stage the run has reached.
func (m *Metrics) SetStage(stage int) {
	if m == nil {
		return
	}
	m.stage.Set(float64(stage))
}

// WriteTextfile writes every metric to path in the Prometheus text
// format, atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
