// Package metrics records run-level counters for fetches, hops and trials.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one run. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	hopsTotal     *prometheus.CounterVec
	trialsTotal   *prometheus.CounterVec
	trialScore    *prometheus.HistogramVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikibench_fetch_total",
			Help: "Link source requests by kind and result",
		}, []string{"kind", "result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikibench_fetch_duration_seconds",
			Help:    "Link source request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"kind"}),
		hopsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikibench_hops_total",
			Help: "Validated hops by status",
		}, []string{"status"}),
		trialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikibench_trials_total",
			Help: "Finished trials by agent, mode and outcome",
		}, []string{"agent", "mode", "outcome"}),
		trialScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikibench_trial_score",
			Help:    "Trial scores (lower is better)",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}, []string{"agent", "mode"}),
	}
	m.registry.MustRegister(m.fetchTotal, m.fetchDuration, m.hopsTotal, m.trialsTotal, m.trialScore)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records one link source request. kind is "links" or "random".
func (m *Metrics) ObserveFetch(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchTotal.WithLabelValues(kind, result).Inc()
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveHop records one validated hop.
func (m *Metrics) ObserveHop(status string) {
	if m == nil {
		return
	}
	m.hopsTotal.WithLabelValues(status).Inc()
}

// ObserveTrial records a finished trial.
func (m *Metrics) ObserveTrial(agent, mode, outcome string, score int) {
	if m == nil {
		return
	}
	m.trialsTotal.WithLabelValues(agent, mode, outcome).Inc()
	m.trialScore.WithLabelValues(agent, mode).Observe(float64(score))
}

// WriteTextfile writes all collected metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
