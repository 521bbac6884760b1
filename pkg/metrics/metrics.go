// Package metrics holds the Prometheus collectors of the dashboard workflow service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "dashboard"

// Metrics is a set of collectors bound to a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	WorkflowsCreated prometheus.Counter
	VersionsAppended prometheus.Counter
	VersionConflicts prometheus.Counter
	RunsFinished     *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	StoreErrors      *prometheus.CounterVec
}

// New creates the collectors and registers them, plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WorkflowsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_created_total",
			Help:      "Total number of workflows created",
		}),
		VersionsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_versions_appended_total",
			Help:      "Total number of graph versions appended",
		}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_version_conflicts_total",
			Help:      "Total number of lost compare-and-set rounds while appending versions",
		}),
		RunsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Total number of finished workflow runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total number of persistence failures by operation",
			},
			[]string{"operation"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.WorkflowsCreated,
		m.VersionsAppended,
		m.VersionConflicts,
		m.RunsFinished,
		m.RunDuration,
		m.StoreErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) WorkflowCreated() {
	if m == nil {
		return
	}

	m.WorkflowsCreated.Inc()
}

func (m *Metrics) VersionAppended() {
	if m == nil {
		return
	}

	m.VersionsAppended.Inc()
}

func (m *Metrics) VersionConflict() {
	if m == nil {
		return
	}

	m.VersionConflicts.Inc()
}

func (m *Metrics) RunFinished(status string, duration time.Duration) {
	if m == nil {
		return
	}

	m.RunsFinished.WithLabelValues(status).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

func (m *Metrics) StoreError(operation string) {
	if m == nil {
		return
	}

	m.StoreErrors.WithLabelValues(operation).Inc()
}
