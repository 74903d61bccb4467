// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vizille/dashboard/internal/actions"
)

// Dataset load states reported by vizille_dataset_status.
const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

var loadStatuses = []string{StatusLoading, StatusReady, StatusFailed}

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	commands      *prometheus.CounterVec
	requests      *prometheus.CounterVec
	sessions      prometheus.Gauge
	records       prometheus.Gauge
	recordsStatus *prometheus.GaugeVec
	datasetStatus *prometheus.GaugeVec
	rateLimited   prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vizille_commands_total",
			Help: "Dashboard commands applied, by type.",
		}, []string{"type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vizille_http_requests_total",
			Help: "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "code"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vizille_sessions_active",
			Help: "Live dashboard sessions.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vizille_actions",
			Help: "Actions in the loaded dataset.",
		}),
		recordsStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vizille_actions_by_status",
			Help: "Actions in the loaded dataset, by status.",
		}, []string{"status"}),
		datasetStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vizille_dataset_status",
			Help: "1 for the current dataset load state.",
		}, []string{"status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vizille_rate_limited_total",
			Help: "Command requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.commands, m.requests, m.sessions, m.records, m.recordsStatus,
		m.datasetStatus, m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.SetDatasetStatus(StatusLoading)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// CommandApplied counts one command of type kind.
func (m *Metrics) CommandApplied(kind string) { m.commands.WithLabelValues(kind).Inc() }

// RequestServed counts one HTTP response.
func (m *Metrics) RequestServed(route, code string) { m.requests.WithLabelValues(route, code).Inc() }

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

// SetSessions records the number of live sessions.
func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

// SetDatasetStatus marks status as the current load state.
func (m *Metrics) SetDatasetStatus(status string) {
	for _, s := range loadStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		m.datasetStatus.WithLabelValues(s).Set(v)
	}
}

// SetDataset records the size and status breakdown of the loaded dataset.
func (m *Metrics) SetDataset(all []*actions.Action) {
	m.records.Set(float64(len(all)))
	counts := make(map[actions.Status]int, len(actions.Statuses))
	for _, a := range all {
		counts[a.Status]++
	}
	for _, s := range actions.Statuses {
		m.recordsStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
