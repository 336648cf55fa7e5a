// Package metrics exposes session issuance counters and password hashing
// latency in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	issued   *prometheus.CounterVec
	failures *prometheus.CounterVec
	hashing  prometheus.Histogram
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "sessions_issued_total",
			Help:      "Token pairs issued and recorded, by operation.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "session_failures_total",
			Help:      "Failed session operations, by operation and reason.",
		}, []string{"operation", "reason"}),
		hashing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gophauth",
			Name:      "password_hash_seconds",
			Help:      "Duration of bcrypt hash and verify calls.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}

	m.registry.MustRegister(
		m.issued,
		m.failures,
		m.hashing,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) SessionIssued(operation string) {
	m.issued.WithLabelValues(operation).Inc()
}

func (m *Metrics) SessionFailed(operation, reason string) {
	m.failures.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) ObserveHash(d time.Duration) {
	m.hashing.Observe(d.Seconds())
}

// Handler serves the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
	return mux
}

// Registry is exposed for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
