// Package metrics defines the Prometheus instrumentation for cinegate.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery outcomes for the deliveries_total counter.
const (
	OutcomeDelivered = "delivered"
	OutcomeLocked    = "locked"
	OutcomeNotFound  = "not_found"
)

// Metrics holds all counters. Each instance carries its own registry so
// tests never collide on global collector registration.
type Metrics struct {
	Uploads            prometheus.Counter
	Deliveries         *prometheus.CounterVec
	MessagesDeleted    prometheus.Counter
	DeletionsAbandoned prometheus.Counter
	StoreErrors        prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinegate_uploads_total",
			Help: "Movie entries persisted via the upload flow.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinegate_deliveries_total",
			Help: "Deep-link delivery attempts by outcome.",
		}, []string{"outcome"}),
		MessagesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinegate_messages_deleted_total",
			Help: "Delivered messages removed after the configured delay.",
		}),
		DeletionsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinegate_deletions_abandoned_total",
			Help: "Scheduled deletions cancelled by shutdown.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinegate_store_errors_total",
			Help: "Failed content store operations.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.Uploads,
		m.Deliveries,
		m.MessagesDeleted,
		m.DeletionsAbandoned,
		m.StoreErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
