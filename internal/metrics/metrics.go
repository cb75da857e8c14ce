// Package metrics exposes poll loop counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thirdeye"

type Metrics struct {
	registry *prometheus.Registry

	Polls           prometheus.Counter
	PollFailures    prometheus.Counter
	PollsSkipped    prometheus.Counter
	StaleDropped    prometheus.Counter
	NewAlerts       prometheus.Counter
	PersistFailures prometheus.Counter
	PollDuration    prometheus.Histogram
	AlertsHeld      prometheus.Gauge
	Subscribers     prometheus.Gauge
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// New builds a private registry so tests can create as many as they like.
func New() *Metrics {
	pollDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Fetch latency.",
		Buckets:   prometheus.DefBuckets,
	})

	m := &Metrics{
		registry:        prometheus.NewRegistry(),
		Polls:           counter("polls_total", "Completed fetches against the alerts endpoint."),
		PollFailures:    counter("poll_failures_total", "Fetches that failed on network, status or decode."),
		PollsSkipped:    counter("polls_skipped_total", "Ticks skipped because a fetch was still in flight."),
		StaleDropped:    counter("stale_results_dropped_total", "Fetch results discarded because a newer one was applied."),
		NewAlerts:       counter("new_alerts_total", "Alerts accepted after de-duplication."),
		PersistFailures: counter("persist_failures_total", "Failed writes to the local store."),
		PollDuration:    pollDuration,
		AlertsHeld:      gauge("alerts_held", "Alerts currently held by the dashboard."),
		Subscribers:     gauge("notification_subscribers", "Open notification streams."),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Polls, m.PollFailures, m.PollsSkipped, m.StaleDropped, m.NewAlerts,
		m.PersistFailures, m.PollDuration, m.AlertsHeld, m.Subscribers,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
