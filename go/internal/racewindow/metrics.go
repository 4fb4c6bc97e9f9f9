package racewindow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines the interface for collecting engine metrics
type MetricsCollector interface {
	RecordResync(success bool, duration time.Duration)
	RecordReseed()
	RecordExpired(count int)
	RecordDelete(success bool)
	RecordWindow(displayed, pending int)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordResync(success bool, duration time.Duration) {}
func (NoOpMetricsCollector) RecordReseed()                                     {}
func (NoOpMetricsCollector) RecordExpired(count int)                           {}
func (NoOpMetricsCollector) RecordDelete(success bool)                         {}
func (NoOpMetricsCollector) RecordWindow(displayed, pending int)               {}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	resyncs        *prometheus.CounterVec
	resyncDuration prometheus.Histogram
	reseeds        prometheus.Counter
	expired        prometheus.Counter
	deletes        *prometheus.CounterVec
	displayed      prometheus.Gauge
	pending        prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raceboard",
			Name:      "resyncs_total",
			Help:      "Resync attempts against the event store by outcome.",
		}, []string{"status"}),
		resyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "raceboard",
			Name:      "resync_duration_seconds",
			Help:      "Time spent fetching and applying a resync.",
			Buckets:   prometheus.DefBuckets,
		}),
		reseeds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raceboard",
			Name:      "reseeds_total",
			Help:      "Wholesale replacements of the display window.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raceboard",
			Name:      "expired_total",
			Help:      "Races retired because their start time passed.",
		}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raceboard",
			Name:      "deletes_total",
			Help:      "Best-effort delete requests sent to the event store by outcome.",
		}, []string{"status"}),
		displayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "raceboard",
			Name:      "window_size",
			Help:      "Races currently displayed.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "raceboard",
			Name:      "pending_size",
			Help:      "Known future races in the pending queue.",
		}),
	}

	reg.MustRegister(m.resyncs, m.resyncDuration, m.reseeds, m.expired, m.deletes, m.displayed, m.pending)
	return m
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *PrometheusMetrics) RecordResync(success bool, duration time.Duration) {
	m.resyncs.WithLabelValues(status(success)).Inc()
	m.resyncDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordReseed() {
	m.reseeds.Inc()
}

func (m *PrometheusMetrics) RecordExpired(count int) {
	m.expired.Add(float64(count))
}

func (m *PrometheusMetrics) RecordDelete(success bool) {
	m.deletes.WithLabelValues(status(success)).Inc()
}

func (m *PrometheusMetrics) RecordWindow(displayed, pending int) {
	m.displayed.Set(float64(displayed))
	m.pending.Set(float64(pending))
}
