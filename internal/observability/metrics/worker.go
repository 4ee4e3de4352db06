package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the usage ledger consumer. The service name is a
// constant label on every family.
type WorkerMetrics struct {
	registry *prometheus.Registry
	now      func() time.Time

	stored   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	lag      prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	constLabels := prometheus.Labels{"service": service}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   "game_expert",
			Subsystem:   "worker",
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}
	}

	m := &WorkerMetrics{
		registry: prometheus.NewRegistry(),
		now:      time.Now,
		stored: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("usage_store_total", "Usage events written to the ledger by outcome.")),
			[]string{"status"},
		),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "game_expert",
			Subsystem:   "worker",
			Name:        "usage_store_duration_seconds",
			Help:        "Ledger write duration by outcome.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"status"}),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts(opts("usage_store_in_flight", "Ledger writes currently running.")),
		),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "game_expert",
			Subsystem:   "worker",
			Name:        "usage_event_lag_seconds",
			Help:        "Time from answering a question to storing its usage event.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
	m.registry.MustRegister(m.stored, m.latency, m.inFlight, m.lag)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TrackStore marks one ledger write in flight and returns the callback that
// closes it. A zero createdAt skips the lag observation.
func (m *WorkerMetrics) TrackStore(createdAt time.Time) func(error) {
	started := m.now()
	if !createdAt.IsZero() {
		if lag := started.Sub(createdAt); lag >= 0 {
			m.lag.Observe(lag.Seconds())
		}
	}
	m.inFlight.Inc()

	return func(err error) {
		m.inFlight.Dec()
		status := "success"
		if err != nil {
			status = "error"
		}
		m.stored.WithLabelValues(status).Inc()
		m.latency.WithLabelValues(status).Observe(m.now().Sub(started).Seconds())
	}
}
