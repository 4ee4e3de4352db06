package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal   *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	askDuration    *prometheus.HistogramVec
	llmTokensTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_expert",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "game_expert",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "game_expert",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_expert",
			Subsystem: "ask",
			Name:      "answers_total",
			Help:      "Total answered questions by resolved category.",
		},
		[]string{"service", "endpoint", "category", "source", "expertise_level"},
	)
	failuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_expert",
			Subsystem: "ask",
			Name:      "failures_total",
			Help:      "Total failed questions by error kind.",
		},
		[]string{"service", "endpoint", "kind"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "game_expert",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Question handling duration in seconds, backend call included.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "endpoint", "outcome"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "game_expert",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Token usage reported by the completion backend.",
		},
		[]string{"service", "provider", "direction", "model"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersTotal,
		failuresTotal,
		askDuration,
		llmTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		answersTotal:    answersTotal,
		failuresTotal:   failuresTotal,
		askDuration:     askDuration,
		llmTokensTotal:  llmTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded for MCP session paths and
// unknown routes.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/mcp"):
		return "/mcp"
	case path == "/api/game-expert", path == "/healthz", path == "/metrics", path == "/openapi.json":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordAnswer(service, endpoint, category, source, expertiseLevel string, duration time.Duration) {
	if expertiseLevel == "" {
		expertiseLevel = "none"
	}
	m.answersTotal.WithLabelValues(service, endpoint, category, source, expertiseLevel).Inc()
	m.askDuration.WithLabelValues(service, endpoint, "ok").Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordFailure(service, endpoint, kind string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	m.failuresTotal.WithLabelValues(service, endpoint, kind).Inc()
	m.askDuration.WithLabelValues(service, endpoint, kind).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordTokenUsage(service, provider, model string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, provider, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, provider, "out", model).Add(float64(completionTokens))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
