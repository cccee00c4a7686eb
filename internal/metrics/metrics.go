// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racemap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "racemap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Location pipeline metrics
	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racemap",
		Subsystem: "location",
		Name:      "samples_total",
		Help:      "Raw location samples offered to the filter, by verdict",
	}, []string{"verdict"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racemap",
		Subsystem: "location",
		Name:      "provider_errors_total",
		Help:      "Location provider failures, by error code",
	}, []string{"code"})

	TimeoutRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "racemap",
		Subsystem: "location",
		Name:      "timeout_retries_total",
		Help:      "Subscriptions restarted after a provider timeout",
	})

	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racemap",
		Subsystem: "location",
		Name:      "session_transitions_total",
		Help:      "Tracking session state transitions, by target state",
	}, []string{"state"})

	OutOfBounds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "racemap",
		Subsystem: "location",
		Name:      "out_of_bounds_total",
		Help:      "Accepted samples that fell outside the map bounds",
	})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "racemap",
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Current number of location stream subscribers",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack passes WebSocket upgrades through to the underlying writer.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request count and latency. pathFn maps a request to a
// low-cardinality path label.
func Middleware(next http.Handler, pathFn func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := pathFn(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
