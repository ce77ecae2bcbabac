package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered once at package load so multiple servers in one
// process share them.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoagent_http_requests_total",
			Help: "Total HTTP requests by method, route, and status.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "echoagent_http_request_duration_seconds",
			Help:    "HTTP request duration by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echoagent_invocations_total",
			Help: "Capability invocations by capability and outcome.",
		},
		[]string{"capability", "outcome"},
	)
)

// metricsMiddleware records request count and duration per chi route.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}

		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// recordInvocationMetric counts one dispatched invocation.
func recordInvocationMetric(capability, outcome string) {
	invocationsTotal.WithLabelValues(capability, outcome).Inc()
}
