package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatched = "unmatched"

// Event stream transports, used as the transport label.
const (
	transportSSE       = "sse"
	transportWebSocket = "websocket"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotipi_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotipi_http_request_duration_seconds",
			Help:    "Duration of short-lived HTTP requests in seconds. Event streams are excluded.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	eventStreamsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spotipi_http_event_streams",
			Help: "Number of open event stream connections.",
		},
		[]string{"transport"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(eventStreamsActive)

	eventStreamsActive.WithLabelValues(transportSSE)
	eventStreamsActive.WithLabelValues(transportWebSocket)
}

// streamingRoutes stay open for the life of a client and would swamp the
// duration histogram.
var streamingRoutes = map[string]bool{
	"/v1/events":    true,
	"/v1/events/ws": true,
}

// metricsMiddleware counts every request by chi route pattern and records
// the duration of non-streaming ones.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// Hijacked WebSocket connections never report a status.
			status = http.StatusOK
		}

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		if !streamingRoutes[path] {
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}
	})
}

// trackStream counts an open event stream until the returned func is called.
func trackStream(transport string) func() {
	g := eventStreamsActive.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}

// routePattern extracts the matched chi route pattern, falling back to "unmatched".
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatched
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
