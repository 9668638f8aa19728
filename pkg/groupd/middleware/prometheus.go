// Adapted from https://github.com/766b/chi-prometheus.

package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30}
)

const (
	reqsName    = "requests_total"
	latencyName = "request_duration_seconds"
)

// PrometheusMiddleware exposes the number of requests and their latency,
// partitioned by status code, method and route pattern.
type PrometheusMiddleware struct {
	reqs    *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func NewPrometheusMiddleware(name string, buckets ...float64) *PrometheusMiddleware {
	var m PrometheusMiddleware
	m.reqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        reqsName,
			Help:        "How many HTTP requests processed, partitioned by status code, method and HTTP path.",
			ConstLabels: prometheus.Labels{"service": name},
		},
		[]string{"code", "method", "path"},
	)

	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	m.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        latencyName,
		Help:        "How long it took to process the request, partitioned by status code, method and HTTP path.",
		ConstLabels: prometheus.Labels{"service": name},
		Buckets:     buckets,
	},
		[]string{"code", "method", "path"},
	)

	m.reqs = register(m.reqs).(*prometheus.CounterVec)
	m.latency = register(m.latency).(*prometheus.HistogramVec)

	return &m
}

// Routers built more than once in the same process share their collectors.
func register(collector prometheus.Collector) prometheus.Collector {
	err := prometheus.Register(collector)
	if err == nil {
		return collector
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector
	}
	panic(err)
}

// Initialize makes the series for a path, method and status code visible before the first request.
func (m *PrometheusMiddleware) Initialize(path, method string, code int) {
	statusCode := strconv.Itoa(code)
	m.reqs.WithLabelValues(statusCode, method, path)
	m.latency.WithLabelValues(statusCode, method, path)
}

func (m *PrometheusMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			statusCode := strconv.Itoa(ww.Status())
			duration := time.Since(start)
			path := routePattern(r)
			m.reqs.WithLabelValues(statusCode, r.Method, path).Inc()
			m.latency.WithLabelValues(statusCode, r.Method, path).Observe(duration.Seconds())
		}
		return http.HandlerFunc(fn)
	}
}

// Deployment group IDs would make every request its own series.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); len(pattern) > 0 {
		return pattern
	}
	return r.URL.Path
}
