// Package metrics holds the Prometheus collectors for the service.
// Everything registers on the default registry, which /metrics serves.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clandphoto_analyses_total",
			Help: "Photo analyses by outcome (success, soft_failure, hard_failure).",
		},
		[]string{"outcome"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clandphoto_analysis_duration_seconds",
			Help:    "Duration of analyzer calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)

	inputRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clandphoto_input_rejections_total",
			Help: "Files rejected before analysis, by reason.",
		},
		[]string{"reason"},
	)

	recordsCommittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clandphoto_records_committed_total",
		Help: "Inspection records handed to the record store.",
	})

	workflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clandphoto_workflow_transitions_total",
			Help: "Collection workflow state transitions.",
		},
		[]string{"from", "to"},
	)

	thumbnailCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clandphoto_thumbnail_cache_total",
			Help: "Thumbnail cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clandphoto_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clandphoto_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func ObserveAnalysis(outcome string, d time.Duration) {
	analysesTotal.WithLabelValues(outcome).Inc()
	analysisDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func InputRejected(reason string) {
	inputRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordCommitted() {
	recordsCommittedTotal.Inc()
}

func Transition(from, to string) {
	workflowTransitionsTotal.WithLabelValues(from, to).Inc()
}

func ThumbnailLookup(hit bool) {
	if hit {
		thumbnailCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	thumbnailCacheTotal.WithLabelValues("miss").Inc()
}

// Middleware records request counts and durations. routeOf maps a request to
// a low-cardinality route label; when nil, NormalizePath is used.
func Middleware(routeOf func(*http.Request) string) func(http.Handler) http.Handler {
	if routeOf == nil {
		routeOf = func(r *http.Request) string { return NormalizePath(r.URL.Path) }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routeOf(r)
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// NormalizePath replaces identifier segments (UUIDs and numbers) with {id}.
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if looksLikeID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(s string) bool {
	if s == "" {
		return false
	}
	if len(s) == 36 && strings.Count(s, "-") == 4 {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and websocket upgrades reach the
// underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
