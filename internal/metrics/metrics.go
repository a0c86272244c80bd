package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astro_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	batchItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_batch_items_total",
			Help: "Items processed by batch documents, by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	batchTruncationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astro_batch_truncations_total",
			Help: "Batch documents cut short because the output capacity ran low.",
		},
		[]string{"kind"},
	)

	oracleCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astro_oracle_call_duration_seconds",
			Help:    "Duration of individual ephemeris engine calls.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"call"},
	)

	documentBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astro_document_bytes",
			Help:    "Size of produced documents in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"kind"},
	)

	inflightBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astro_http_inflight_output_bytes",
			Help: "Output capacity currently held by in-flight requests.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(batchItemsTotal)
	prometheus.MustRegister(batchTruncationsTotal)
	prometheus.MustRegister(oracleCallDurationSeconds)
	prometheus.MustRegister(documentBytes)
	prometheus.MustRegister(inflightBytes)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AddBatchItems records the per-item outcome counts of one batch document.
func AddBatchItems(kind string, calculated, errored int) {
	if calculated > 0 {
		batchItemsTotal.WithLabelValues(kind, "calculated").Add(float64(calculated))
	}
	if errored > 0 {
		batchItemsTotal.WithLabelValues(kind, "error").Add(float64(errored))
	}
}

// IncBatchTruncations counts a batch document that stopped early.
func IncBatchTruncations(kind string) {
	batchTruncationsTotal.WithLabelValues(kind).Inc()
}

// ObserveOracleCall records the duration of one engine call.
func ObserveOracleCall(call string, d time.Duration) {
	oracleCallDurationSeconds.WithLabelValues(call).Observe(d.Seconds())
}

// ObserveDocumentBytes records the size of a finished document.
func ObserveDocumentBytes(kind string, n int) {
	documentBytes.WithLabelValues(kind).Observe(float64(n))
}

// AddInflightBytes adjusts the in-flight output capacity gauge.
func AddInflightBytes(n int64) {
	inflightBytes.Add(float64(n))
}

// knownRoutes are the exact paths served; anything else is labelled "other".
var knownRoutes = map[string]bool{
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/v1/test":       true,
	"/api/v1/chart":      true,
	"/api/v1/planets":    true,
	"/api/v1/houses":     true,
	"/api/v1/nodes":      true,
	"/api/v1/asteroids":  true,
	"/api/v1/julian-day": true,
	"/api/v1/dms":        true,
	"/api/v1/ephemeris":  true,
}

// normalizeRoute maps a request path to a bounded set of label values.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	for _, prefix := range []string{"/api/v1/planets/", "/api/v1/nodes/"} {
		if rest, ok := strings.CutPrefix(path, prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return prefix + "{id}"
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
