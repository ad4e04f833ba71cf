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
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sga",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sga",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sga",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	auditScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sga",
			Subsystem: "auditorias",
			Name:      "scans_total",
			Help:      "Total number of audit scans recorded, by result.",
		},
		[]string{"resultado"},
	)

	labelsRendered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sga",
			Subsystem: "etiquetas",
			Name:      "rendered_total",
			Help:      "Total number of QR labels rendered.",
		},
	)

	fleetBookValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sga",
			Subsystem: "activos",
			Name:      "valor_libros_total",
			Help:      "Current straight-line book value of the non-retired fleet.",
		},
	)

	fleetAssets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sga",
			Subsystem: "activos",
			Name:      "total",
			Help:      "Current number of assets by status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		auditScans,
		labelsRendered,
		fleetBookValue,
		fleetAssets,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAuditScan counts one recorded scan by its result.
func RecordAuditScan(result string) {
	if result == "" {
		result = "unknown"
	}
	auditScans.WithLabelValues(result).Inc()
}

// RecordLabelsRendered counts rendered QR labels.
func RecordLabelsRendered(n int) {
	if n > 0 {
		labelsRendered.Add(float64(n))
	}
}

// SetFleetBookValue publishes the current fleet valuation.
func SetFleetBookValue(total float64) {
	fleetBookValue.Set(total)
}

// SetFleetCount publishes the asset count for one status.
func SetFleetCount(status string, count int) {
	fleetAssets.WithLabelValues(status).Set(float64(count))
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource ids so the path label stays bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/api"
	}
	if len(parts) == 2 {
		return "/api/" + parts[1]
	}
	return "/api/" + parts[1] + "/:id"
}
