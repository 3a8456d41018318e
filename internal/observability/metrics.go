package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_matcher"

// Metrics holds the Prometheus collectors for scans, ESCO lookups, caches and HTTP.
// It satisfies the recorder interfaces of the esco, cache and pipeline packages.
type Metrics struct {
	registry *prometheus.Registry

	scansTotal      *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	scanScore       prometheus.Histogram
	searchesTotal   *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	termsValidated  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
// alongside the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total scans by outcome",
		}, []string{"outcome"}), // "ok" / "degraded" / "error"

		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "End-to-end scan duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		scanScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_total_score",
			Help:      "Distribution of final match scores",
			Buckets:   []float64{40, 55, 70, 85, 100},
		}),

		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "esco_searches_total",
			Help:      "Total ESCO search requests",
		}, []string{"type", "outcome"}),

		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "esco_search_duration_seconds",
			Help:      "ESCO search latency including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"type"}),

		termsValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terms_validated_total",
			Help:      "Terms checked against ESCO by outcome",
		}, []string{"outcome"}),

		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache, tier and result",
		}, []string{"cache", "tier", "result"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		httpRequestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.scansTotal, m.scanDuration, m.scanScore,
		m.searchesTotal, m.searchDuration, m.termsValidated,
		m.cacheLookups,
		m.httpRequests, m.httpRequestTime,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ScanCompleted records one finished scan. The score is only observed for successful scans.
func (m *Metrics) ScanCompleted(outcome string, elapsed time.Duration, totalScore int) {
	m.scansTotal.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(elapsed.Seconds())
	if outcome != "error" {
		m.scanScore.Observe(float64(totalScore))
	}
}

// SearchCompleted records one ESCO search.
func (m *Metrics) SearchCompleted(searchType, outcome string, elapsed time.Duration) {
	m.searchesTotal.WithLabelValues(searchType, outcome).Inc()
	m.searchDuration.WithLabelValues(searchType).Observe(elapsed.Seconds())
}

// TermValidated records the outcome of validating one term.
func (m *Metrics) TermValidated(outcome string) {
	m.termsValidated.WithLabelValues(outcome).Inc()
}

// CacheLookup records one cache lookup.
func (m *Metrics) CacheLookup(cache, tier, result string) {
	m.cacheLookups.WithLabelValues(cache, tier, result).Inc()
}

// Middleware records HTTP request duration and count.
func (m *Metrics) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			status := strconv.Itoa(ww.status)
			path := routePattern(r)

			m.httpRequestTime.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			m.httpRequests.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// routePattern uses the chi route pattern to keep label cardinality bounded.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unknown"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unknown"
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush supports streaming responses.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
