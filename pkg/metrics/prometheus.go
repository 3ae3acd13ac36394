// Package metrics provides Prometheus metrics for the marquee catalogue service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh and submission outcome labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultShared  = "shared"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Catalogue
	refreshes          *prometheus.CounterVec
	refreshDuration    prometheus.Histogram
	catalogueFilms     prometheus.Gauge
	catalogueCompanies prometheus.Gauge
	generation         prometheus.Gauge

	// Listing cache
	listingCacheHits   prometheus.Counter
	listingCacheMisses prometheus.Counter
	listingCacheSize   prometheus.Gauge

	// Reviews
	reviewSubmissions *prometheus.CounterVec

	// Upstream
	upstreamRequestDuration *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global metrics on a fresh registry with opts
// applied. Call it once at startup, before metrics are recorded or
// GetRegistry is read.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "marquee",
		subsystem:        "catalogue",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.refreshes = m.counterVec("refreshes_total",
		"Catalogue refresh attempts by result", "result")
	m.refreshDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "refresh_duration_milliseconds",
		Help:        "Wall time of a catalogue refresh (slower of the two fetches)",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.catalogueFilms = m.gauge("films", "Number of films in the current generation")
	m.catalogueCompanies = m.gauge("companies", "Number of companies in the current generation")
	m.generation = m.gauge("generation", "Current catalogue generation")

	m.listingCacheHits = m.counter("listing_cache_hits_total", "Listing cache hits")
	m.listingCacheMisses = m.counter("listing_cache_misses_total", "Listing cache misses (listings computed)")
	m.listingCacheSize = m.gauge("listing_cache_entries", "Listings held in the cache")

	m.reviewSubmissions = m.counterVec("review_submissions_total",
		"Review submissions by result", "result")

	m.upstreamRequestDuration = m.histogramVec("upstream_request_duration_milliseconds",
		"Upstream request duration by endpoint and status", "endpoint", "status_code")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordRefresh counts a refresh attempt with the given result label.
func RecordRefresh(result string) {
	globalManager.refreshes.WithLabelValues(result).Inc()
}

// RecordRefreshDuration records how long a refresh took.
func RecordRefreshDuration(durationMs float64) {
	globalManager.refreshDuration.Observe(durationMs)
}

// UpdateCatalogueSize sets the film and company gauges.
func UpdateCatalogueSize(films, companies int) {
	globalManager.catalogueFilms.Set(float64(films))
	globalManager.catalogueCompanies.Set(float64(companies))
}

// UpdateGeneration sets the current generation gauge.
func UpdateGeneration(generation uint64) {
	globalManager.generation.Set(float64(generation))
}

// RecordListingCacheHit increments the listing cache hit counter.
func RecordListingCacheHit() {
	globalManager.listingCacheHits.Inc()
}

// RecordListingCacheMiss increments the listing cache miss counter.
func RecordListingCacheMiss() {
	globalManager.listingCacheMisses.Inc()
}

// UpdateListingCacheSize sets the listing cache size gauge.
func UpdateListingCacheSize(size int) {
	globalManager.listingCacheSize.Set(float64(size))
}

// RecordReviewSubmission counts a review submission by result.
func RecordReviewSubmission(result string) {
	globalManager.reviewSubmissions.WithLabelValues(result).Inc()
}

// RecordUpstreamRequest records an upstream call. statusCode is "error"
// when the request never produced a response.
func RecordUpstreamRequest(endpoint, statusCode string, durationMs float64) {
	globalManager.upstreamRequestDuration.WithLabelValues(endpoint, statusCode).Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry backing the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
