package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edutask-api/internal/models"
)

const metricsNamespace = "edutask"

// MetricsService owns a private Prometheus registry for the process and keeps
// running totals for the JSON summary served to administrators.
type MetricsService struct {
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.HistogramVec
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	dbQueryDuration *prometheus.HistogramVec
	storeMutations  *prometheus.HistogramVec
	storeAttempts   prometheus.Histogram
	storeReads      prometheus.Histogram
	commands        *prometheus.CounterVec
	reportJobs      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	storeCommitCount     uint64
	storeConflictCount   uint64
}

// NewMetricsService registers the service collectors together with the Go
// runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)
	factory := promauto.With(registry)

	return &MetricsService{
		handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dashboard_cache",
			Name:      "lookup_duration_seconds",
			Help:      "Dashboard cache lookups by result.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"result"}),
		cacheWrite: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dashboard_cache",
			Name:      "write_duration_seconds",
			Help:      "Dashboard cache write latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		cacheHitRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "dashboard_cache",
			Name:      "hit_ratio",
			Help:      "Share of dashboard cache lookups served from redis.",
		}),
		dbQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Document repository query latency by statement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		storeMutations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "mutation_duration_seconds",
			Help:      "Document mutation latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		storeAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "mutation_attempts",
			Help:      "Compare-and-swap attempts needed per mutation.",
			Buckets:   []float64{1, 2, 3, 5, 8},
		}),
		storeReads: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "read_duration_seconds",
			Help:      "Document snapshot read latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands by name and outcome code.",
		}, []string{"command", "outcome"}),
		reportJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "report_jobs_total",
			Help:      "Report jobs by type and final status.",
		}, []string{"type", "status"}),
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	m.cacheLookups.WithLabelValues(result).Observe(duration.Seconds())
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveStoreMutation records how a document mutation ended and how many
// compare-and-swap attempts it took.
func (m *MetricsService) ObserveStoreMutation(outcome string, attempts int, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(outcome).Observe(duration.Seconds())
	m.storeAttempts.Observe(float64(attempts))
	switch outcome {
	case "committed":
		atomic.AddUint64(&m.storeCommitCount, 1)
	case "conflict":
		atomic.AddUint64(&m.storeConflictCount, 1)
	}
}

// ObserveStoreRead records snapshot read timing.
func (m *MetricsService) ObserveStoreRead(duration time.Duration) {
	if m == nil {
		return
	}
	m.storeReads.Observe(duration.Seconds())
}

// RecordCommand counts a domain command by outcome code ("ok" on success).
func (m *MetricsService) RecordCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// RecordReportJob counts a finished report job.
func (m *MetricsService) RecordReportJob(reportType string, status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(reportType, string(status)).Inc()
}

// Snapshot returns aggregated metrics suitable for the management endpoints.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreCommits:             atomic.LoadUint64(&m.storeCommitCount),
		StoreConflicts:           atomic.LoadUint64(&m.storeConflictCount),
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
