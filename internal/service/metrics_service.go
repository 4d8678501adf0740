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

	"github.com/noah-isme/academic-grading-api/internal/models"
)

const metricsNamespace = "grading"

// MetricsService owns a private Prometheus registry and mirrors the counters
// needed for the JSON summary. All methods are safe on a nil receiver.
type MetricsService struct {
	registry *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheLookup  prometheus.Histogram
	cacheWrite   prometheus.Histogram
	batchItems   *prometheus.CounterVec
	batchRun     *prometheus.HistogramVec

	requests    atomic.Uint64
	requestNs   atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	batchDone   atomic.Uint64
	batchFailed atomic.Uint64
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}
	factory := promauto.With(m.registry)

	m.httpDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result.",
	}, []string{"result"})
	m.cacheLookup = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookup_seconds",
		Help:      "Cache read latency.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	m.cacheWrite = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "write_seconds",
		Help:      "Cache write latency.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	m.batchItems = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "batch",
		Name:      "items_total",
		Help:      "Per-student batch outcomes.",
	}, []string{"operation", "status"})
	m.batchRun = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "batch",
		Name:      "run_seconds",
		Help:      "Wall time of a batch run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"operation"})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Hits over total lookups since start.",
	}, m.hitRatio)
	m.registry.MustRegister(collectors.NewGoCollector())

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
	m.requests.Add(1)
	m.requestNs.Add(uint64(elapsed.Nanoseconds()))
}

// RecordCacheOperation records one cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cacheLookup.Observe(elapsed.Seconds())
	if hit {
		m.cacheHits.Add(1)
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheMisses.Add(1)
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCacheWrite records one cache write.
func (m *MetricsService) ObserveCacheWrite(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(elapsed.Seconds())
}

// RecordBatchItem counts one student outcome of a batch run.
func (m *MetricsService) RecordBatchItem(operation string, done bool) {
	if m == nil {
		return
	}
	status := "done"
	if done {
		m.batchDone.Add(1)
	} else {
		status = "failed"
		m.batchFailed.Add(1)
	}
	m.batchItems.WithLabelValues(operation, status).Inc()
}

// ObserveBatch records the duration of a whole batch run.
func (m *MetricsService) ObserveBatch(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batchRun.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Snapshot returns the counters as JSON-friendly values.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	snap := models.MetricsSnapshot{Goroutines: runtime.NumGoroutine(), GeneratedAt: time.Now().UTC()}
	if m == nil {
		return snap
	}
	snap.Requests.Total = m.requests.Load()
	if snap.Requests.Total > 0 {
		snap.Requests.AvgDurationMs = float64(m.requestNs.Load()) / float64(snap.Requests.Total) / float64(time.Millisecond)
	}
	snap.Cache = models.CacheStats{Hits: m.cacheHits.Load(), Misses: m.cacheMisses.Load(), HitRatio: m.hitRatio()}
	snap.Batch = models.BatchStats{Done: m.batchDone.Load(), Failed: m.batchFailed.Load()}
	return snap
}

func (m *MetricsService) hitRatio() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
