package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry of the planner.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	plansGenerated  *prometheus.CounterVec
	plannedMinutes  *prometheus.HistogramVec
	weeklyDays      prometheus.Histogram
	recalcOutcomes  *prometheus.CounterVec
	engineRejects   *prometheus.CounterVec
	engineDuration  *prometheus.HistogramVec
	exportJobs      *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the HTTP, cache and planner collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	plansGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_plans_generated_total",
		Help: "Plans produced by the planner",
	}, []string{"kind", "minimum_met"})

	plannedMinutes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_planned_minutes",
		Help:    "Minutes planned per generated day",
		Buckets: []float64{0, 15, 30, 45, 60, 90, 120, 180, 240},
	}, []string{"kind"})

	weeklyDays := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_weekly_days_selected",
		Help:    "Days selected per weekly proposal",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
	})

	recalcOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_recalculations_total",
		Help: "Day recalculations by outcome",
	}, []string{"outcome"})

	engineRejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_engine_rejections_total",
		Help: "Planning requests rejected by engine preconditions",
	}, []string{"code"})

	engineDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_engine_duration_seconds",
		Help:    "Time spent in the scheduling engine",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	}, []string{"operation"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_export_jobs_total",
		Help: "Export jobs by format and final status",
	}, []string{"format", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		plansGenerated, plannedMinutes, weeklyDays, recalcOutcomes, engineRejects, engineDuration, exportJobs,
		goroutines,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		plansGenerated:  plansGenerated,
		plannedMinutes:  plannedMinutes,
		weeklyDays:      weeklyDays,
		recalcOutcomes:  recalcOutcomes,
		engineRejects:   engineRejects,
		engineDuration:  engineDuration,
		exportJobs:      exportJobs,
	}
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordPlan counts a generated plan of the given kind (daily or weekly).
func (m *MetricsService) RecordPlan(kind string, minutes int, minimumMet bool) {
	if m == nil {
		return
	}
	m.plansGenerated.WithLabelValues(kind, strconv.FormatBool(minimumMet)).Inc()
	m.plannedMinutes.WithLabelValues(kind).Observe(float64(minutes))
}

// ObserveWeeklyDays records how many days a weekly proposal selected.
func (m *MetricsService) ObserveWeeklyDays(days int) {
	if m == nil {
		return
	}
	m.weeklyDays.Observe(float64(days))
}

// RecordRecalculation counts a recalculation outcome.
func (m *MetricsService) RecordRecalculation(outcome string) {
	if m == nil {
		return
	}
	m.recalcOutcomes.WithLabelValues(outcome).Inc()
}

// RecordEngineRejection counts a precondition failure by error code.
func (m *MetricsService) RecordEngineRejection(code string) {
	if m == nil {
		return
	}
	m.engineRejects.WithLabelValues(code).Inc()
}

// ObserveEngine records the time spent in an engine operation.
func (m *MetricsService) ObserveEngine(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.engineDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordExport counts a finished export job.
func (m *MetricsService) RecordExport(format, status string) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(format, status).Inc()
}
