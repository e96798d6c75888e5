// Package metrics holds the prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "f1cmp"

//nolint:gochecknoglobals // prometheus collectors
var (
	SessionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_hits_total",
		Help:      "Number of session cache hits.",
	})
	SessionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_misses_total",
		Help:      "Number of session cache misses (upstream loads).",
	})
	SessionCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_evictions_total",
		Help:      "Number of session cache FIFO evictions.",
	})
	ResultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_hits_total",
		Help:      "Number of computed result cache hits.",
	})
	ResultCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_misses_total",
		Help:      "Number of computed result cache misses.",
	})
	ResultCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_evictions_total",
		Help:      "Number of computed result cache LRU/TTL evictions.",
	})
	ResultCacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "result_cache_bytes",
		Help:      "Total bytes stored in the computed result cache.",
	})
	AggregateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregate_driver_failures_total",
		Help:      "Number of per-driver aggregations that yielded no data.",
	})
	ComparisonDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "comparison_duration_seconds",
		Help:      "Duration of the full comparison pipeline.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
