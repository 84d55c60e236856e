package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelsense_source_attempts_total",
		Help: "Enrichment attempts per capability source",
	}, []string{"source"})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelsense_source_failures_total",
		Help: "Failed or timed-out enrichment attempts per source",
	}, []string{"source"})

	rateLimitSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelsense_source_ratelimit_skips_total",
		Help: "Sources skipped because their rolling window was saturated",
	}, []string{"source"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelsense_enrichment_cache_hits_total",
		Help: "Enrichment requests served from the TTL cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelsense_enrichment_cache_misses_total",
		Help: "Enrichment requests that missed the TTL cache",
	})

	fallbackResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labelsense_enrichment_fallbacks_total",
		Help: "Requests resolved by local fallback synthesis per capability",
	}, []string{"capability"})
)
