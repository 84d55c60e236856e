package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Analysis pipeline metrics
	AnalyzeRequests   *prometheus.CounterVec
	AnalyzeLatency    prometheus.Histogram
	AnalyzeDegraded   prometheus.Counter
	IngredientsParsed prometheus.Histogram

	// Retention metrics
	SweepDeletions *prometheus.CounterVec

	// Sync replay metrics
	SyncDelivered prometheus.Counter
	SyncDropped   prometheus.Counter
	SyncDeferred  prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		AnalyzeRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "labelsense_analyze_requests_total",
			Help: "Total number of analysis requests by product category",
		}, []string{"category"}),

		AnalyzeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "labelsense_analyze_duration_seconds",
			Help:    "End-to-end analysis latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		AnalyzeDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "labelsense_analyze_degraded_total",
			Help: "Analyses that completed with at least one fallback-sourced enrichment",
		}),

		IngredientsParsed: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "labelsense_ingredients_per_scan",
			Help:    "Number of ingredients extracted per scanned label",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		}),

		SweepDeletions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "labelsense_retention_deletions_total",
			Help: "Records deleted by retention sweeps per collection",
		}, []string{"collection"}),

		SyncDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "labelsense_sync_delivered_total",
			Help: "Sync queue items successfully replayed",
		}),

		SyncDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "labelsense_sync_dropped_total",
			Help: "Sync queue items dropped after exhausting their retry budget",
		}),

		SyncDeferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "labelsense_sync_deferred_total",
			Help: "Writes queued for later replay because the device was offline",
		}),
	}

	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}
