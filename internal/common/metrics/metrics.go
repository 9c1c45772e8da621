// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// source is "remote" or "fallback".
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_classifications_total",
			Help: "Project classifications by result source",
		},
		[]string{"source"},
	)

	ClassifierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_classifier_fallbacks_total",
			Help: "Remote classifier failures that triggered the offline fallback",
		},
		[]string{"reason"},
	)

	FilterResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_filter_result_size",
			Help:    "Number of providers matching a filter request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	MatchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_match_score",
			Help:    "Compatibility scores assigned by the ranker",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	StaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_stale_responses_total",
			Help: "Responses dropped because a newer request superseded them",
		},
		[]string{"task_type"},
	)

	ProviderCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_provider_cache_lookups_total",
			Help: "Provider snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_notifications_sent_total",
			Help: "Provider notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)
