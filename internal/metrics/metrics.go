package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviews_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Moderation metrics
var (
	CommentsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_comments_submitted_total",
		Help: "Comments accepted, by initial status",
	}, []string{"status"})

	CommentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_comments_rejected_total",
		Help: "Comment submissions refused before insert, by reason",
	}, []string{"reason"})

	CommentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_comment_transitions_total",
		Help: "Comment status transitions",
	}, []string{"to"})

	CommentReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_comment_reports_total",
		Help: "Distinct comment reports recorded",
	})
)

// Rate limit metrics
var (
	RateLimitDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_ratelimit_decisions_total",
		Help: "Rate limiter decisions by action and outcome (allowed, blocked, fail_open)",
	}, []string{"action", "outcome"})
)

// Translation metrics
var (
	TranslationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_translation_decisions_total",
		Help: "Translation engine decisions per review write",
	}, []string{"decision"})

	TranslationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_translation_runs_total",
		Help: "Completed background translation runs by strategy and result",
	}, []string{"strategy", "result"})

	TranslationRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviews_translation_run_duration_seconds",
		Help:    "Background translation run duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"strategy"})

	TranslationCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_translation_calls_total",
		Help: "Text translation calls by outcome (translated, cached, fallback, skipped)",
	}, []string{"outcome"})
)

// Cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_translation_cache_hits_total",
		Help: "Translation cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_translation_cache_misses_total",
		Help: "Translation cache misses",
	})

	CacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_translation_cache_errors_total",
		Help: "Translation cache errors by operation",
	}, []string{"op"})
)

// Worker pool metrics
var (
	BackgroundTasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reviews_background_tasks_in_flight",
		Help: "Background tasks submitted and not yet finished",
	})

	BackgroundTaskPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_background_task_panics_total",
		Help: "Background tasks that panicked and were recovered",
	})
)
