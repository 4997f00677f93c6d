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

	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_ranking_requests_total",
			Help: "Ranking requests by strategy",
		},
		[]string{"strategy"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_candidates_scored_total",
			Help: "Candidates scored by scorer",
		},
		[]string{"scorer"},
	)

	FeedPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_feed_pages_total",
			Help: "Feed pages generated by context and cache status",
		},
		[]string{"context", "cache"},
	)

	SignalsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_signals_recorded_total",
			Help: "Feed and safety signals recorded by kind",
		},
		[]string{"kind"},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_predictions_total",
			Help: "Predictor calls by predictor and outcome",
		},
		[]string{"predictor", "outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration by route, method and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
