// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package metrics provides Prometheus instrumentation for the
// recommendation engine, history cache, upstream clients, and HTTP API.
// Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation Metrics
	GenerationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_total",
			Help: "Total number of recommendation generation runs",
		},
		[]string{"outcome"}, // "success", "no_history", "exhausted", "error"
	)

	GenerationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_attempts_per_run",
			Help:    "Number of generator attempts used per run",
			Buckets: []float64{1, 2, 3},
		},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "End-to-end duration of a generation run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	GenerationAccepted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_accepted_items",
			Help:    "Number of items accepted per generation run",
			Buckets: []float64{0, 5, 10, 15, 20},
		},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_candidates_filtered_total",
			Help: "Total number of candidates rejected during generation",
		},
		[]string{"reason"}, // "watched", "duplicate", "low_quality", "unresolved", "genre"
	)

	// Upstream Client Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests to upstream services",
		},
		[]string{"service", "operation", "outcome"}, // service: "trakt", "tmdb", "gemini"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service"},
	)

	// History Cache Metrics
	HistoryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_cache_hits_total",
			Help: "Total number of history cache hits",
		},
	)

	HistoryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_cache_misses_total",
			Help: "Total number of history cache misses (full fetch required)",
		},
	)

	HistoryEntriesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_entries_fetched_total",
			Help: "Total number of history entries fetched from Trakt",
		},
		[]string{"mode"}, // "full", "incremental"
	)

	HistoryFetchPages = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "history_fetch_pages",
			Help:    "Number of pages fetched per history refresh",
			Buckets: []float64{1, 2, 5, 10, 25, 50},
		},
		[]string{"mode"},
	)

	// List Reconciliation Metrics
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_runs_total",
			Help: "Total number of list reconciliation runs",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	ReconcileItemsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_items_added_total",
			Help: "Total number of items added to remote lists",
		},
	)

	ReconcileItemsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_items_removed_total",
			Help: "Total number of items removed from remote lists",
		},
	)

	// Nightly Updater Metrics
	UpdaterRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "updater_runs_total",
			Help: "Total number of nightly updater sweeps",
		},
	)

	UpdaterUsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updater_users_processed_total",
			Help: "Total number of user configs processed by the updater",
		},
		[]string{"outcome"}, // "updated", "fallback", "failed"
	)

	UpdaterLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "updater_last_success_timestamp",
			Help: "Unix timestamp of the last successful updater sweep",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordGenerationRun records the outcome and shape of one generation run.
func RecordGenerationRun(outcome string, attempts, accepted int, duration time.Duration) {
	GenerationRuns.WithLabelValues(outcome).Inc()
	GenerationAttempts.Observe(float64(attempts))
	GenerationAccepted.Observe(float64(accepted))
	GenerationDuration.Observe(duration.Seconds())
}

// RecordFiltered counts a rejected candidate by rejection reason.
func RecordFiltered(reason string) {
	CandidatesFiltered.WithLabelValues(reason).Inc()
}

// RecordUpstreamRequest records one call to an upstream service.
func RecordUpstreamRequest(service, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(service, operation, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordReconcile records one list reconciliation run.
func RecordReconcile(err error, added, removed int) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ReconcileRuns.WithLabelValues(outcome).Inc()
	ReconcileItemsAdded.Add(float64(added))
	ReconcileItemsRemoved.Add(float64(removed))
}

// RecordHistoryFetch records one paginated history refresh.
func RecordHistoryFetch(incremental bool, pages, entries int) {
	mode := "full"
	if incremental {
		mode = "incremental"
	}
	HistoryFetchPages.WithLabelValues(mode).Observe(float64(pages))
	HistoryEntriesFetched.WithLabelValues(mode).Add(float64(entries))
}
