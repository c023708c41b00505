// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicrec_recommend_requests_total",
			Help: "Recommendation calls by classified sentiment",
		},
		[]string{"sentiment"},
	)

	RecommendFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicrec_recommend_fallbacks_total",
			Help: "Negative-sentiment calls answered from the blues/jazz/classical fallback",
		},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "musicrec_recommend_duration_seconds",
			Help:    "Duration of recommendation calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicrec_recommend_errors_total",
			Help: "Recommendation calls that failed",
		},
	)

	ReindexRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicrec_reindex_runs_total",
			Help: "Reindex runs by outcome",
		},
		[]string{"outcome"},
	)

	ReindexDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "musicrec_reindex_duration_seconds",
			Help:    "Duration of full reindex runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	IndexedTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musicrec_indexed_tracks",
			Help: "Tracks in the active collection",
		},
	)

	EmbeddingErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musicrec_embedding_errors_total",
			Help: "Failed embedding requests",
		},
	)

	EmbeddingBreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musicrec_embedding_breaker_open",
			Help: "1 while the embedding circuit breaker is open",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musicrec_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
