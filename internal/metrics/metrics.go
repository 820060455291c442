// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by route template, method and status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration tracks handler latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"route", "method"})

	// VoteTogglesTotal counts vote button presses by target, direction and outcome
	VoteTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_vote_toggles_total",
		Help: "Vote toggles by target type, direction and outcome (added, retracted, switched)",
	}, []string{"target", "direction", "outcome"})

	// RepliesCreatedTotal counts created replies by depth
	RepliesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_replies_created_total",
		Help: "Replies created by nesting depth",
	}, []string{"depth"})

	// ReplyCacheLookups counts reply list cache lookups by result (hit, miss, error)
	ReplyCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_reply_cache_lookups_total",
		Help: "Reply list cache lookups by result",
	}, []string{"result"})

	// VoteScoresRepaired counts vote_score columns fixed by reconciliation
	VoteScoresRepaired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_vote_scores_repaired_total",
		Help: "vote_score values rewritten by the reconciliation job",
	}, []string{"target"})

	// WebsocketSubscribers is the number of live reply event subscribers
	WebsocketSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forum_ws_subscribers",
		Help: "Connected reply event subscribers",
	})
)
