// Package metrics exposes Prometheus instruments for the I/O boundary.
// The analysis core stays unmeasured; only providers and pipeline runs
// report here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderRequests counts upstream data fetches by provider and outcome.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgecast",
		Name:      "provider_requests_total",
		Help:      "Upstream data provider requests by provider and status.",
	}, []string{"provider", "status"})

	// ProviderLatency tracks upstream fetch latency.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edgecast",
		Name:      "provider_request_duration_seconds",
		Help:      "Upstream data provider request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	// PredictionsEmitted counts compressor outputs, split by whether the
	// suppression gate let them through.
	PredictionsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgecast",
		Name:      "predictions_total",
		Help:      "Predictions produced, by suppression outcome.",
	}, []string{"outcome"})

	// BacktestRuns counts completed replays.
	BacktestRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edgecast",
		Name:      "backtest_runs_total",
		Help:      "Completed backtest replays.",
	})

	// DepthUpdates counts order book snapshots received over the stream.
	DepthUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edgecast",
		Name:      "depth_updates_total",
		Help:      "Order book snapshots received from the depth stream.",
	})
)

// Statuses for the ProviderRequests counter.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
