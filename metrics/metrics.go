// Package metrics exposes the gateway's Prometheus instrumentation:
// per-query and per-indexer-attempt counters and histograms, keyed by
// deployment, API key, and indexer as the execution loop and selection
// engine observe them. No series carries a network label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every series the gateway emits. It is safe for concurrent
// use: every field is a prometheus.Collector, which is itself
// concurrency-safe.
type Metrics struct {
	QueriesTotal       *prometheus.CounterVec
	QueryErrorsTotal   *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
	IndexerAttempts    *prometheus.CounterVec
	IndexerFee         *prometheus.HistogramVec
	IndexerUtility     *prometheus.HistogramVec
	IndexerBlocksBehind *prometheus.HistogramVec
	IndexerLatency     *prometheus.HistogramVec
	ScoringSample      *prometheus.HistogramVec
	SelectionErrors    *prometheus.CounterVec
	CollateralTopUps   *prometheus.CounterVec
	SnapshotIndexers   prometheus.Gauge
}

// New registers and returns the gateway's metric set against reg. Callers
// typically pass a fresh prometheus.Registry so that metrics_port serves
// only this process's series, not the default global registry's.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "queries_total",
			Help:      "Total client queries executed, by deployment and api_key.",
		}, []string{"deployment", "api_key"}),

		QueryErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "query_errors_total",
			Help:      "Client queries that terminated in an error, by deployment and error kind.",
		}, []string{"deployment", "kind"}),

		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "query_duration_seconds",
			Help:      "Wall-clock time to serve a client query end to end.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"deployment"}),

		IndexerAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "indexer_attempts_total",
			Help:      "Per-indexer query attempts, by indexer, deployment and outcome status.",
		}, []string{"indexer", "deployment", "status"}),

		IndexerFee: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "indexer_fee_grt",
			Help:      "Fee charged by a selected indexer, in GRT.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"indexer", "deployment"}),

		IndexerUtility: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "indexer_utility",
			Help:      "Combined utility score of a selected indexer.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"indexer", "deployment"}),

		IndexerBlocksBehind: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "indexer_blocks_behind",
			Help:      "Blocks behind chain head reported by a selected indexer at dispatch time.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
		}, []string{"indexer", "deployment"}),

		IndexerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "indexer_response_time_ms",
			Help:      "Indexer response latency in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 12),
		}, []string{"indexer", "deployment"}),

		ScoringSample: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "scoring_axis",
			Help:      "Per-axis utility scores sampled during selection.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"axis"}),

		SelectionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "selection_errors_total",
			Help:      "Indexers disqualified during selection, by deployment and disqualifier.",
		}, []string{"deployment", "error"}),

		CollateralTopUps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "collateral_topups_total",
			Help:      "Collateral top-up attempts, by indexer and outcome.",
		}, []string{"indexer", "outcome"}),

		SnapshotIndexers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Name:      "snapshot_indexers",
			Help:      "Indexer count in the most recently published gateway state snapshot.",
		}),
	}
}
