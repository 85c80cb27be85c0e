package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors the sync engine reports into.
type Metrics struct {
	Registry *prometheus.Registry

	SyncCycles    prometheus.Counter
	CycleDuration prometheus.Histogram
	FetchFailures *prometheus.CounterVec
	PriceMisses   prometheus.Counter
	TrackedAssets prometheus.Gauge
	TotalValueUSD prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		SyncCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cygnus_sync_cycles_total",
			Help: "Completed sync cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cygnus_sync_cycle_duration_seconds",
			Help:    "Wall time of one full sync cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cygnus_fetch_failures_total",
			Help: "Per-(address,chain) balance fetch failures, labeled by account platform.",
		}, []string{"platform"}),
		PriceMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cygnus_price_misses_total",
			Help: "Price resolutions that ended without a quote.",
		}),
		TrackedAssets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cygnus_tracked_assets",
			Help: "Asset rows in the last published snapshot.",
		}),
		TotalValueUSD: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cygnus_portfolio_value_usd",
			Help: "Total portfolio USD value from the last published snapshot.",
		}),
	}
	reg.MustRegister(m.SyncCycles, m.CycleDuration, m.FetchFailures, m.PriceMisses, m.TrackedAssets, m.TotalValueUSD)
	return m
}
