// Package metrics holds the Prometheus instruments for chart building,
// fetching, alerting and live push.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for StockLens.
type Metrics struct {
	ChartsTotal      *prometheus.CounterVec // labels: result=ok|no_data|error
	ChartBuildDur    prometheus.Histogram
	FetchErrorsTotal *prometheus.CounterVec // labels: source
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	AlertsTotal      *prometheus.CounterVec // labels: zone
	SnapshotsTotal   prometheus.Counter
	WSClients        prometheus.Gauge
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_charts_total",
			Help: "Charts built, by result",
		}, []string{"result"}),
		ChartBuildDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stocklens_chart_build_duration_seconds",
			Help:    "Time to fetch history and compute all indicators for one chart",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_fetch_errors_total",
			Help: "Price history fetches that failed after retries, by source",
		}, []string{"source"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_history_cache_hits_total",
			Help: "Price history requests served from cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_history_cache_misses_total",
			Help: "Price history requests that went to the provider",
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_alerts_total",
			Help: "RSI zone transition alerts sent, by zone",
		}, []string{"zone"}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_snapshots_total",
			Help: "Indicator snapshots recorded by the refresh task",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stocklens_ws_clients",
			Help: "Connected WebSocket clients",
		}),
	}

	reg.MustRegister(
		m.ChartsTotal,
		m.ChartBuildDur,
		m.FetchErrorsTotal,
		m.CacheHits,
		m.CacheMisses,
		m.AlertsTotal,
		m.SnapshotsTotal,
		m.WSClients,
	)
	return m
}

// NewUnregistered creates metrics on a throwaway registry, for tests and CLI runs.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
