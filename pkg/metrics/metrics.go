package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanRuns counts classification scans by trigger (scheduled|manual) and result (success|failure).
	ScanRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wna_scan_runs_total",
			Help: "Total number of alert classification scans",
		},
		[]string{"trigger", "result"},
	)

	// AlertsCreated counts alerts raised by the classifier, labelled by alert type.
	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wna_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"type"},
	)

	// OpenAlerts tracks alerts that have not yet been resolved.
	OpenAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wna_open_alerts",
			Help: "Number of unresolved alerts",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wna_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
