// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ScanTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_scan_ticks_total",
			Help: "Total number of alert scanner ticks by result.",
		},
		[]string{"result"},
	)

	AlertsRaisedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_raised_total",
			Help: "Total number of device alert flags raised by the scanner.",
		},
	)

	DosesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "doses_generated_total",
			Help: "Total number of dose instances materialized by schedule create/update.",
		},
	)
)

// Scan tick result label values.
const (
	ScanResultOK      = "ok"
	ScanResultError   = "error"
	ScanResultSkipped = "skipped"
)

// MustRegister registers all collectors with the default registry.
func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		ScanTicksTotal,
		AlertsRaisedTotal,
		DosesGeneratedTotal,
	)
}
