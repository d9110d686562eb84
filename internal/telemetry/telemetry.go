// Package telemetry registers the Prometheus collectors exported on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts incident-table cache lookups by result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimedash_cache_lookups_total",
			Help: "Incident table cache lookups by result",
		},
		[]string{"result"},
	)

	// DatasetLoads counts source file loads by status (ok|error).
	DatasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimedash_dataset_loads_total",
			Help: "Incident source file loads by status",
		},
		[]string{"status"},
	)

	DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crimedash_dataset_load_duration_seconds",
			Help:    "Time spent reading and normalizing the incident source file",
			Buckets: prometheus.DefBuckets,
		},
	)

	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crimedash_dataset_records",
			Help: "Incidents in the currently cached table",
		},
	)

	DatasetSkipped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crimedash_dataset_skipped_rows",
			Help: "Source rows excluded for an unparseable timestamp in the last load",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimedash_http_requests_total",
			Help: "API requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crimedash_http_request_duration_seconds",
			Help:    "API request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
