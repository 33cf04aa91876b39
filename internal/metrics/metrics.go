package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delhiair_provider_api_calls_total",
			Help: "Total air pollution provider API calls",
		},
		[]string{"district", "status"},
	)

	ProviderAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delhiair_provider_api_latency_seconds",
			Help:    "Provider API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"district"},
	)

	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delhiair_records_ingested_total",
			Help: "Total AQI records successfully ingested",
		},
		[]string{"district"},
	)

	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delhiair_ingest_runs_total",
			Help: "Total ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	AlertsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delhiair_alerts_sent_total",
			Help: "Total alert notifications handed to the notifier",
		},
		[]string{"method"},
	)

	AlertErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delhiair_alert_errors_total",
			Help: "Total alert delivery failures",
		},
	)
)
