package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FxMetrics holds the engine's collectors, registered on the registry passed to NewFxMetrics.
type FxMetrics struct {
	// Rows written by ingestion, kind = inserted|updated
	IngestedRows *prometheus.CounterVec
	// Failed provider calls or failed upserts
	IngestFailures prometheus.Counter
	// Age in days of the newest stored rate per quote
	LatestRateAgeDays *prometheus.GaugeVec

	// Lookups by source (memo|snapshot|store) and outcome (ok|error)
	Lookups *prometheus.CounterVec
	// Days fetched by background jobs, job = startup|daily_backfill|wide_backfill|refresh|ensure
	BackfilledDays *prometheus.CounterVec
}

func NewFxMetrics(reg prometheus.Registerer) *FxMetrics {
	factory := promauto.With(reg)
	return &FxMetrics{
		IngestedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fx",
				Name:      "ingested_rows_total",
				Help:      "Rate rows written by ingestion",
			},
			[]string{"kind"},
		),
		IngestFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fx",
				Name:      "ingest_failures_total",
				Help:      "Ingestion calls that failed",
			},
		),
		LatestRateAgeDays: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fx",
				Name:      "latest_rate_age_days",
				Help:      "Days between today and the newest stored rate",
			},
			[]string{"quote"},
		),
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fx",
				Name:      "lookups_total",
				Help:      "Rate lookups by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		BackfilledDays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fx",
				Name:      "backfilled_days_total",
				Help:      "Days ingested by background jobs",
			},
			[]string{"job"},
		),
	}
}
