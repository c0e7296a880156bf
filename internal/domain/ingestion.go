package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type IngestionSummary struct {
	Date            time.Time
	Base            string
	RequestedQuotes int
	Inserted        int
	Updated         int
	StaleQuotes     []string
}

type IngestionRangeSummary struct {
	Start       time.Time
	End         time.Time
	Days        int
	FailedDays  int
	Inserted    int
	Updated     int
	StaleQuotes []string
}

func (s *IngestionRangeSummary) Add(day IngestionSummary) {
	s.Days++
	s.Inserted += day.Inserted
	s.Updated += day.Updated
}

// IngestionStats is a point-in-time copy of the cumulative ingestion counters.
type IngestionStats struct {
	Inserted int64
	Updated  int64
	Failures int64
}

type QuoteVolatility struct {
	Quote      string
	Mean       *decimal.Decimal
	StdDev     *decimal.Decimal
	Min        *decimal.Decimal
	Max        *decimal.Decimal
	SampleSize int
	Partial    bool
}

type QuoteHealth struct {
	Quote      string
	LatestDate *time.Time
}

type RefreshOutcome struct {
	RunID    string
	At       time.Time
	Days     int
	Ingested int
	Err      string
}

// TransactionsSaved is published by the transaction writer after a commit.
type TransactionsSaved struct {
	MinDate time.Time
	MaxDate time.Time
}

// EffectiveSettings is the read-only view of the engine configuration in force.
type EffectiveSettings struct {
	Base                 string
	Quotes               []string
	Provider             string
	Enabled              bool
	DynamicFetch         bool
	StalenessWarnDays    int
	DailyBackfillDays    int
	WideGapThresholdDays int
	ForwardWarmDays      int
	StartupBackfillDays  int
	ChunkSizeDays        int
	IngestCron           string
	BackfillCron         string
	WarmupCron           string
}
