package rate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"fxengine/internal/adapters"
	"fxengine/internal/domain"
	"fxengine/internal/platform/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IngestionPipeline pulls quotes from the provider and upserts them into the store.
type IngestionPipeline struct {
	provider       adapters.RateProvider
	store          adapters.RateStore
	clock          clockwork.Clock
	metrics        *metrics.FxMetrics
	base           string
	quotes         []string
	staleAfterDays int

	inserted atomic.Int64
	updated  atomic.Int64
	failures atomic.Int64
}

// FetchAndUpsert ingests every configured quote for one day. A provider error fails the whole call
// before anything is written.
func (p *IngestionPipeline) FetchAndUpsert(ctx context.Context, date time.Time) (domain.IngestionSummary, error) {
	day := domain.DateOf(date)

	rates, err := p.provider.GetDailyQuotes(ctx, day, p.base, p.quotes)
	if err != nil {
		p.recordFailure()
		return domain.IngestionSummary{}, fmt.Errorf("failed to fetch quotes for %s: %w", domain.FormatDate(day), err)
	}

	summary, err := p.upsertDay(ctx, day, rates)
	if err != nil {
		p.recordFailure()
		return domain.IngestionSummary{}, err
	}
	summary.StaleQuotes = p.checkStaleness(ctx)
	return summary, nil
}

// FetchAndUpsertRange ingests [start, end] day by day and returns at the first failing day.
// Providers that answer whole ranges are asked once first; days they skip (weekends, holidays)
// carry the previous published day, the same answer the single-day endpoint gives.
func (p *IngestionPipeline) FetchAndUpsertRange(ctx context.Context, start, end time.Time) (domain.IngestionRangeSummary, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	total := domain.IngestionRangeSummary{Start: start, End: end}
	if end.Before(start) {
		return total, nil
	}

	if rp, ok := p.provider.(adapters.RangeProvider); ok {
		byDay, err := rp.GetRangeQuotes(ctx, start, end, p.base, p.quotes)
		switch {
		case err != nil:
			logrus.WithError(err).WithFields(logrus.Fields{"start": domain.FormatDate(start), "end": domain.FormatDate(end)}).
				Warn("Range quotes unavailable, falling back to per-day ingestion")
		case len(byDay) > 0:
			return p.upsertRange(ctx, total, byDay)
		}
	}

	for day := start; !day.After(end); day = domain.AddDays(day, 1) {
		summary, err := p.FetchAndUpsert(ctx, day)
		if err != nil {
			total.FailedDays++
			return total, err
		}
		total.Add(summary)
		total.StaleQuotes = summary.StaleQuotes
	}
	return total, nil
}

func (p *IngestionPipeline) upsertRange(ctx context.Context, total domain.IngestionRangeSummary, byDay map[time.Time]map[string]decimal.Decimal) (domain.IngestionRangeSummary, error) {
	var carried map[string]decimal.Decimal
	for day := total.Start; !day.After(total.End); day = domain.AddDays(day, 1) {
		rates, ok := byDay[day]
		if !ok {
			if carried == nil {
				continue
			}
			rates = carried
		}
		carried = rates

		summary, err := p.upsertDay(ctx, day, rates)
		if err != nil {
			p.recordFailure()
			total.FailedDays++
			return total, err
		}
		total.Add(summary)
	}
	total.StaleQuotes = p.checkStaleness(ctx)
	return total, nil
}

func (p *IngestionPipeline) upsertDay(ctx context.Context, day time.Time, rates map[string]decimal.Decimal) (domain.IngestionSummary, error) {
	summary := domain.IngestionSummary{Date: day, Base: p.base, RequestedQuotes: len(p.quotes)}

	fetchedAt := p.clock.Now().UTC()
	batch := make([]domain.ExchangeRate, 0, len(p.quotes))
	for _, quote := range p.quotes {
		mid, ok := rates[quote]
		if !ok {
			continue // provider had nothing for this quote
		}
		batch = append(batch, domain.ExchangeRate{
			RateDate:  day,
			Base:      p.base,
			Quote:     quote,
			RateMid:   mid.Round(domain.RateScale),
			Provider:  p.provider.Name(),
			FetchedAt: fetchedAt,
		})
	}
	if len(batch) == 0 {
		logrus.WithField("date", domain.FormatDate(day)).Debug("Provider returned no usable quotes")
		return summary, nil
	}

	inserted, updated, err := p.store.UpsertBatch(ctx, batch)
	if err != nil {
		return domain.IngestionSummary{}, fmt.Errorf("failed to upsert rates for %s: %w", domain.FormatDate(day), err)
	}
	summary.Inserted, summary.Updated = inserted, updated

	p.inserted.Add(int64(inserted))
	p.updated.Add(int64(updated))
	p.metrics.IngestedRows.WithLabelValues("inserted").Add(float64(inserted))
	p.metrics.IngestedRows.WithLabelValues("updated").Add(float64(updated))

	logrus.WithFields(logrus.Fields{
		"date": domain.FormatDate(day), "inserted": inserted, "updated": updated,
	}).Debug("FX rates ingested")
	return summary, nil
}

// checkStaleness returns the quotes whose newest stored day lags today by more than the threshold.
func (p *IngestionPipeline) checkStaleness(ctx context.Context) []string {
	today := domain.DateOf(p.clock.Now())
	var stale []string
	for _, quote := range p.quotes {
		latest, err := p.store.FindLatestOverall(ctx, p.base, quote)
		if err != nil {
			if errors.Is(err, domain.ErrRateNotFound) {
				logrus.Warnf("No stored FX rate for %s/%s", p.base, quote)
				stale = append(stale, quote)
			} else {
				logrus.WithError(err).Debugf("Staleness check skipped for %s/%s", p.base, quote)
			}
			continue
		}

		age := domain.DaysBetween(latest.RateDate, today)
		p.metrics.LatestRateAgeDays.WithLabelValues(quote).Set(float64(age))
		if age > p.staleAfterDays {
			logrus.Warnf("FX rate for %s/%s is stale: latest %s is %d days old (threshold %d)",
				p.base, quote, domain.FormatDate(latest.RateDate), age, p.staleAfterDays)
			stale = append(stale, quote)
		}
	}
	return stale
}

func (p *IngestionPipeline) recordFailure() {
	p.failures.Add(1)
	p.metrics.IngestFailures.Inc()
}

// Stats returns the cumulative counters since construction.
func (p *IngestionPipeline) Stats() domain.IngestionStats {
	return domain.IngestionStats{
		Inserted: p.inserted.Load(),
		Updated:  p.updated.Load(),
		Failures: p.failures.Load(),
	}
}

func NewIngestionPipeline(provider adapters.RateProvider, store adapters.RateStore, clock clockwork.Clock, m *metrics.FxMetrics, base string, quotes []string, staleAfterDays int) *IngestionPipeline {
	return &IngestionPipeline{
		provider:       provider,
		store:          store,
		clock:          clock,
		metrics:        m,
		base:           base,
		quotes:         slices.Clone(quotes),
		staleAfterDays: staleAfterDays,
	}
}
