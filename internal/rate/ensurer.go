package rate

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fxengine/internal/adapters"
	"fxengine/internal/domain"
	"fxengine/internal/platform/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Ensurer fetches days that the store is missing. It does nothing unless dynamic fetch is active.
type Ensurer struct {
	store    adapters.RateStore
	pipeline *IngestionPipeline
	mode     *Mode
	clock    clockwork.Clock
	metrics  *metrics.FxMetrics
	base     string
	quotes   []string
}

// EnsureFor fetches date when any quote lacks a row for it. It reports whether new rows were inserted.
func (e *Ensurer) EnsureFor(ctx context.Context, date time.Time) (bool, error) {
	if date.IsZero() || !e.mode.DynamicActive() {
		return false, nil
	}
	day := domain.DateOf(date)

	missing, err := e.store.MissingDates(ctx, e.base, e.quotes, day, day)
	if err != nil {
		return false, fmt.Errorf("failed to check rates for %s: %w", domain.FormatDate(day), err)
	}
	if len(missing) == 0 {
		return false, nil
	}

	summary, err := e.pipeline.FetchAndUpsert(ctx, day)
	if err != nil {
		return false, err
	}
	e.metrics.BackfilledDays.WithLabelValues("ensure").Inc()
	return summary.Inserted > 0, nil
}

// EnsureForRange fetches every missing day of [start, end], clamped to today. Per-day failures are
// logged and skipped; the number of days fetched is returned.
func (e *Ensurer) EnsureForRange(ctx context.Context, start, end time.Time) (int, error) {
	if start.IsZero() || end.IsZero() || !e.mode.DynamicActive() {
		return 0, nil
	}
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		start, end = end, start
	}
	if today := domain.DateOf(e.clock.Now()); end.After(today) {
		end = today
	}
	if end.Before(start) {
		return 0, nil
	}

	missing, err := e.store.MissingDates(ctx, e.base, e.quotes, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to detect missing rates: %w", err)
	}

	fetched := 0
	for _, day := range missing {
		if ctx.Err() != nil {
			return fetched, ctx.Err()
		}
		if _, err = e.pipeline.FetchAndUpsert(ctx, day); err != nil {
			logrus.WithError(err).WithField("date", domain.FormatDate(day)).Warn("Ensure rates failed for day")
			continue
		}
		fetched++
	}
	e.metrics.BackfilledDays.WithLabelValues("ensure").Add(float64(fetched))
	return fetched, nil
}

func NewEnsurer(store adapters.RateStore, pipeline *IngestionPipeline, mode *Mode, clock clockwork.Clock, m *metrics.FxMetrics, base string, quotes []string) *Ensurer {
	return &Ensurer{
		store:    store,
		pipeline: pipeline,
		mode:     mode,
		clock:    clock,
		metrics:  m,
		base:     base,
		quotes:   slices.Clone(quotes),
	}
}
