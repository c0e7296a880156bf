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

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// BackfillCoordinator closes gaps in the store: once at startup, daily in dynamic mode, and on demand.
type BackfillCoordinator struct {
	store    adapters.RateStore
	pipeline *IngestionPipeline
	snapshot *SnapshotCache
	mode     *Mode
	clock    clockwork.Clock
	metrics  *metrics.FxMetrics
	settings Settings
	quotes   []string

	lastRefresh atomic.Pointer[domain.RefreshOutcome]
}

// Startup loads the snapshot, first ingesting the startup window in chunks when the store looks behind.
func (b *BackfillCoordinator) Startup(ctx context.Context) error {
	if !b.mode.Enabled() {
		logrus.Info("FX subsystem disabled, skipping startup ingestion")
		return nil
	}
	days := b.settings.StartupBackfillDays
	today := b.today()
	yesterday := domain.AddDays(today, -1)

	// STEP 1: skip ingestion when the store already looks current
	count, err := b.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stored rates: %w", err)
	}
	mostRecent, err := b.mostRecentDate(ctx)
	if err != nil {
		return err
	}
	if count >= b.settings.StartupMinRows && !mostRecent.IsZero() && !mostRecent.Before(yesterday) {
		logrus.Infof("FX store looks current (%d rows, latest %s), loading snapshot only", count, domain.FormatDate(mostRecent))
		return b.loadSnapshot(ctx, days)
	}

	// STEP 2: find the days any quote is missing within the startup window
	start := domain.AddDays(today, -(days - 1))
	missing, err := b.store.MissingDates(ctx, b.settings.Base, b.quotes, start, yesterday)
	if err != nil {
		return fmt.Errorf("failed to detect missing rates: %w", err)
	}
	if len(missing) == 0 {
		return b.loadSnapshot(ctx, days)
	}
	logrus.Infof("FX startup ingestion: %d missing day(s) between %s and %s", len(missing), domain.FormatDate(start), domain.FormatDate(yesterday))

	// STEP 3: ingest chunk by chunk, only chunks that contain a gap. A failing chunk does not stop the others
	chunk := max(b.settings.ChunkSizeDays, 1)
	ingested := 0
	for cursor := start; !cursor.After(yesterday); cursor = domain.AddDays(cursor, chunk) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		windowEnd := domain.AddDays(cursor, chunk-1)
		if windowEnd.After(yesterday) {
			windowEnd = yesterday
		}
		if !containsDayIn(missing, cursor, windowEnd) {
			continue
		}
		summary, ingestErr := b.pipeline.FetchAndUpsertRange(ctx, cursor, windowEnd)
		ingested += summary.Days
		if ingestErr != nil {
			logrus.WithError(ingestErr).Warnf("FX startup chunk %s..%s failed", domain.FormatDate(cursor), domain.FormatDate(windowEnd))
			continue
		}
		logrus.Infof("FX startup chunk %s..%s: %d inserted, %d updated",
			domain.FormatDate(cursor), domain.FormatDate(windowEnd), summary.Inserted, summary.Updated)
	}
	b.metrics.BackfilledDays.WithLabelValues("startup").Add(float64(ingested))

	// STEP 4: publish the snapshot
	if err = b.loadSnapshot(ctx, days); err != nil {
		return err
	}
	logrus.Infof("FX startup ingestion finished, operating mode: %s", b.mode.Name())
	return nil
}

// DailyBackfill fetches missing days of the trailing daily window and escalates once to the wide window
// when too many days are missing. It returns the number of days fetched.
func (b *BackfillCoordinator) DailyBackfill(ctx context.Context) (int, error) {
	if !b.mode.DynamicActive() {
		return 0, nil
	}
	today := b.today()
	return b.backfill(ctx, domain.AddDays(today, -b.settings.DailyBackfillDays), domain.AddDays(today, -1), false)
}

func (b *BackfillCoordinator) backfill(ctx context.Context, start, end time.Time, wide bool) (int, error) {
	missing, err := b.store.MissingDates(ctx, b.settings.Base, b.quotes, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to detect missing rates: %w", err)
	}

	job := "daily_backfill"
	if wide {
		job = "wide_backfill"
	}
	fetched := b.fetchDays(ctx, missing, job)
	logrus.Infof("FX %s %s..%s: %d missing, %d fetched", job, domain.FormatDate(start), domain.FormatDate(end), len(missing), fetched)

	if !wide && len(missing) > b.settings.WideGapThresholdDays {
		today := b.today()
		wideFetched, wideErr := b.backfill(ctx, domain.AddDays(today, -b.settings.StartupBackfillDays), domain.AddDays(today, -1), true)
		return fetched + wideFetched, wideErr
	}
	return fetched, nil
}

// DailyIngest fetches today's quotes in dynamic mode.
func (b *BackfillCoordinator) DailyIngest(ctx context.Context) error {
	if !b.mode.DynamicActive() {
		return nil
	}
	summary, err := b.pipeline.FetchAndUpsert(ctx, b.today())
	if err != nil {
		return err
	}
	logrus.Infof("FX daily ingest %s: %d inserted, %d updated", domain.FormatDate(summary.Date), summary.Inserted, summary.Updated)
	return nil
}

// Refresh fetches the missing days of the trailing window, reloads the snapshot and records the outcome.
func (b *BackfillCoordinator) Refresh(ctx context.Context, days int) (int, error) {
	if !b.mode.Enabled() {
		return 0, domain.ErrFxDisabled
	}
	if days < 1 {
		days = b.settings.StartupBackfillDays
	}
	outcome := domain.RefreshOutcome{RunID: uuid.NewString(), At: b.clock.Now().UTC(), Days: days}

	ingested, err := b.refresh(ctx, days)
	outcome.Ingested = ingested
	if err != nil {
		outcome.Err = err.Error()
	}
	b.lastRefresh.Store(&outcome)
	return ingested, err
}

func (b *BackfillCoordinator) refresh(ctx context.Context, days int) (int, error) {
	today := b.today()
	missing, err := b.store.MissingDates(ctx, b.settings.Base, b.quotes, domain.AddDays(today, -(days-1)), domain.AddDays(today, -1))
	if err != nil {
		return 0, fmt.Errorf("failed to detect missing rates: %w", err)
	}
	fetched := b.fetchDays(ctx, missing, "refresh")
	// the snapshot never shrinks below the startup window
	if err = b.loadSnapshot(ctx, max(days, b.settings.StartupBackfillDays)); err != nil {
		return fetched, err
	}
	return fetched, nil
}

// LastRefresh returns the outcome of the latest Refresh, if any.
func (b *BackfillCoordinator) LastRefresh() (domain.RefreshOutcome, bool) {
	if o := b.lastRefresh.Load(); o != nil {
		return *o, true
	}
	return domain.RefreshOutcome{}, false
}

func (b *BackfillCoordinator) fetchDays(ctx context.Context, days []time.Time, job string) int {
	fetched := 0
	for _, day := range days {
		if ctx.Err() != nil {
			break
		}
		if _, err := b.pipeline.FetchAndUpsert(ctx, day); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"job": job, "date": domain.FormatDate(day)}).Warn("FX backfill day failed")
			continue
		}
		fetched++
	}
	b.metrics.BackfilledDays.WithLabelValues(job).Add(float64(fetched))
	return fetched
}

func (b *BackfillCoordinator) mostRecentDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for _, quote := range b.quotes {
		row, err := b.store.FindLatestOverall(ctx, b.settings.Base, quote)
		if errors.Is(err, domain.ErrRateNotFound) {
			continue
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to read latest %s/%s: %w", b.settings.Base, quote, err)
		}
		if row.RateDate.After(latest) {
			latest = domain.DateOf(row.RateDate)
		}
	}
	return latest, nil
}

func (b *BackfillCoordinator) loadSnapshot(ctx context.Context, days int) error {
	if err := b.snapshot.LoadAll(ctx, days); err != nil {
		return fmt.Errorf("failed to load fx snapshot: %w", err)
	}
	return nil
}

func (b *BackfillCoordinator) today() time.Time { return domain.DateOf(b.clock.Now()) }

func containsDayIn(days []time.Time, start, end time.Time) bool {
	return slices.ContainsFunc(days, func(d time.Time) bool { return !d.Before(start) && !d.After(end) })
}

func NewBackfillCoordinator(store adapters.RateStore, pipeline *IngestionPipeline, snapshot *SnapshotCache, mode *Mode, clock clockwork.Clock, m *metrics.FxMetrics, settings Settings) *BackfillCoordinator {
	return &BackfillCoordinator{
		store:    store,
		pipeline: pipeline,
		snapshot: snapshot,
		mode:     mode,
		clock:    clock,
		metrics:  m,
		settings: settings,
		quotes:   settings.QuoteCodes(),
	}
}
