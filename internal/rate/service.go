package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxengine/internal/adapters"
	"fxengine/internal/domain"
	"fxengine/internal/platform/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Deps are the leaf collaborators the engine is built from.
type Deps struct {
	Store    adapters.RateStore
	Provider adapters.RateProvider
	Audit    adapters.AuditSink
	Memo     adapters.LookupMemo
	Clock    clockwork.Clock
	Metrics  *metrics.FxMetrics
}

// Service is the engine API used by the rest of the application.
type Service struct {
	settings Settings
	mode     *Mode
	store    adapters.RateStore
	clock    clockwork.Clock
	provider string

	snapshot *SnapshotCache
	pipeline *IngestionPipeline
	ensurer  *Ensurer
	lookup   *LookupService
	backfill *BackfillCoordinator
	warmer   *ForwardWarmer
}

func (s *Service) Lookup(ctx context.Context, base, quote string, date time.Time) (domain.LookupResult, error) {
	return s.lookup.Lookup(ctx, base, quote, date)
}

// Convert converts amount between two currencies on date through the canonical base.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	return s.NewRequestCache().Convert(ctx, amount, from, to, date)
}

func (s *Service) ConvertWithDetails(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (domain.Conversion, error) {
	return s.NewRequestCache().ConvertWithDetails(ctx, amount, from, to, date)
}

// NewRequestCache returns a conversion context to pass through one request's conversions.
func (s *Service) NewRequestCache() *RequestCache {
	return NewRequestCache(s.lookup, s.settings.Base)
}

func (s *Service) EnsureFor(ctx context.Context, date time.Time) error {
	_, err := s.ensurer.EnsureFor(ctx, date)
	return err
}

func (s *Service) EnsureForRange(ctx context.Context, start, end time.Time) (int, error) {
	return s.ensurer.EnsureForRange(ctx, start, end)
}

func (s *Service) Refresh(ctx context.Context, days int) (int, error) {
	return s.backfill.Refresh(ctx, days)
}

// Backfill ingests [from, to] unconditionally, one day at a time.
func (s *Service) Backfill(ctx context.Context, from, to time.Time) (domain.IngestionRangeSummary, error) {
	if !s.mode.Enabled() {
		return domain.IngestionRangeSummary{}, domain.ErrFxDisabled
	}
	return s.pipeline.FetchAndUpsertRange(ctx, from, to)
}

// Startup runs the startup ingestion and loads the snapshot.
func (s *Service) Startup(ctx context.Context) error { return s.backfill.Startup(ctx) }

// Health returns the newest stored day per quote.
func (s *Service) Health(ctx context.Context) ([]domain.QuoteHealth, error) {
	quotes := s.settings.QuoteCodes()
	out := make([]domain.QuoteHealth, 0, len(quotes))
	for _, quote := range quotes {
		h := domain.QuoteHealth{Quote: quote}
		row, err := s.store.FindLatestOverall(ctx, s.settings.Base, quote)
		switch {
		case err == nil:
			latest := domain.DateOf(row.RateDate)
			h.LatestDate = &latest
		case !errors.Is(err, domain.ErrRateNotFound):
			return nil, fmt.Errorf("failed to read latest %s/%s: %w", s.settings.Base, quote, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Service) Mode() *Mode { return s.mode }

// SetDynamicFetch switches the operating mode and drops memoized answers of the previous mode.
func (s *Service) SetDynamicFetch(on bool) {
	s.mode.SetDynamic(on)
	s.lookup.ClearCache()
	logrus.Infof("FX operating mode set to %s", s.mode.Name())
}

func (s *Service) ToggleDynamicFetch() bool {
	on := s.mode.ToggleDynamic()
	s.lookup.ClearCache()
	logrus.Infof("FX operating mode toggled to %s", s.mode.Name())
	return on
}

func (s *Service) LastRefresh() (domain.RefreshOutcome, bool) { return s.backfill.LastRefresh() }

func (s *Service) ClearCache() { s.lookup.ClearCache() }

func (s *Service) IngestionStats() domain.IngestionStats { return s.pipeline.Stats() }

func (s *Service) SupportedCurrencies() []string {
	return append([]string{s.settings.Base}, s.settings.QuoteCodes()...)
}

// EffectiveSettings reports the configuration in force, with the current mode flags.
func (s *Service) EffectiveSettings() domain.EffectiveSettings {
	schedule := withDefaultCrons(s.settings.Schedule)
	return domain.EffectiveSettings{
		Base:                 s.settings.Base,
		Quotes:               s.settings.QuoteCodes(),
		Provider:             s.provider,
		Enabled:              s.mode.Enabled(),
		DynamicFetch:         s.mode.Dynamic(),
		StalenessWarnDays:    s.settings.StalenessWarnDays,
		DailyBackfillDays:    s.settings.DailyBackfillDays,
		WideGapThresholdDays: s.settings.WideGapThresholdDays,
		ForwardWarmDays:      s.settings.ForwardWarmDays,
		StartupBackfillDays:  s.settings.StartupBackfillDays,
		ChunkSizeDays:        s.settings.ChunkSizeDays,
		IngestCron:           schedule.IngestCron,
		BackfillCron:         schedule.BackfillCron,
		WarmupCron:           schedule.WarmupCron,
	}
}

// Jobs exposes the background routines for the scheduler.
func (s *Service) Jobs() (*BackfillCoordinator, *ForwardWarmer) { return s.backfill, s.warmer }

func NewService(settings Settings, mode *Mode, deps Deps) *Service {
	quotes := settings.QuoteCodes()
	snapshot := NewSnapshotCache(deps.Store, deps.Clock, settings.Base, quotes)
	pipeline := NewIngestionPipeline(deps.Provider, deps.Store, deps.Clock, deps.Metrics, settings.Base, quotes, settings.StalenessWarnDays)
	ensurer := NewEnsurer(deps.Store, pipeline, mode, deps.Clock, deps.Metrics, settings.Base, quotes)
	lookup := NewLookupService(deps.Store, snapshot, ensurer, deps.Memo, deps.Audit, mode, deps.Clock, deps.Metrics, settings)

	return &Service{
		settings: settings,
		mode:     mode,
		store:    deps.Store,
		clock:    deps.Clock,
		provider: deps.Provider.Name(),
		snapshot: snapshot,
		pipeline: pipeline,
		ensurer:  ensurer,
		lookup:   lookup,
		backfill: NewBackfillCoordinator(deps.Store, pipeline, snapshot, mode, deps.Clock, deps.Metrics, settings),
		warmer:   NewForwardWarmer(lookup, mode, deps.Clock, settings),
	}
}
