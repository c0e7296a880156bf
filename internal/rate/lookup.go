package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fxengine/internal/adapters"
	"fxengine/internal/domain"
	"fxengine/internal/platform/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// LookupService resolves (base, quote, date) to a rate with warnings. Results are memoized and
// concurrent identical lookups share one resolution.
type LookupService struct {
	store          adapters.RateStore
	snapshot       *SnapshotCache
	ensurer        *Ensurer
	memo           adapters.LookupMemo
	audit          adapters.AuditSink
	mode           *Mode
	clock          clockwork.Clock
	metrics        *metrics.FxMetrics
	base           string
	staleAfterDays int
	timeout        time.Duration

	flights singleflight.Group
	// memoMu orders memo writes against ClearCache; generation counts clears.
	memoMu     sync.RWMutex
	generation uint64
}

// Lookup returns the rate for requested; a zero requested date means today.
// ctx only bounds how long this caller waits: the shared resolution keeps running for other waiters.
func (s *LookupService) Lookup(ctx context.Context, base, quote string, requested time.Time) (domain.LookupResult, error) {
	if !requested.IsZero() {
		requested = domain.DateOf(requested)
	}
	if base == quote {
		return s.identity(base, requested), nil
	}
	if base != s.base {
		return domain.LookupResult{}, fmt.Errorf("%w: %s/%s (base must be %s)", domain.ErrUnsupportedPair, base, quote, s.base)
	}

	key := memoKey(base, quote, requested)
	if res, ok := s.memo.Get(key); ok {
		s.metrics.Lookups.WithLabelValues("memo", "ok").Inc()
		return res, nil
	}

	ch := s.flights.DoChan(key, func() (any, error) {
		// a flight that finished just before this one may already have published the result
		if res, ok := s.memo.Get(key); ok {
			return res, nil
		}

		gen := s.memoGeneration()
		resolveCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			resolveCtx, cancel = context.WithTimeout(resolveCtx, s.timeout)
			defer cancel()
		}

		res, err := s.resolve(resolveCtx, base, quote, requested)
		if err != nil {
			return nil, err
		}
		s.publish(gen, key, res)
		s.recordAudit(resolveCtx, requested, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.LookupResult{}, fmt.Errorf("lookup %s/%s canceled: %w", base, quote, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return domain.LookupResult{}, r.Err
		}
		return r.Val.(domain.LookupResult), nil
	}
}

// ClearCache drops every memoized result. Resolutions already in flight do not repopulate the memo.
func (s *LookupService) ClearCache() {
	s.memoMu.Lock()
	s.generation++
	s.memo.Clear()
	s.memoMu.Unlock()
	logrus.Info("FX lookup memo cleared")
}

func (s *LookupService) memoGeneration() uint64 {
	s.memoMu.RLock()
	defer s.memoMu.RUnlock()
	return s.generation
}

// publish memoizes res unless the memo was cleared after the resolution started.
func (s *LookupService) publish(gen uint64, key string, res domain.LookupResult) {
	s.memoMu.RLock()
	defer s.memoMu.RUnlock()
	if gen != s.generation {
		return
	}
	s.memo.Set(key, res)
}

func (s *LookupService) resolve(ctx context.Context, base, quote string, requested time.Time) (domain.LookupResult, error) {
	today := domain.DateOf(s.clock.Now())

	rateDate := today
	provisional := false
	var warnings []domain.Warning
	switch {
	case requested.IsZero():
	case requested.After(today):
		provisional = true
		warnings = append(warnings, domain.FutureDateWarning(requested), domain.ProvisionalWarning())
	default:
		rateDate = requested
	}

	var (
		row    resolvedRate
		source string
		err    error
	)
	if s.mode.Dynamic() {
		source = "store"
		row, warnings, err = s.resolveFromStore(ctx, base, quote, rateDate, warnings)
	} else {
		source = "snapshot"
		row, warnings, err = s.resolveFromSnapshot(quote, rateDate, today, warnings)
	}
	if err != nil {
		s.metrics.Lookups.WithLabelValues(source, "error").Inc()
		return domain.LookupResult{}, err
	}
	s.metrics.Lookups.WithLabelValues(source, "ok").Inc()

	if lag := domain.DaysBetween(row.date, rateDate); s.staleAfterDays > 0 && lag > s.staleAfterDays {
		warnings = append(warnings, domain.StaleRateWarning(row.date, lag))
	}

	return domain.LookupResult{
		RateDateUsed: row.date,
		Base:         base,
		Quote:        quote,
		Rate:         row.rate,
		Provisional:  provisional,
		Source:       row.source,
		Warnings:     warnings,
	}, nil
}

type resolvedRate struct {
	date   time.Time
	rate   decimal.Decimal
	source string
}

// resolveFromSnapshot serves today from the newest loaded point without a gap warning: nothing
// ingests today's rate in cache-only mode. Staleness still applies.
func (s *LookupService) resolveFromSnapshot(quote string, rateDate, today time.Time, warnings []domain.Warning) (resolvedRate, []domain.Warning, error) {
	p, err := s.snapshot.Resolve(rateDate, quote)
	if err != nil {
		return resolvedRate{}, warnings, err
	}
	switch {
	case p.Date.Before(rateDate) && rateDate.Equal(today) && s.isNewestPoint(quote, p.Date):
	case p.Date.Before(rateDate):
		warnings = append(warnings, domain.GapFallbackWarning(rateDate, p.Date))
	case p.Date.After(rateDate):
		warnings = append(warnings, domain.GapTodayFallbackWarning(rateDate, p.Date))
	}
	return resolvedRate{date: p.Date, rate: p.Rate, source: SourceSnapshot}, warnings, nil
}

func (s *LookupService) isNewestPoint(quote string, day time.Time) bool {
	latest, ok := s.snapshot.LatestDate(quote)
	return ok && latest.Equal(day)
}

// resolveFromStore makes a best-effort attempt to fetch rateDate, then reads the exact day,
// the latest earlier day, or the latest day overall.
func (s *LookupService) resolveFromStore(ctx context.Context, base, quote string, rateDate time.Time, warnings []domain.Warning) (resolvedRate, []domain.Warning, error) {
	fetched, err := s.ensurer.EnsureFor(ctx, rateDate)
	switch {
	case err != nil:
		logrus.WithError(err).WithFields(logrus.Fields{"quote": quote, "date": domain.FormatDate(rateDate)}).
			Warn("Ensuring FX rate failed, falling back to stored rates")
		warnings = append(warnings, domain.ExternalServiceFailureWarning())
	case fetched:
		warnings = append(warnings, domain.MissingRateFetchedWarning(rateDate))
	}

	row, err := s.store.FindExact(ctx, rateDate, base, quote)
	if err == nil {
		return fromRow(row), warnings, nil
	}
	if !errors.Is(err, domain.ErrRateNotFound) {
		return resolvedRate{}, warnings, err
	}

	row, err = s.store.FindLatestOnOrBefore(ctx, base, quote, rateDate)
	if err == nil {
		if !row.RateDate.Equal(rateDate) {
			warnings = append(warnings, domain.GapFallbackWarning(rateDate, row.RateDate))
		}
		return fromRow(row), warnings, nil
	}
	if !errors.Is(err, domain.ErrRateNotFound) {
		return resolvedRate{}, warnings, err
	}

	row, err = s.store.FindLatestOverall(ctx, base, quote)
	if err == nil {
		warnings = append(warnings, domain.GapTodayFallbackWarning(rateDate, row.RateDate))
		return fromRow(row), warnings, nil
	}
	if errors.Is(err, domain.ErrRateNotFound) {
		return resolvedRate{}, warnings, fmt.Errorf("%w: %s/%s for %s", domain.ErrRateUnavailable, base, quote, domain.FormatDate(rateDate))
	}
	return resolvedRate{}, warnings, err
}

func fromRow(row domain.ExchangeRate) resolvedRate {
	return resolvedRate{date: domain.DateOf(row.RateDate), rate: row.RateMid, source: row.Provider}
}

func (s *LookupService) identity(currency string, requested time.Time) domain.LookupResult {
	today := domain.DateOf(s.clock.Now())
	day := today
	if !requested.IsZero() && !requested.After(today) {
		day = requested
	}
	return domain.LookupResult{
		RateDateUsed: day,
		Base:         currency,
		Quote:        currency,
		Rate:         decimal.NewFromInt(1),
		Source:       SourceIdentity,
	}
}

// recordAudit never fails the lookup.
func (s *LookupService) recordAudit(ctx context.Context, requested time.Time, res domain.LookupResult) {
	rec := domain.AuditRecord{
		Base:         res.Base,
		Quote:        res.Quote,
		ResolvedDate: res.RateDateUsed,
		Rate:         res.Rate,
		Provisional:  res.Provisional,
		Warnings:     domain.JoinCodes(res.Warnings),
		CreatedAt:    s.clock.Now().UTC(),
	}
	if !requested.IsZero() {
		rec.RequestedDate = &requested
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"base": res.Base, "quote": res.Quote}).Warn("FX lookup audit failed")
	}
}

func memoKey(base, quote string, requested time.Time) string {
	if requested.IsZero() {
		return base + ":" + quote + ":-"
	}
	return base + ":" + quote + ":" + domain.FormatDate(requested)
}

func NewLookupService(store adapters.RateStore, snapshot *SnapshotCache, ensurer *Ensurer, memo adapters.LookupMemo, audit adapters.AuditSink, mode *Mode, clock clockwork.Clock, m *metrics.FxMetrics, settings Settings) *LookupService {
	return &LookupService{
		store:          store,
		snapshot:       snapshot,
		ensurer:        ensurer,
		memo:           memo,
		audit:          audit,
		mode:           mode,
		clock:          clock,
		metrics:        m,
		base:           settings.Base,
		staleAfterDays: settings.StalenessWarnDays,
		timeout:        settings.LookupTimeout,
	}
}
