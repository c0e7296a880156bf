package adapters

import (
	"context"
	"time"

	"fxengine/internal/domain"

	"github.com/shopspring/decimal"
)

// RateProvider returns quote -> mid-rate for one day. An empty map means the provider had no data;
// an unreachable provider is reported as domain.ErrProviderUnavailable.
type RateProvider interface {
	Name() string
	GetDailyQuotes(ctx context.Context, date time.Time, base string, quotes []string) (map[string]decimal.Decimal, error)
}

// RangeProvider is implemented by providers that can answer a whole date range in one call.
type RangeProvider interface {
	GetRangeQuotes(ctx context.Context, start, end time.Time, base string, quotes []string) (map[time.Time]map[string]decimal.Decimal, error)
}

type RateStore interface {
	FindExact(ctx context.Context, date time.Time, base, quote string) (domain.ExchangeRate, error)
	FindLatestOnOrBefore(ctx context.Context, base, quote string, date time.Time) (domain.ExchangeRate, error)
	FindLatestOverall(ctx context.Context, base, quote string) (domain.ExchangeRate, error)
	FindLatestOnOrAfter(ctx context.Context, base, quote string, date time.Time) (domain.ExchangeRate, error)
	FindRange(ctx context.Context, base, quote string, start, end time.Time) ([]domain.ExchangeRate, error)
	Upsert(ctx context.Context, rate domain.ExchangeRate) (inserted bool, err error)
	UpsertBatch(ctx context.Context, rates []domain.ExchangeRate) (inserted int, updated int, err error)
	Count(ctx context.Context) (int64, error)
	MissingDates(ctx context.Context, base string, quotes []string, start, end time.Time) ([]time.Time, error)
}

type AuditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

type LookupMemo interface {
	Get(key string) (domain.LookupResult, bool)
	Set(key string, result domain.LookupResult)
	Clear()
}
