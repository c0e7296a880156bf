package rate

import (
	"context"
	"testing"
	"time"

	"fxengine/internal/adapters/cache"
	"fxengine/internal/domain"
	"fxengine/internal/platform/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Testify mocks ---

type MockRateStore struct{ mock.Mock }

func (m *MockRateStore) FindExact(ctx context.Context, date time.Time, base, quote string) (domain.ExchangeRate, error) {
	args := m.Called(ctx, date, base, quote)
	r, _ := args.Get(0).(domain.ExchangeRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindLatestOnOrBefore(ctx context.Context, base, quote string, date time.Time) (domain.ExchangeRate, error) {
	args := m.Called(ctx, base, quote, date)
	r, _ := args.Get(0).(domain.ExchangeRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindLatestOverall(ctx context.Context, base, quote string) (domain.ExchangeRate, error) {
	args := m.Called(ctx, base, quote)
	r, _ := args.Get(0).(domain.ExchangeRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindLatestOnOrAfter(ctx context.Context, base, quote string, date time.Time) (domain.ExchangeRate, error) {
	args := m.Called(ctx, base, quote, date)
	r, _ := args.Get(0).(domain.ExchangeRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindRange(ctx context.Context, base, quote string, start, end time.Time) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx, base, quote, start, end)
	rates, _ := args.Get(0).([]domain.ExchangeRate)
	return rates, args.Error(1)
}

func (m *MockRateStore) Upsert(ctx context.Context, rate domain.ExchangeRate) (bool, error) {
	args := m.Called(ctx, rate)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateStore) UpsertBatch(ctx context.Context, rates []domain.ExchangeRate) (int, int, error) {
	args := m.Called(ctx, rates)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockRateStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *MockRateStore) MissingDates(ctx context.Context, base string, quotes []string, start, end time.Time) ([]time.Time, error) {
	args := m.Called(ctx, base, quotes, start, end)
	days, _ := args.Get(0).([]time.Time)
	return days, args.Error(1)
}

type MockRateProvider struct{ mock.Mock }

func (m *MockRateProvider) Name() string { return "Frankfurter" }

func (m *MockRateProvider) GetDailyQuotes(ctx context.Context, date time.Time, base string, quotes []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, date, base, quotes)
	rates, _ := args.Get(0).(map[string]decimal.Decimal)
	return rates, args.Error(1)
}

type MockRangeProvider struct{ MockRateProvider }

func (m *MockRangeProvider) GetRangeQuotes(ctx context.Context, start, end time.Time, base string, quotes []string) (map[time.Time]map[string]decimal.Decimal, error) {
	args := m.Called(ctx, start, end, base, quotes)
	byDay, _ := args.Get(0).(map[time.Time]map[string]decimal.Decimal)
	return byDay, args.Error(1)
}

type MockAuditSink struct{ mock.Mock }

func (m *MockAuditSink) Record(ctx context.Context, rec domain.AuditRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// --- fixtures ---

// today is the fake "now" of every test in this package.
var today = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

var testQuotes = []string{"HUF", "USD"}

func dayOffset(n int) time.Time { return today.AddDate(0, 0, n) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func eurRow(day time.Time, quote, mid string) domain.ExchangeRate {
	return domain.ExchangeRate{RateDate: day, Base: "EUR", Quote: quote, RateMid: dec(mid), Provider: "Frankfurter"}
}

func newFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(today.Add(10 * time.Hour))
}

func newTestMetrics() *metrics.FxMetrics {
	return metrics.NewFxMetrics(prometheus.NewRegistry())
}

func testSettings() Settings {
	return Settings{
		Base:                 "EUR",
		Quotes:               testQuotes,
		StalenessWarnDays:    5,
		DailyBackfillDays:    30,
		WideGapThresholdDays: 7,
		ForwardWarmDays:      3,
		StartupBackfillDays:  10,
		StartupMinRows:       1000,
		ChunkSizeDays:        4,
		WarmupWorkers:        2,
		LookupTimeout:        5 * time.Second,
	}
}

type engineFixture struct {
	store    *MockRateStore
	provider *MockRateProvider
	audit    *MockAuditSink
	clock    *clockwork.FakeClock
	mode     *Mode
	svc      *Service
}

func newEngineFixture(t *testing.T, dynamic bool) *engineFixture {
	t.Helper()
	memo, err := cache.NewLookupMemo(1024, time.Hour)
	require.NoError(t, err)
	t.Cleanup(memo.Close)

	f := &engineFixture{
		store:    new(MockRateStore),
		provider: new(MockRateProvider),
		audit:    new(MockAuditSink),
		clock:    newFakeClock(),
		mode:     NewMode(true, dynamic),
	}
	f.svc = NewService(testSettings(), f.mode, Deps{
		Store:    f.store,
		Provider: f.provider,
		Audit:    f.audit,
		Memo:     memo,
		Clock:    f.clock,
		Metrics:  newTestMetrics(),
	})
	return f
}

// loadSnapshot seeds the snapshot through LoadAll with the given series per quote.
func (f *engineFixture) loadSnapshot(t *testing.T, series map[string][]domain.ExchangeRate) {
	t.Helper()
	days := testSettings().StartupBackfillDays
	for _, q := range testQuotes {
		f.store.On("FindRange", mock.Anything, "EUR", q, dayOffset(-(days - 1)), today).Return(series[q], nil).Once()
	}
	require.NoError(t, f.svc.snapshot.LoadAll(context.Background(), days))
}
