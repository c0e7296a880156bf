package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxengine/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_Health(t *testing.T) {
	f := newEngineFixture(t, false)
	f.store.On("FindLatestOverall", mock.Anything, "EUR", "HUF").Return(eurRow(dayOffset(-1), "HUF", "388"), nil)
	f.store.On("FindLatestOverall", mock.Anything, "EUR", "USD").Return(domain.ExchangeRate{}, domain.ErrRateNotFound)

	health, err := f.svc.Health(context.Background())
	require.NoError(t, err)
	require.Len(t, health, 2)
	require.Equal(t, "HUF", health[0].Quote)
	require.Equal(t, dayOffset(-1), *health[0].LatestDate)
	require.Equal(t, "USD", health[1].Quote)
	require.Nil(t, health[1].LatestDate)
}

func TestService_HealthStoreError(t *testing.T) {
	f := newEngineFixture(t, false)
	f.store.On("FindLatestOverall", mock.Anything, "EUR", "HUF").Return(domain.ExchangeRate{}, errors.New("db down"))

	_, err := f.svc.Health(context.Background())
	require.Error(t, err)
}

func TestService_ToggleDynamicFetchDropsMemo(t *testing.T) {
	f := newEngineFixture(t, false)
	f.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.loadSnapshot(t, map[string][]domain.ExchangeRate{
		"USD": {eurRow(dayOffset(-1), "USD", "1.08")},
	})

	res, err := f.svc.Lookup(context.Background(), "EUR", "USD", dayOffset(-1))
	require.NoError(t, err)
	require.Equal(t, SourceSnapshot, res.Source)

	require.True(t, f.svc.ToggleDynamicFetch())
	require.Equal(t, "dynamic-fetch", f.svc.Mode().Name())

	f.store.On("MissingDates", mock.Anything, "EUR", testQuotes, dayOffset(-1), dayOffset(-1)).Return([]time.Time{}, nil)
	f.store.On("FindExact", mock.Anything, dayOffset(-1), "EUR", "USD").Return(eurRow(dayOffset(-1), "USD", "1.0811"), nil)

	res, err = f.svc.Lookup(context.Background(), "EUR", "USD", dayOffset(-1))
	require.NoError(t, err)
	require.Equal(t, "Frankfurter", res.Source)
	require.True(t, dec("1.0811").Equal(res.Rate))

	f.svc.SetDynamicFetch(false)
	require.Equal(t, "cache-only", f.svc.Mode().Name())
}

func TestService_BackfillDisabled(t *testing.T) {
	f := newEngineFixture(t, true)
	f.mode.enabled.Store(false)

	_, err := f.svc.Backfill(context.Background(), dayOffset(-3), dayOffset(-1))
	require.ErrorIs(t, err, domain.ErrFxDisabled)
	require.NoError(t, f.svc.EnsureFor(context.Background(), dayOffset(-1)))
}

func TestService_SupportedCurrencies(t *testing.T) {
	f := newEngineFixture(t, false)
	require.Equal(t, []string{"EUR", "HUF", "USD"}, f.svc.SupportedCurrencies())
}

func TestService_EffectiveSettings(t *testing.T) {
	f := newEngineFixture(t, false)

	got := f.svc.EffectiveSettings()
	require.Equal(t, "EUR", got.Base)
	require.Equal(t, []string{"HUF", "USD"}, got.Quotes)
	require.Equal(t, "Frankfurter", got.Provider)
	require.True(t, got.Enabled)
	require.False(t, got.DynamicFetch)
	require.Equal(t, 10, got.StartupBackfillDays)
	require.Equal(t, defaultIngestCron, got.IngestCron)
	require.Equal(t, defaultBackfillCron, got.BackfillCron)
	require.Equal(t, defaultWarmupCron, got.WarmupCron)

	f.svc.SetDynamicFetch(true)
	require.True(t, f.svc.EffectiveSettings().DynamicFetch)
}

func TestSettings_QuoteCodesDropsBaseAndDuplicates(t *testing.T) {
	s := Settings{Base: "EUR", Quotes: []string{"USD", "EUR", "HUF", "USD"}}
	require.Equal(t, []string{"USD", "HUF"}, s.QuoteCodes())
}

func TestMode_Toggle(t *testing.T) {
	m := NewMode(true, false)
	require.False(t, m.DynamicActive())
	require.True(t, m.ToggleDynamic())
	require.True(t, m.DynamicActive())
	require.False(t, m.ToggleDynamic())

	m = NewMode(false, true)
	require.False(t, m.DynamicActive())
}
