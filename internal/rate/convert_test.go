package rate

import (
	"context"
	"testing"
	"time"

	"fxengine/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRequestCache() (*RequestCache, *recordingLookuper) {
	l := &recordingLookuper{rates: map[string]string{"USD": "1.08", "HUF": "388"}}
	return NewRequestCache(l, "EUR"), l
}

func TestRequestCache_Convert(t *testing.T) {
	day := dayOffset(-1)
	cases := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{name: "from base", amount: "100", from: "EUR", to: "USD", want: "108"},
		{name: "to base", amount: "108", from: "USD", to: "EUR", want: "100"},
		{name: "cross", amount: "1.08", from: "USD", to: "HUF", want: "388"},
		{name: "rounds to eight digits", amount: "1", from: "HUF", to: "EUR", want: "0.00257732"},
		{name: "same currency", amount: "42.5", from: "HUF", to: "HUF", want: "42.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestRequestCache()
			got, err := c.Convert(context.Background(), dec(tc.amount), tc.from, tc.to, day)
			require.NoError(t, err)
			require.True(t, dec(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestRequestCache_ReusesLegsWithinRequest(t *testing.T) {
	c, l := newTestRequestCache()
	day := dayOffset(-1)

	for i := 0; i < 5; i++ {
		_, err := c.Convert(context.Background(), dec("10"), "USD", "HUF", day)
		require.NoError(t, err)
	}
	_, err := c.AmountInBase(context.Background(), dec("10"), "USD", day)
	require.NoError(t, err)
	require.Equal(t, 2, l.count())

	_, err = c.Convert(context.Background(), dec("10"), "EUR", "USD", dayOffset(-2))
	require.NoError(t, err)
	require.Equal(t, 3, l.count())
}

func TestRequestCache_SameCurrencySkipsLookup(t *testing.T) {
	c, l := newTestRequestCache()
	conv, err := c.ConvertWithDetails(context.Background(), dec("7"), "USD", "USD", time.Time{})
	require.NoError(t, err)
	require.True(t, dec("7").Equal(conv.Result))
	require.Zero(t, l.count())
}

func TestRequestCache_ZeroRateIsUnavailable(t *testing.T) {
	l := &recordingLookuper{rates: map[string]string{"USD": "0"}}
	c := NewRequestCache(l, "EUR")

	_, err := c.Convert(context.Background(), dec("1"), "USD", "EUR", today)
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestRequestCache_LookupErrorIsWrapped(t *testing.T) {
	l := &recordingLookuper{fail: func(string, time.Time) bool { return true }}
	c := NewRequestCache(l, "EUR")

	_, err := c.Convert(context.Background(), dec("1"), "EUR", "USD", today)
	require.ErrorContains(t, err, "failed to look up EUR/USD")
}

func TestService_ConvertWithDetailsKeepsLegWarnings(t *testing.T) {
	f := newEngineFixture(t, false)
	f.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.loadSnapshot(t, map[string][]domain.ExchangeRate{
		"HUF": {eurRow(dayOffset(-3), "HUF", "388")},
		"USD": {eurRow(dayOffset(-1), "USD", "1.08")},
	})

	conv, err := f.svc.ConvertWithDetails(context.Background(), dec("1.08"), "USD", "HUF", dayOffset(-1))
	require.NoError(t, err)
	require.True(t, dec("388").Equal(conv.Result))
	require.Len(t, conv.Warnings, 1)
	require.Equal(t, domain.WarningHistoricalGapFallback, conv.Warnings[0].Code)

	got, err := f.svc.Convert(context.Background(), dec("100"), "EUR", "USD", dayOffset(-1))
	require.NoError(t, err)
	require.True(t, dec("108").Equal(got))
}
