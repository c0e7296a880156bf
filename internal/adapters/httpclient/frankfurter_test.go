package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fxengine/internal/domain"

	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestFrankfurterClient_GetDailyQuotes_Success(t *testing.T) {
	var gotPath, gotFrom, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"amount": 1.0, "base": "EUR", "date": "2024-01-02",
			"rates": {"USD": 1.0956, "HUF": 378.5, "GBP": 0.86, "JPY": "n/a"}
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL+"/", "Frankfurter", 3, time.Millisecond)

	rates, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD", "HUF", "JPY"})
	require.NoError(t, err)
	require.Equal(t, "/2024-01-02", gotPath)
	require.Equal(t, "EUR", gotFrom)
	require.Equal(t, "USD,HUF,JPY", gotTo)
	require.Len(t, rates, 2) // GBP not requested, JPY not numeric
	require.Equal(t, "1.0956", rates["USD"].String())
	require.Equal(t, "378.5", rates["HUF"].String())
}

func TestFrankfurterClient_QuotedNumbersAreIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base": "EUR", "date": "2024-01-02", "rates": {"HUF": "389.5", "USD": 1.08}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 1, time.Millisecond)

	rates, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"HUF", "USD"})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, "1.08", rates["USD"].String())
	require.NotContains(t, rates, "HUF")
}

func TestPickRates(t *testing.T) {
	raw := map[string]json.RawMessage{
		"HUF": json.RawMessage(`389.5`),
		"USD": json.RawMessage(` "1.08"`),
		"GBP": json.RawMessage(`-1`),
		"JPY": json.RawMessage(`null`),
		"CHF": json.RawMessage(`0.97`),
	}

	rates := pickRates(raw, []string{"HUF", "USD", "GBP", "JPY", "CHF", "PLN"})

	require.Len(t, rates, 2)
	require.Equal(t, "389.5", rates["HUF"].String())
	require.Equal(t, "0.97", rates["CHF"].String())
}

func TestFrankfurterClient_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-01-02","rates":{"USD":1.1}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)

	rates, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, "1.1", rates["USD"].String())
}

func TestFrankfurterClient_ExhaustedRetriesIsUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)

	rates, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.Nil(t, rates)
	require.Equal(t, int32(3), calls.Load())
	require.Contains(t, err.Error(), "unexpected status code 502")
}

func TestFrankfurterClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)

	_, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.Equal(t, int32(1), calls.Load())
}

func TestFrankfurterClient_NotFoundMeansNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)

	rates, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.NoError(t, err)
	require.Empty(t, rates)
}

func TestFrankfurterClient_EmptyRatesIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-01-02","rates":{}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)

	rates, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.NoError(t, err)
	require.Empty(t, rates)
}

func TestFrankfurterClient_JSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)

	_, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode response")
}

func TestFrankfurterClient_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 3, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetDailyQuotes(ctx, day, "EUR", []string{"USD"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestFrankfurterClient_GetRangeQuotes(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{
			"base": "EUR", "start_date": "2024-01-02", "end_date": "2024-01-04",
			"rates": {
				"2024-01-02": {"USD": 1.0956, "HUF": 378.5},
				"2024-01-03": {"USD": 1.0919},
				"bogus": {"USD": 1.0}
			}
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewFrankfurterClient(srv.Client(), srv.URL, "Frankfurter", 1, time.Millisecond)

	byDay, err := c.GetRangeQuotes(context.Background(), day, day.AddDate(0, 0, 2), "EUR", []string{"USD", "HUF"})
	require.NoError(t, err)
	require.Equal(t, "/2024-01-02..2024-01-04", gotPath)
	require.Len(t, byDay, 2)
	require.Len(t, byDay[day], 2)
	require.Equal(t, "1.0919", byDay[day.AddDate(0, 0, 1)]["USD"].String())
}

func TestFrankfurterClient_BaseURLParseError(t *testing.T) {
	c := NewFrankfurterClient(&http.Client{}, "http://::1]", "Frankfurter", 1, 0)
	_, err := c.GetDailyQuotes(context.Background(), day, "EUR", []string{"USD"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse base URL")
}
