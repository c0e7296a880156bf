package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fxengine/internal/domain"

	"github.com/stretchr/testify/require"
)

type recordingLookuper struct {
	mu    sync.Mutex
	calls []string
	fail  func(quote string, date time.Time) bool
	rates map[string]string
}

func (l *recordingLookuper) Lookup(_ context.Context, base, quote string, date time.Time) (domain.LookupResult, error) {
	l.mu.Lock()
	l.calls = append(l.calls, quote+"@"+domain.FormatDate(date))
	l.mu.Unlock()
	if l.fail != nil && l.fail(quote, date) {
		return domain.LookupResult{}, errors.New("lookup failed")
	}
	rate := "1"
	if r, ok := l.rates[quote]; ok {
		rate = r
	}
	return domain.LookupResult{RateDateUsed: date, Base: base, Quote: quote, Rate: dec(rate)}, nil
}

func (l *recordingLookuper) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func TestForwardWarmer_WarmsNextDaysForEveryQuote(t *testing.T) {
	l := &recordingLookuper{}
	w := NewForwardWarmer(l, NewMode(true, true), newFakeClock(), testSettings())

	require.Equal(t, 6, w.Run(context.Background()))
	require.ElementsMatch(t, []string{
		"HUF@2024-05-16", "HUF@2024-05-17", "HUF@2024-05-18",
		"USD@2024-05-16", "USD@2024-05-17", "USD@2024-05-18",
	}, l.calls)
}

func TestForwardWarmer_FailuresAreSkipped(t *testing.T) {
	l := &recordingLookuper{fail: func(quote string, _ time.Time) bool { return quote == "USD" }}
	w := NewForwardWarmer(l, NewMode(true, true), newFakeClock(), testSettings())

	require.Equal(t, 3, w.Run(context.Background()))
	require.Equal(t, 6, l.count())
}

func TestForwardWarmer_CacheOnlyIsNoop(t *testing.T) {
	l := &recordingLookuper{}
	w := NewForwardWarmer(l, NewMode(true, false), newFakeClock(), testSettings())

	require.Zero(t, w.Run(context.Background()))
	require.Zero(t, l.count())
}

func TestForwardWarmer_CanceledContextStopsWorkers(t *testing.T) {
	l := &recordingLookuper{}
	w := NewForwardWarmer(l, NewMode(true, true), newFakeClock(), testSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.LessOrEqual(t, w.Run(ctx), 6)
}

func TestNewForwardWarmer_DefaultsWorkers(t *testing.T) {
	settings := testSettings()
	settings.WarmupWorkers = 0
	w := NewForwardWarmer(&recordingLookuper{}, NewMode(true, true), newFakeClock(), settings)
	require.Equal(t, defaultWarmupWorkers, w.workers)
	require.Equal(t, []string{"HUF", "USD"}, w.quotes)
}
