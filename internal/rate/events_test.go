package rate

import (
	"context"
	"testing"
	"time"

	"fxengine/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleTransactionsSaved_EnsuresHistoricalDays(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.On("MissingDates", mock.Anything, "EUR", testQuotes, dayOffset(-3), dayOffset(-1)).Return([]time.Time{dayOffset(-2)}, nil)
	f.provider.On("GetDailyQuotes", mock.Anything, dayOffset(-2), "EUR", testQuotes).Return(fullQuotes(), nil)
	f.store.On("UpsertBatch", mock.Anything, batchFor(dayOffset(-2), "HUF", "USD")).Return(2, 0, nil)
	f.store.latestAt(dayOffset(-2))

	err := f.svc.HandleTransactionsSaved(context.Background(), domain.TransactionsSaved{
		MinDate: dayOffset(2),
		MaxDate: dayOffset(-3).Add(13 * time.Hour),
	})
	require.NoError(t, err)
	f.provider.AssertNumberOfCalls(t, "GetDailyQuotes", 1)
}

func TestHandleTransactionsSaved_FutureOnlyFetchesNothing(t *testing.T) {
	f := newEngineFixture(t, true)

	err := f.svc.HandleTransactionsSaved(context.Background(), domain.TransactionsSaved{MinDate: today, MaxDate: dayOffset(5)})
	require.NoError(t, err)
	f.store.AssertNotCalled(t, "MissingDates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleTransactionsSaved_CacheOnlyFetchesNothing(t *testing.T) {
	f := newEngineFixture(t, false)

	err := f.svc.HandleTransactionsSaved(context.Background(), domain.TransactionsSaved{MinDate: dayOffset(-5), MaxDate: dayOffset(-1)})
	require.NoError(t, err)
	f.store.AssertNotCalled(t, "MissingDates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleTransactionsSaved_IgnoresEmptyEvent(t *testing.T) {
	f := newEngineFixture(t, true)
	require.NoError(t, f.svc.HandleTransactionsSaved(context.Background(), domain.TransactionsSaved{}))
}

func TestHandleTransactionsSaved_StoreErrorIsReturned(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.On("MissingDates", mock.Anything, "EUR", testQuotes, mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	err := f.svc.HandleTransactionsSaved(context.Background(), domain.TransactionsSaved{MinDate: dayOffset(-5), MaxDate: dayOffset(-1)})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
