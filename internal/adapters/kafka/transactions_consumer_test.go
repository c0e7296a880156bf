package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fxengine/internal/domain"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until ctx is canceled.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type MockHandler struct{ mock.Mock }

func (m *MockHandler) HandleTransactionsSaved(ctx context.Context, evt domain.TransactionsSaved) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func TestDecodeTransactionsSaved(t *testing.T) {
	evt, err := decodeTransactionsSaved([]byte(`{"min_date":"2024-05-01","max_date":"2024-05-03"}`))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), evt.MinDate)
	require.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), evt.MaxDate)

	_, err = decodeTransactionsSaved([]byte(`{"min_date":"01.05.2024","max_date":"2024-05-03"}`))
	require.ErrorContains(t, err, "min_date")

	_, err = decodeTransactionsSaved([]byte(`not json`))
	require.Error(t, err)
}

func TestTransactionsConsumer_HandlesAndCommits(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{
		{Offset: 1, Value: []byte(`{"min_date":"2024-05-01","max_date":"2024-05-03"}`)},
		{Offset: 2, Value: []byte(`garbage`)},
		{Offset: 3, Value: []byte(`{"min_date":"2024-05-07","max_date":"2024-05-07"}`)},
	}}
	h := new(MockHandler)
	h.On("HandleTransactionsSaved", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTransactionsConsumer(reader, h, time.Millisecond).Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Equal(t, []int64{1, 2, 3}, reader.commits())
	h.AssertNumberOfCalls(t, "HandleTransactionsSaved", 2)
	h.AssertCalled(t, "HandleTransactionsSaved", mock.Anything, domain.TransactionsSaved{
		MinDate: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
		MaxDate: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
	})
	require.True(t, reader.closed)
}

func TestTransactionsConsumer_RetriesThenGivesUp(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{
		{Offset: 9, Value: []byte(`{"min_date":"2024-05-01","max_date":"2024-05-03"}`)},
	}}
	h := new(MockHandler)
	h.On("HandleTransactionsSaved", mock.Anything, mock.Anything).Return(errors.New("db down"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTransactionsConsumer(reader, h, time.Millisecond).Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	h.AssertNumberOfCalls(t, "HandleTransactionsSaved", handleAttempts)
}
