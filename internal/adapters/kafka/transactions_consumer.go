package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fxengine/internal/domain"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	handleAttempts = 3
	fetchPause     = 500 * time.Millisecond
)

type transactionsHandler interface {
	HandleTransactionsSaved(ctx context.Context, evt domain.TransactionsSaved) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// transactionsSavedPayload is the body of a "transactions saved" message.
type transactionsSavedPayload struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// TransactionsConsumer feeds post-commit transaction events into the FX engine.
type TransactionsConsumer struct {
	reader  messageReader
	handler transactionsHandler
	backoff time.Duration
}

// Run consumes until ctx is canceled. Undecodable messages are committed and skipped; a message whose
// handling keeps failing is committed after the last attempt, since the next daily backfill covers it.
func (c *TransactionsConsumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			logrus.WithError(err).Warn("Kafka reader close failed")
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logrus.WithError(err).Error("Kafka fetch failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchPause):
			}
			continue
		}

		c.process(ctx, msg)
		if err = c.reader.CommitMessages(ctx, msg); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"topic": msg.Topic, "partition": msg.Partition, "offset": msg.Offset,
			}).Error("Kafka commit failed")
		}
	}
}

func (c *TransactionsConsumer) process(ctx context.Context, msg kafkago.Message) {
	fields := logrus.Fields{"topic": msg.Topic, "partition": msg.Partition, "offset": msg.Offset}

	evt, err := decodeTransactionsSaved(msg.Value)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Error("Skipping undecodable transactions event")
		return
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), handleAttempts-1), ctx)
	err = backoff.RetryNotify(func() error {
		return c.handler.HandleTransactionsSaved(ctx, evt)
	}, policy, func(retryErr error, wait time.Duration) {
		logrus.WithError(retryErr).WithFields(fields).Warnf("Ensuring FX rates for transactions failed, retrying in %s", wait)
	})
	if err != nil {
		logrus.WithError(err).WithFields(fields).Error("Giving up on transactions event")
	}
}

func decodeTransactionsSaved(raw []byte) (domain.TransactionsSaved, error) {
	var p transactionsSavedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.TransactionsSaved{}, fmt.Errorf("failed to decode transactions event: %w", err)
	}
	minDate, err := domain.ParseDate(p.MinDate)
	if err != nil {
		return domain.TransactionsSaved{}, fmt.Errorf("invalid min_date %q: %w", p.MinDate, err)
	}
	maxDate, err := domain.ParseDate(p.MaxDate)
	if err != nil {
		return domain.TransactionsSaved{}, fmt.Errorf("invalid max_date %q: %w", p.MaxDate, err)
	}
	return domain.TransactionsSaved{MinDate: minDate, MaxDate: maxDate}, nil
}

func NewTransactionsConsumer(brokers []string, topic, groupID string, handler transactionsHandler) *TransactionsConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
	})
	return newTransactionsConsumer(reader, handler, time.Second)
}

func newTransactionsConsumer(reader messageReader, handler transactionsHandler, retryBackoff time.Duration) *TransactionsConsumer {
	return &TransactionsConsumer{reader: reader, handler: handler, backoff: retryBackoff}
}
