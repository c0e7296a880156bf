package rate

import (
	"context"

	"fxengine/internal/domain"

	"github.com/sirupsen/logrus"
)

// HandleTransactionsSaved makes sure rates exist for the days of freshly committed transactions.
// Days up to yesterday are ensured; later days will be served provisionally and are only logged.
func (s *Service) HandleTransactionsSaved(ctx context.Context, evt domain.TransactionsSaved) error {
	if evt.MinDate.IsZero() || evt.MaxDate.IsZero() {
		return nil
	}
	first, last := domain.DateOf(evt.MinDate), domain.DateOf(evt.MaxDate)
	if last.Before(first) {
		first, last = last, first
	}
	today := domain.DateOf(s.clock.Now())
	yesterday := domain.AddDays(today, -1)

	if !first.After(yesterday) {
		histEnd := last
		if histEnd.After(yesterday) {
			histEnd = yesterday
		}
		fetched, err := s.ensurer.EnsureForRange(ctx, first, histEnd)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"start": domain.FormatDate(first), "end": domain.FormatDate(histEnd), "fetched": fetched,
		}).Debug("FX rates ensured for saved transactions")
	}

	if last.After(yesterday) {
		futureStart := first
		if futureStart.Before(today) {
			futureStart = today
		}
		logrus.WithFields(logrus.Fields{
			"start": domain.FormatDate(futureStart), "end": domain.FormatDate(last),
		}).Debug("Saved transactions reach today or later, provisional rates will apply")
	}
	return nil
}
