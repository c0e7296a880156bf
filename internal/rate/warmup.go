package rate

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"fxengine/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const defaultWarmupWorkers = 4

type lookuper interface {
	Lookup(ctx context.Context, base, quote string, date time.Time) (domain.LookupResult, error)
}

type warmupTask struct {
	Quote string
	Date  time.Time
}

// ForwardWarmer pre-resolves the next N days for every quote so planning reads hit the memo.
type ForwardWarmer struct {
	lookup  lookuper
	mode    *Mode
	clock   clockwork.Clock
	base    string
	quotes  []string
	days    int
	workers int
}

// Run returns the number of lookups that succeeded. Failures are logged and skipped.
func (w *ForwardWarmer) Run(ctx context.Context) int {
	if !w.mode.DynamicActive() || w.days <= 0 {
		return 0
	}
	today := domain.DateOf(w.clock.Now())

	// STEP 1: queue every (quote, day) pair
	workQueue := make(chan warmupTask, len(w.quotes)*w.days)
	for _, quote := range w.quotes {
		for i := 1; i <= w.days; i++ {
			workQueue <- warmupTask{Quote: quote, Date: domain.AddDays(today, i)}
		}
	}
	close(workQueue)

	// STEP 2: drain the queue with a bounded pool
	var (
		wg     sync.WaitGroup
		warmed atomic.Int64
	)
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.runWorker(ctx, workerID, workQueue, &warmed)
		}(i)
	}
	wg.Wait()

	logrus.Infof("FX forward warm-up finished: %d of %d lookups warmed", warmed.Load(), len(w.quotes)*w.days)
	return int(warmed.Load())
}

func (w *ForwardWarmer) runWorker(ctx context.Context, workerID int, workQueue <-chan warmupTask, warmed *atomic.Int64) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-workQueue:
			if !ok {
				return
			}
			if _, err := w.lookup.Lookup(ctx, w.base, task.Quote, task.Date); err != nil {
				logrus.WithError(err).Debugf("Warm-up lookup %s/%s %s skipped by worker %d",
					w.base, task.Quote, domain.FormatDate(task.Date), workerID)
				continue
			}
			warmed.Add(1)
		}
	}
}

func NewForwardWarmer(lookup lookuper, mode *Mode, clock clockwork.Clock, settings Settings) *ForwardWarmer {
	workers := settings.WarmupWorkers
	if workers <= 0 {
		workers = defaultWarmupWorkers
	}
	return &ForwardWarmer{
		lookup:  lookup,
		mode:    mode,
		clock:   clock,
		base:    settings.Base,
		quotes:  slices.Clone(settings.QuoteCodes()),
		days:    settings.ForwardWarmDays,
		workers: workers,
	}
}
