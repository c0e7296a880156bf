package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	defaultIngestCron   = "0 10 6 * * *"
	defaultBackfillCron = "0 30 6 * * *"
	defaultWarmupCron   = "0 0 7 * * *"
)

// Schedule holds six-field cron expressions (seconds first).
type Schedule struct {
	IngestCron   string
	BackfillCron string
	WarmupCron   string
}

type dailyJobs interface {
	DailyIngest(ctx context.Context) error
	DailyBackfill(ctx context.Context) (int, error)
}

type warmupJob interface {
	Run(ctx context.Context) int
}

type Scheduler struct {
	jobs     dailyJobs
	warmer   warmupJob
	clock    clockwork.Clock
	schedule Schedule
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithClock(s.clock),
	)
	if err != nil {
		return err
	}

	jobs := []struct {
		name    string
		crontab string
		run     func(ctx context.Context) error
	}{
		{name: "fx-daily-ingest", crontab: s.schedule.IngestCron, run: s.jobs.DailyIngest},
		{name: "fx-daily-backfill", crontab: s.schedule.BackfillCron, run: func(jobCtx context.Context) error {
			_, backfillErr := s.jobs.DailyBackfill(jobCtx)
			return backfillErr
		}},
		{name: "fx-forward-warmup", crontab: s.schedule.WarmupCron, run: func(jobCtx context.Context) error {
			s.warmer.Run(jobCtx)
			return nil
		}},
	}
	for _, j := range jobs {
		if err = s.addJob(scheduler, j.name, j.crontab, j.run); err != nil {
			_ = scheduler.Shutdown()
			return err
		}
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) addJob(scheduler gocron.Scheduler, name, crontab string, run func(ctx context.Context) error) error {
	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		started := s.clock.Now()
		logrus.WithFields(logrus.Fields{"job": name, "execID": execID}).Info("FX job started")
		if runErr := run(jobCtx); runErr != nil {
			logrus.Errorf("FX job %s failed; execID: %s: %v", name, execID, runErr)
			return
		}
		logrus.WithFields(logrus.Fields{"job": name, "execID": execID}).
			Infof("FX job finished in %s", s.clock.Since(started).Round(time.Millisecond))
	}

	_, err := scheduler.NewJob(
		gocron.CronJob(crontab, true),
		gocron.NewTask(job),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, crontab, err)
	}
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

func withDefaultCrons(schedule Schedule) Schedule {
	if schedule.IngestCron == "" {
		schedule.IngestCron = defaultIngestCron
	}
	if schedule.BackfillCron == "" {
		schedule.BackfillCron = defaultBackfillCron
	}
	if schedule.WarmupCron == "" {
		schedule.WarmupCron = defaultWarmupCron
	}
	return schedule
}

func NewScheduler(jobs dailyJobs, warmer warmupJob, clock clockwork.Clock, schedule Schedule) *Scheduler {
	return &Scheduler{jobs: jobs, warmer: warmer, clock: clock, schedule: withDefaultCrons(schedule)}
}
