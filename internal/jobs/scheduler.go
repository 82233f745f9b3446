// Package jobs drives the scheduled aggregation work off a wall-clock
// ticker. The daily KPI job fires once per day; the monthly reset and
// summary fire on the first day of each month.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/harumakino16/setlink/internal/store"
)

// Runner is the report job surface the scheduler invokes.
type Runner interface {
	RunDailyKPI(ctx context.Context) (store.MetricsSnapshot, error)
	RunMonthlyReset(ctx context.Context) (int, error)
	RunMonthlySummary(ctx context.Context) error
}

// Scheduler fires report jobs when their day boundary passes.
type Scheduler struct {
	runner   Runner
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time

	lastDaily   string // YYYY-MM-DD of the last daily run
	lastMonthly string // YYYY-MM of the last monthly run
}

// NewScheduler creates a scheduler that checks for due jobs every interval.
// A zero interval defaults to one minute.
func NewScheduler(runner Runner, logger zerolog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		runner:   runner,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the scheduler loop until the context is cancelled. Jobs that
// were already run for the current day or month are skipped, so restarts
// within a day do not double-run.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("starting job scheduler")

	// Seed the markers so a freshly started process does not immediately
	// re-run jobs for a day that is already underway.
	now := s.now()
	s.lastDaily = now.Format("2006-01-02")
	s.lastMonthly = now.Format("2006-01")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("job scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	day := now.Format("2006-01-02")
	if day != s.lastDaily {
		s.lastDaily = day
		s.runDaily(ctx)
	}

	month := now.Format("2006-01")
	if month != s.lastMonthly && now.Day() == 1 {
		s.lastMonthly = month
		s.runMonthly(ctx)
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	start := time.Now()
	snapshot, err := s.runner.RunDailyKPI(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("daily kpi job failed")
		return
	}
	s.logger.Info().
		Str("date", snapshot.Date).
		Int("mau", snapshot.MAU).
		Int("new_users", snapshot.NewUsers).
		Dur("duration", time.Since(start)).
		Msg("daily kpi job completed")
}

func (s *Scheduler) runMonthly(ctx context.Context) {
	start := time.Now()

	reset, err := s.runner.RunMonthlyReset(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("monthly reset job failed")
	} else {
		s.logger.Info().Int("users_reset", reset).Msg("monthly reset job completed")
	}

	if err := s.runner.RunMonthlySummary(ctx); err != nil {
		s.logger.Error().Err(err).Msg("monthly summary job failed")
	} else {
		s.logger.Info().Dur("duration", time.Since(start)).Msg("monthly summary job completed")
	}
}
