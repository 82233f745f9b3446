// Package reports runs the scheduled aggregation jobs: daily KPI snapshots,
// monthly counter resets, and the monthly comparison mail.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/harumakino16/setlink/internal/mailer"
	"github.com/harumakino16/setlink/internal/store"
)

// Store covers the persistence the jobs touch.
type Store interface {
	CollectKPIs(ctx context.Context, now time.Time) (store.MetricsSnapshot, error)
	SaveMetrics(ctx context.Context, snapshot store.MetricsSnapshot) error
	GetMetrics(ctx context.Context, date string) (store.MetricsSnapshot, error)
	ResetMonthlyCounters(ctx context.Context) (int, error)
}

// Mailer sends the report mails produced by the jobs.
type Mailer interface {
	SendDailyKPIReport(ctx context.Context, snapshot store.MetricsSnapshot) error
	SendMonthlySummary(ctx context.Context, month string, comparisons []mailer.MonthlyComparison) error
}

// Service executes the jobs. now is injectable so runs are replayable.
type Service struct {
	store Store
	mail  Mailer
	now   func() time.Time
}

// New wires the report jobs with a wall clock.
func New(store Store, mail Mailer) *Service {
	return &Service{store: store, mail: mail, now: time.Now}
}

// RunDailyKPI collects the day's snapshot, persists it, and mails a summary.
// Re-running for the same date overwrites the snapshot in place.
func (s *Service) RunDailyKPI(ctx context.Context) (store.MetricsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.MetricsSnapshot{}, err
	}

	snapshot, err := s.store.CollectKPIs(ctx, s.now())
	if err != nil {
		return store.MetricsSnapshot{}, err
	}
	if err := s.store.SaveMetrics(ctx, snapshot); err != nil {
		return store.MetricsSnapshot{}, err
	}
	if err := s.mail.SendDailyKPIReport(ctx, snapshot); err != nil {
		return store.MetricsSnapshot{}, err
	}
	return snapshot, nil
}

// RunMonthlyReset zeroes monthly usage counters for every user and returns
// how many rows were touched.
func (s *Service) RunMonthlyReset(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.ResetMonthlyCounters(ctx)
}

// RunMonthlySummary compares the just-finished month against the month
// before and the same month a year earlier, and mails the movement. Missing
// historical snapshots appear as zero baselines instead of failing the run.
func (s *Service) RunMonthlySummary(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	// The job fires on day one, reporting on the month that just closed.
	lastOfMonth := monthEnd(now.Year(), now.Month()-1, now.Location())

	current, err := s.snapshotOrZero(ctx, lastOfMonth)
	if err != nil {
		return err
	}
	previous, err := s.snapshotOrZero(ctx, monthEnd(now.Year(), now.Month()-2, now.Location()))
	if err != nil {
		return err
	}
	yearAgo, err := s.snapshotOrZero(ctx, monthEnd(now.Year()-1, now.Month()-1, now.Location()))
	if err != nil {
		return err
	}

	comparisons := []mailer.MonthlyComparison{
		{Name: "New users", Current: current.NewUsers, Previous: previous.NewUsers, YearAgo: yearAgo.NewUsers},
		{Name: "Monthly active users", Current: current.MAU, Previous: previous.MAU, YearAgo: yearAgo.MAU},
		{Name: "Paid users", Current: current.PaidUsers, Previous: previous.PaidUsers, YearAgo: yearAgo.PaidUsers},
		{Name: "Ad-attributed users", Current: current.AdUsers, Previous: previous.AdUsers, YearAgo: yearAgo.AdUsers},
	}

	month := lastOfMonth.Format("2006-01")
	return s.mail.SendMonthlySummary(ctx, month, comparisons)
}

// monthEnd returns the last day of the given month. Month values outside
// 1..12 normalize the way time.Date does, so callers can pass now.Month()-2.
func monthEnd(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
}

// snapshotOrZero reads the snapshot nearest the end of the given month,
// falling back to an empty snapshot when none was recorded.
func (s *Service) snapshotOrZero(ctx context.Context, lastOfMonth time.Time) (store.MetricsSnapshot, error) {
	snapshot, err := s.store.GetMetrics(ctx, lastOfMonth.Format("2006-01-02"))
	if errors.Is(err, store.ErrMetricsNotFound) {
		return store.MetricsSnapshot{Date: lastOfMonth.Format("2006-01-02")}, nil
	}
	if err != nil {
		return store.MetricsSnapshot{}, err
	}
	return snapshot, nil
}
