package reports

import (
	"context"
	"testing"
	"time"

	"github.com/harumakino16/setlink/internal/mailer"
	"github.com/harumakino16/setlink/internal/store"
)

type stubStore struct {
	snapshot  store.MetricsSnapshot
	saved     []store.MetricsSnapshot
	metrics   map[string]store.MetricsSnapshot
	resets    int
	resetRows int
}

func (s *stubStore) CollectKPIs(_ context.Context, _ time.Time) (store.MetricsSnapshot, error) {
	return s.snapshot, nil
}

func (s *stubStore) SaveMetrics(_ context.Context, snapshot store.MetricsSnapshot) error {
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *stubStore) GetMetrics(_ context.Context, date string) (store.MetricsSnapshot, error) {
	snapshot, ok := s.metrics[date]
	if !ok {
		return store.MetricsSnapshot{}, store.ErrMetricsNotFound
	}
	return snapshot, nil
}

func (s *stubStore) ResetMonthlyCounters(_ context.Context) (int, error) {
	s.resets++
	return s.resetRows, nil
}

type stubMailer struct {
	dailyReports []store.MetricsSnapshot
	summaryMonth string
	comparisons  []mailer.MonthlyComparison
}

func (m *stubMailer) SendDailyKPIReport(_ context.Context, snapshot store.MetricsSnapshot) error {
	m.dailyReports = append(m.dailyReports, snapshot)
	return nil
}

func (m *stubMailer) SendMonthlySummary(_ context.Context, month string, comparisons []mailer.MonthlyComparison) error {
	m.summaryMonth = month
	m.comparisons = comparisons
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRunDailyKPI(t *testing.T) {
	st := &stubStore{snapshot: store.MetricsSnapshot{Date: "2026-08-31", NewUsers: 7, MAU: 50}}
	mail := &stubMailer{}
	svc := New(st, mail)

	snapshot, err := svc.RunDailyKPI(context.Background())
	if err != nil {
		t.Fatalf("RunDailyKPI: %v", err)
	}
	if snapshot.NewUsers != 7 {
		t.Errorf("unexpected snapshot: %+v", snapshot)
	}
	if len(st.saved) != 1 || st.saved[0].Date != "2026-08-31" {
		t.Errorf("snapshot not saved: %+v", st.saved)
	}
	if len(mail.dailyReports) != 1 {
		t.Errorf("expected 1 report mail, got %d", len(mail.dailyReports))
	}
}

func TestRunMonthlyReset(t *testing.T) {
	st := &stubStore{resetRows: 1234}
	svc := New(st, &stubMailer{})

	n, err := svc.RunMonthlyReset(context.Background())
	if err != nil {
		t.Fatalf("RunMonthlyReset: %v", err)
	}
	if n != 1234 || st.resets != 1 {
		t.Errorf("expected one reset touching 1234 rows, got n=%d resets=%d", n, st.resets)
	}
}

func TestRunMonthlySummary(t *testing.T) {
	st := &stubStore{metrics: map[string]store.MetricsSnapshot{
		"2026-08-31": {Date: "2026-08-31", NewUsers: 30, MAU: 200, PaidUsers: 10, AdUsers: 5},
		"2026-07-31": {Date: "2026-07-31", NewUsers: 20, MAU: 180, PaidUsers: 8, AdUsers: 4},
		"2025-08-31": {Date: "2025-08-31", NewUsers: 10, MAU: 90, PaidUsers: 2, AdUsers: 1},
	}}
	mail := &stubMailer{}
	svc := New(st, mail)
	svc.now = fixedClock(time.Date(2026, time.September, 1, 3, 0, 0, 0, time.UTC))

	if err := svc.RunMonthlySummary(context.Background()); err != nil {
		t.Fatalf("RunMonthlySummary: %v", err)
	}

	if mail.summaryMonth != "2026-08" {
		t.Errorf("expected summary for 2026-08, got %s", mail.summaryMonth)
	}
	if len(mail.comparisons) != 4 {
		t.Fatalf("expected 4 comparisons, got %d", len(mail.comparisons))
	}
	first := mail.comparisons[0]
	if first.Name != "New users" || first.Current != 30 || first.Previous != 20 || first.YearAgo != 10 {
		t.Errorf("unexpected comparison: %+v", first)
	}
}

func TestRunMonthlySummaryMissingBaselines(t *testing.T) {
	st := &stubStore{metrics: map[string]store.MetricsSnapshot{
		"2026-08-31": {Date: "2026-08-31", NewUsers: 30},
	}}
	mail := &stubMailer{}
	svc := New(st, mail)
	svc.now = fixedClock(time.Date(2026, time.September, 1, 3, 0, 0, 0, time.UTC))

	if err := svc.RunMonthlySummary(context.Background()); err != nil {
		t.Fatalf("RunMonthlySummary: %v", err)
	}
	first := mail.comparisons[0]
	if first.Previous != 0 || first.YearAgo != 0 {
		t.Errorf("missing snapshots should compare against zero: %+v", first)
	}
}

func TestMonthEndNormalizes(t *testing.T) {
	// January minus two months lands in the prior year.
	got := monthEnd(2026, time.January-1, time.UTC)
	if got.Format("2006-01-02") != "2025-12-31" {
		t.Errorf("unexpected month end: %s", got)
	}
	got = monthEnd(2026, time.March, time.UTC)
	if got.Format("2006-01-02") != "2026-03-31" {
		t.Errorf("unexpected month end: %s", got)
	}
}
