package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// MetricsSnapshot is one daily KPI rollup, read-only once written.
type MetricsSnapshot struct {
	Date             string         `json:"date"` // YYYY-MM-DD
	NewUsers         int            `json:"newUsers"`
	AdUsers          int            `json:"adUsers"`
	MAU              int            `json:"mau"`
	PaidUsers        int            `json:"paidUsers"`
	AdPaidUsers      int            `json:"adPaidUsers"`
	AdConversionRate float64        `json:"adConversionRate"`
	SignupSources    map[string]int `json:"signUpSources"`
}

// ErrMetricsNotFound indicates no snapshot exists for the requested date.
var ErrMetricsNotFound = errors.New("metrics snapshot not found")

// CollectKPIs runs the fixed set of count queries behind a daily snapshot.
// now is injected so jobs are replayable for past dates.
func (s *Store) CollectKPIs(ctx context.Context, now time.Time) (MetricsSnapshot, error) {
	snapshot := MetricsSnapshot{
		Date:          now.Format("2006-01-02"),
		SignupSources: map[string]int{},
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	activeSince := now.AddDate(0, 0, -30)

	counts := []struct {
		dest  *int
		query string
		args  []interface{}
	}{
		{&snapshot.NewUsers, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, []interface{}{monthStart}},
		{&snapshot.AdUsers, `SELECT COUNT(*) FROM users WHERE created_at >= $1 AND ad_attributed`, []interface{}{monthStart}},
		{&snapshot.MAU, `SELECT COUNT(*) FROM users WHERE last_activity_at >= $1`, []interface{}{activeSince}},
		{&snapshot.PaidUsers, `SELECT COUNT(*) FROM users WHERE plan <> $1`, []interface{}{PlanFree}},
		{&snapshot.AdPaidUsers, `SELECT COUNT(*) FROM users WHERE plan <> $1 AND ad_attributed`, []interface{}{PlanFree}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return MetricsSnapshot{}, fmt.Errorf("count query: %w", err)
		}
	}

	if snapshot.AdUsers > 0 {
		snapshot.AdConversionRate = float64(snapshot.AdPaidUsers) / float64(snapshot.AdUsers)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(signup_source, 'direct'), COUNT(*)
		FROM users
		WHERE created_at >= $1
		GROUP BY 1
	`, monthStart)
	if err != nil {
		return MetricsSnapshot{}, fmt.Errorf("signup sources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return MetricsSnapshot{}, fmt.Errorf("scan signup source: %w", err)
		}
		snapshot.SignupSources[source] = count
	}
	if err := rows.Err(); err != nil {
		return MetricsSnapshot{}, fmt.Errorf("iterate signup sources: %w", err)
	}

	return snapshot, nil
}

// SaveMetrics upserts the snapshot row for its date, so the daily job is
// re-runnable.
func (s *Store) SaveMetrics(ctx context.Context, snapshot MetricsSnapshot) error {
	sourcesJSON, err := json.Marshal(snapshot.SignupSources)
	if err != nil {
		return fmt.Errorf("marshal signup sources: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (date, new_users, ad_users, mau, paid_users, ad_paid_users,
		                     ad_conversion_rate, signup_sources, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, NOW())
		ON CONFLICT (date)
		DO UPDATE SET new_users = EXCLUDED.new_users, ad_users = EXCLUDED.ad_users,
		              mau = EXCLUDED.mau, paid_users = EXCLUDED.paid_users,
		              ad_paid_users = EXCLUDED.ad_paid_users,
		              ad_conversion_rate = EXCLUDED.ad_conversion_rate,
		              signup_sources = EXCLUDED.signup_sources
	`, snapshot.Date, snapshot.NewUsers, snapshot.AdUsers, snapshot.MAU,
		snapshot.PaidUsers, snapshot.AdPaidUsers, snapshot.AdConversionRate,
		string(sourcesJSON)); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

// GetMetrics reads the snapshot for a date.
func (s *Store) GetMetrics(ctx context.Context, date string) (MetricsSnapshot, error) {
	var (
		snapshot    MetricsSnapshot
		sourcesJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT date, new_users, ad_users, mau, paid_users, ad_paid_users,
		       ad_conversion_rate, signup_sources
		FROM metrics
		WHERE date = $1
	`, date).Scan(&snapshot.Date, &snapshot.NewUsers, &snapshot.AdUsers, &snapshot.MAU,
		&snapshot.PaidUsers, &snapshot.AdPaidUsers, &snapshot.AdConversionRate, &sourcesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return MetricsSnapshot{}, ErrMetricsNotFound
	}
	if err != nil {
		return MetricsSnapshot{}, fmt.Errorf("get metrics: %w", err)
	}
	if err := json.Unmarshal(sourcesJSON, &snapshot.SignupSources); err != nil {
		return MetricsSnapshot{}, fmt.Errorf("unmarshal signup sources: %w", err)
	}
	return snapshot, nil
}

// resetBatchSize matches the document-store batch limit the jobs were sized
// around; each batch commits before the next page is fetched.
const resetBatchSize = 500

// ResetMonthlyCounters zeroes the four monthly usage counters for every user,
// paging by id cursor in committed batches. Returns how many rows were reset.
func (s *Store) ResetMonthlyCounters(ctx context.Context) (int, error) {
	var (
		cursor int64
		total  int
	)
	for {
		ids, err := s.pageUserIDs(ctx, cursor, resetBatchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return total, fmt.Errorf("begin tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET monthly_roulette_count = 0,
			    monthly_random_setlist_count = 0,
			    monthly_request_count = 0,
			    monthly_playlist_export_count = 0
			WHERE id = ANY($1)
		`, pq.Array(ids)); err != nil {
			_ = tx.Rollback()
			return total, fmt.Errorf("reset counters batch: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return total, fmt.Errorf("commit reset batch: %w", err)
		}

		total += len(ids)
		cursor = ids[len(ids)-1]
	}
}

func (s *Store) pageUserIDs(ctx context.Context, after int64, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM users WHERE id > $1 ORDER BY id ASC LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("page users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}
