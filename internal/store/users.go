package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Effort to keep timing comparable when the email is unknown.
var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

// User models an account row including plan and usage counters.
type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	DisplayName         string     `json:"displayName"`
	Plan                string     `json:"plan"`
	IsAdmin             bool       `json:"isAdmin"`
	SignupSource        string     `json:"signupSource,omitempty"`
	AdAttributed        bool       `json:"adAttributed"`
	SetlistCreations    int64      `json:"setlistCreations"`
	RouletteCount       int64      `json:"rouletteCount"`
	MonthlyRoulette     int        `json:"monthlyRouletteCount"`
	MonthlyRandomSet    int        `json:"monthlyRandomSetlistCount"`
	MonthlyRequests     int        `json:"monthlyRequestCount"`
	MonthlyExports      int        `json:"monthlyPlaylistExportCount"`
	YouTubeLinked       bool       `json:"youtubeLinked"`
	LastActivityAt      *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, email, password, displayName, signupSource string, adAttributed bool) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return 0, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, plan, signup_source, ad_attributed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`, email, hash, displayName, PlanFree, nullIfEmpty(signupSource), adAttributed).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return userID, nil
}

// Authenticate validates credentials and returns the account id.
func (s *Store) Authenticate(ctx context.Context, email, password string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		userID int64
		hash   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash
		FROM users
		WHERE email = $1
	`, email).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return userID, nil
}

// GetUser loads a single account row.
func (s *Store) GetUser(ctx context.Context, userID int64) (User, error) {
	var (
		u            User
		signupSource sql.NullString
		lastActivity sql.NullTime
		refreshToken sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, plan, is_admin, signup_source, ad_attributed,
		       setlist_creation_count, roulette_count,
		       monthly_roulette_count, monthly_random_setlist_count,
		       monthly_request_count, monthly_playlist_export_count,
		       youtube_refresh_token, last_activity_at, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Plan, &u.IsAdmin, &signupSource, &u.AdAttributed,
		&u.SetlistCreations, &u.RouletteCount,
		&u.MonthlyRoulette, &u.MonthlyRandomSet,
		&u.MonthlyRequests, &u.MonthlyExports,
		&refreshToken, &lastActivity, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.SignupSource = signupSource.String
	u.YouTubeLinked = refreshToken.Valid && refreshToken.String != ""
	if lastActivity.Valid {
		t := lastActivity.Time
		u.LastActivityAt = &t
	}
	return u, nil
}

// UserPlan returns just the plan column for cap checks.
func (s *Store) UserPlan(ctx context.Context, userID int64) (string, error) {
	var plan string
	err := s.db.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user plan: %w", err)
	}
	return plan, nil
}

// TouchActivity records the user's last activity timestamp.
func (s *Store) TouchActivity(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_activity_at = NOW() WHERE id = $1
	`, userID); err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}
	return nil
}

// BumpRouletteCounters increments the lifetime and monthly roulette counters
// and stamps last activity in one statement.
func (s *Store) BumpRouletteCounters(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET roulette_count = roulette_count + 1,
		    monthly_roulette_count = monthly_roulette_count + 1,
		    last_activity_at = NOW()
		WHERE id = $1
	`, userID); err != nil {
		return fmt.Errorf("bump roulette counters: %w", err)
	}
	return nil
}

// BumpRandomSetlistCounter increments the monthly random-setlist counter.
func (s *Store) BumpRandomSetlistCounter(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET monthly_random_setlist_count = monthly_random_setlist_count + 1,
		    last_activity_at = NOW()
		WHERE id = $1
	`, userID); err != nil {
		return fmt.Errorf("bump random setlist counter: %w", err)
	}
	return nil
}

// BumpExportCounter increments the monthly playlist-export counter.
func (s *Store) BumpExportCounter(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET monthly_playlist_export_count = monthly_playlist_export_count + 1,
		    last_activity_at = NOW()
		WHERE id = $1
	`, userID); err != nil {
		return fmt.Errorf("bump export counter: %w", err)
	}
	return nil
}

// SaveYouTubeRefreshToken persists the OAuth refresh token on the user row.
func (s *Store) SaveYouTubeRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET youtube_refresh_token = $2 WHERE id = $1
	`, userID, nullIfEmpty(refreshToken))
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// YouTubeRefreshToken returns the stored refresh token, empty when unlinked.
func (s *Store) YouTubeRefreshToken(ctx context.Context, userID int64) (string, error) {
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT youtube_refresh_token FROM users WHERE id = $1
	`, userID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return token.String, nil
}

// IsAdmin reports whether the account has the admin flag set.
func (s *Store) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get admin flag: %w", err)
	}
	return isAdmin, nil
}
