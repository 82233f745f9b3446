package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserExists signals the email address is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized indicates an invalid or missing session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound indicates no such user row.
	ErrUserNotFound = errors.New("user not found")

	// ErrSongNotFound indicates the song does not exist or belongs to another user.
	ErrSongNotFound = errors.New("song not found")
	// ErrSetlistNotFound indicates the setlist does not exist or belongs to another user.
	ErrSetlistNotFound = errors.New("setlist not found")
	// ErrPageNotFound indicates no public page resolves to the given id.
	ErrPageNotFound = errors.New("public page not found")

	// ErrSongLimit is returned when a write would exceed the free-plan song cap.
	ErrSongLimit = errors.New("song limit reached for current plan")
	// ErrSetlistLimit is returned when a write would exceed the free-plan setlist cap.
	ErrSetlistLimit = errors.New("setlist limit reached for current plan")
	// ErrPageLimit is returned when a write would exceed the free-plan public page cap.
	ErrPageLimit = errors.New("public page limit reached for current plan")
)

// Plan identifiers. Anything that is not PlanFree is uncapped.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Free-plan quantity caps, checked before any mutating write.
const (
	FreePlanMaxSongs    = 100
	FreePlanMaxSetlists = 3
	FreePlanMaxPages    = 1
)

// MaxSongTags bounds the tags column on a song.
const MaxSongTags = 5

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
