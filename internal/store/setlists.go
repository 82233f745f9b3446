package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Setlist is an ordered, named list of song references.
type Setlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SongIDs   []int64   `json:"songIds"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CountSetlists returns how many setlists the user owns.
func (s *Store) CountSetlists(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM setlists WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count setlists: %w", err)
	}
	return count, nil
}

// ListSetlists returns the user's setlists, newest first.
func (s *Store) ListSetlists(ctx context.Context, userID int64) ([]Setlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM setlists
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list setlists: %w", err)
	}
	defer rows.Close()

	var setlists []Setlist
	for rows.Next() {
		var sl Setlist
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setlist: %w", err)
		}
		songIDs, err := s.listSetlistSongIDs(ctx, sl.ID)
		if err != nil {
			return nil, err
		}
		sl.SongIDs = songIDs
		setlists = append(setlists, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setlists: %w", err)
	}
	return setlists, nil
}

// GetSetlist returns one setlist with its ordered song ids.
func (s *Store) GetSetlist(ctx context.Context, userID, setlistID int64) (Setlist, error) {
	var sl Setlist
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM setlists
		WHERE id = $1 AND user_id = $2
	`, setlistID, userID).Scan(&sl.ID, &sl.Name, &sl.CreatedAt, &sl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Setlist{}, ErrSetlistNotFound
	}
	if err != nil {
		return Setlist{}, fmt.Errorf("get setlist: %w", err)
	}
	songIDs, err := s.listSetlistSongIDs(ctx, sl.ID)
	if err != nil {
		return Setlist{}, err
	}
	sl.SongIDs = songIDs
	return sl, nil
}

// CreateSetlist writes a setlist with its song order, enforcing the free-plan
// cap and bumping the creation counter and last activity in the same tx.
func (s *Store) CreateSetlist(ctx context.Context, userID int64, name string, songIDs []int64) (sl Setlist, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Setlist{}, fmt.Errorf("setlist name is required")
	}

	plan, err := s.UserPlan(ctx, userID)
	if err != nil {
		return Setlist{}, err
	}
	if plan == PlanFree {
		count, err := s.CountSetlists(ctx, userID)
		if err != nil {
			return Setlist{}, err
		}
		if count >= FreePlanMaxSetlists {
			return Setlist{}, ErrSetlistLimit
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Setlist{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.QueryRowContext(ctx, `
		INSERT INTO setlists (user_id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, userID, name).Scan(&sl.ID, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
		return Setlist{}, fmt.Errorf("insert setlist: %w", err)
	}
	sl.Name = name

	if err = replaceSetlistSongsTx(ctx, tx, sl.ID, songIDs); err != nil {
		return Setlist{}, err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE users
		SET setlist_creation_count = setlist_creation_count + 1,
		    last_activity_at = NOW()
		WHERE id = $1
	`, userID); err != nil {
		return Setlist{}, fmt.Errorf("bump setlist counter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Setlist{}, fmt.Errorf("commit setlist create: %w", err)
	}

	sl.SongIDs = songIDs
	return sl, nil
}

// RenameSetlist updates the name only.
func (s *Store) RenameSetlist(ctx context.Context, userID, setlistID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("setlist name is required")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE setlists SET name = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, setlistID, userID, name)
	if err != nil {
		return fmt.Errorf("rename setlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSetlistNotFound
	}
	return nil
}

// ReorderSetlistSongs replaces the ordered song-id list of a setlist.
func (s *Store) ReorderSetlistSongs(ctx context.Context, userID, setlistID int64, songIDs []int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE setlists SET updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, setlistID, userID)
	if err != nil {
		return fmt.Errorf("touch setlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSetlistNotFound
	}

	if err = replaceSetlistSongsTx(ctx, tx, setlistID, songIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// DeleteSetlist removes a setlist and its song rows.
func (s *Store) DeleteSetlist(ctx context.Context, userID, setlistID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM setlists WHERE id = $1 AND user_id = $2
	`, setlistID, userID)
	if err != nil {
		return fmt.Errorf("delete setlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSetlistNotFound
	}
	return nil
}

func (s *Store) listSetlistSongIDs(ctx context.Context, setlistID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id
		FROM setlist_songs
		WHERE setlist_id = $1
		ORDER BY position ASC
	`, setlistID)
	if err != nil {
		return nil, fmt.Errorf("list setlist songs: %w", err)
	}
	defer rows.Close()

	songIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan setlist song: %w", err)
		}
		songIDs = append(songIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setlist songs: %w", err)
	}
	return songIDs, nil
}

func replaceSetlistSongsTx(ctx context.Context, tx *sql.Tx, setlistID int64, songIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM setlist_songs WHERE setlist_id = $1
	`, setlistID); err != nil {
		return fmt.Errorf("clear setlist songs: %w", err)
	}
	if len(songIDs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO setlist_songs (setlist_id, position, song_id)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert setlist song: %w", err)
	}
	defer stmt.Close()

	for idx, songID := range songIDs {
		if _, err := stmt.ExecContext(ctx, setlistID, idx, songID); err != nil {
			return fmt.Errorf("insert setlist song: %w", err)
		}
	}
	return nil
}
