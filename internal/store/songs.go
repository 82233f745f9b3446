package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Song represents one catalog entry owned by a user.
type Song struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Furigana     string    `json:"furigana,omitempty"`
	Artist       string    `json:"artist,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	YouTubeURL   string    `json:"youtubeUrl,omitempty"`
	SingingCount int       `json:"singingCount"`
	SkillLevel   int       `json:"skillLevel"`
	Memo         string    `json:"memo,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func validateSong(song Song) error {
	if strings.TrimSpace(song.Title) == "" {
		return fmt.Errorf("song title is required")
	}
	if len(song.Tags) > MaxSongTags {
		return fmt.Errorf("a song can carry at most %d tags", MaxSongTags)
	}
	if song.SingingCount < 0 {
		return fmt.Errorf("singing count must not be negative")
	}
	if song.SkillLevel < 0 {
		return fmt.Errorf("skill level must not be negative")
	}
	return nil
}

// CountSongs returns the number of songs owned by the user.
func (s *Store) CountSongs(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM songs WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return count, nil
}

// ListSongs returns the user's full catalog ordered by creation time.
// Filtering happens in memory, in the songfilter package.
func (s *Store) ListSongs(ctx context.Context, userID int64) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(furigana, ''), COALESCE(artist, ''), COALESCE(genre, ''),
		       tags, COALESCE(youtube_url, ''), singing_count, skill_level,
		       COALESCE(memo, ''), COALESCE(note, ''), created_at, updated_at
		FROM songs
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var song Song
		if err := rows.Scan(&song.ID, &song.Title, &song.Furigana, &song.Artist, &song.Genre,
			pq.Array(&song.Tags), &song.YouTubeURL, &song.SingingCount, &song.SkillLevel,
			&song.Memo, &song.Note, &song.CreatedAt, &song.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

// GetSong returns a single song, scoped to its owner.
func (s *Store) GetSong(ctx context.Context, userID, songID int64) (Song, error) {
	var song Song
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(furigana, ''), COALESCE(artist, ''), COALESCE(genre, ''),
		       tags, COALESCE(youtube_url, ''), singing_count, skill_level,
		       COALESCE(memo, ''), COALESCE(note, ''), created_at, updated_at
		FROM songs
		WHERE id = $1 AND user_id = $2
	`, songID, userID).Scan(&song.ID, &song.Title, &song.Furigana, &song.Artist, &song.Genre,
		pq.Array(&song.Tags), &song.YouTubeURL, &song.SingingCount, &song.SkillLevel,
		&song.Memo, &song.Note, &song.CreatedAt, &song.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// CreateSong inserts one song after validation and the plan cap check.
func (s *Store) CreateSong(ctx context.Context, userID int64, song Song) (Song, error) {
	song.Title = strings.TrimSpace(song.Title)
	if err := validateSong(song); err != nil {
		return Song{}, err
	}

	if err := s.checkSongCap(ctx, userID, 1); err != nil {
		return Song{}, err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO songs (user_id, title, furigana, artist, genre, tags, youtube_url,
		                   singing_count, skill_level, memo, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, userID, song.Title, nullIfEmpty(song.Furigana), nullIfEmpty(song.Artist),
		nullIfEmpty(song.Genre), pq.Array(song.Tags), nullIfEmpty(song.YouTubeURL),
		song.SingingCount, song.SkillLevel, nullIfEmpty(song.Memo), nullIfEmpty(song.Note),
	).Scan(&song.ID, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return Song{}, fmt.Errorf("insert song: %w", err)
	}
	return song, nil
}

// UpdateSong overwrites the mutable fields of a song.
func (s *Store) UpdateSong(ctx context.Context, userID int64, song Song) (Song, error) {
	song.Title = strings.TrimSpace(song.Title)
	if err := validateSong(song); err != nil {
		return Song{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE songs
		SET title = $3, furigana = $4, artist = $5, genre = $6, tags = $7,
		    youtube_url = $8, singing_count = $9, skill_level = $10,
		    memo = $11, note = $12, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, song.ID, userID, song.Title, nullIfEmpty(song.Furigana), nullIfEmpty(song.Artist),
		nullIfEmpty(song.Genre), pq.Array(song.Tags), nullIfEmpty(song.YouTubeURL),
		song.SingingCount, song.SkillLevel, nullIfEmpty(song.Memo), nullIfEmpty(song.Note))
	if err != nil {
		return Song{}, fmt.Errorf("update song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Song{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return Song{}, ErrSongNotFound
	}
	return s.GetSong(ctx, userID, song.ID)
}

// DeleteSong removes a song and its setlist references.
func (s *Store) DeleteSong(ctx context.Context, userID, songID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM songs WHERE id = $1 AND user_id = $2
	`, songID, userID)
	if err != nil {
		return fmt.Errorf("delete song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

// AdjustSingingCount adds delta to the singing count, floored at zero.
func (s *Store) AdjustSingingCount(ctx context.Context, userID, songID int64, delta int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET singing_count = GREATEST(singing_count + $3, 0), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING singing_count
	`, songID, userID, delta).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSongNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust singing count: %w", err)
	}
	return count, nil
}

// BulkEditFields optionally overwrites artist, genre and tags on the given
// songs. Nil means leave the field alone.
type BulkEditFields struct {
	Artist *string
	Genre  *string
	Tags   *[]string
}

// BulkEditSongs applies the same field changes to every listed song in one tx.
func (s *Store) BulkEditSongs(ctx context.Context, userID int64, songIDs []int64, fields BulkEditFields) (err error) {
	if len(songIDs) == 0 {
		return nil
	}
	if fields.Tags != nil && len(*fields.Tags) > MaxSongTags {
		return fmt.Errorf("a song can carry at most %d tags", MaxSongTags)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, songID := range songIDs {
		if fields.Artist != nil {
			if _, err = tx.ExecContext(ctx, `
				UPDATE songs SET artist = $3, updated_at = NOW()
				WHERE id = $1 AND user_id = $2
			`, songID, userID, nullIfEmpty(*fields.Artist)); err != nil {
				return fmt.Errorf("bulk edit artist: %w", err)
			}
		}
		if fields.Genre != nil {
			if _, err = tx.ExecContext(ctx, `
				UPDATE songs SET genre = $3, updated_at = NOW()
				WHERE id = $1 AND user_id = $2
			`, songID, userID, nullIfEmpty(*fields.Genre)); err != nil {
				return fmt.Errorf("bulk edit genre: %w", err)
			}
		}
		if fields.Tags != nil {
			if _, err = tx.ExecContext(ctx, `
				UPDATE songs SET tags = $3, updated_at = NOW()
				WHERE id = $1 AND user_id = $2
			`, songID, userID, pq.Array(*fields.Tags)); err != nil {
				return fmt.Errorf("bulk edit tags: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk edit: %w", err)
	}
	return nil
}

// ReplaceSongs deletes the whole catalog and inserts the given songs in one tx.
// Used by CSV import in replace mode.
func (s *Store) ReplaceSongs(ctx context.Context, userID int64, songs []Song) (err error) {
	for i, song := range songs {
		if err := validateSong(song); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM songs WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear songs: %w", err)
	}

	if err = insertSongsTx(ctx, tx, userID, songs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace songs: %w", err)
	}
	return nil
}

// AppendSongs inserts songs subject to the plan cap, all or nothing.
func (s *Store) AppendSongs(ctx context.Context, userID int64, songs []Song) (err error) {
	for i, song := range songs {
		if err := validateSong(song); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if err := s.checkSongCap(ctx, userID, len(songs)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertSongsTx(ctx, tx, userID, songs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append songs: %w", err)
	}
	return nil
}

func insertSongsTx(ctx context.Context, tx *sql.Tx, userID int64, songs []Song) error {
	if len(songs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (user_id, title, furigana, artist, genre, tags, youtube_url,
		                   singing_count, skill_level, memo, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`)
	if err != nil {
		return fmt.Errorf("prepare insert song: %w", err)
	}
	defer stmt.Close()

	for _, song := range songs {
		if _, err := stmt.ExecContext(ctx, userID, strings.TrimSpace(song.Title),
			nullIfEmpty(song.Furigana), nullIfEmpty(song.Artist), nullIfEmpty(song.Genre),
			pq.Array(song.Tags), nullIfEmpty(song.YouTubeURL),
			song.SingingCount, song.SkillLevel,
			nullIfEmpty(song.Memo), nullIfEmpty(song.Note)); err != nil {
			return fmt.Errorf("insert song: %w", err)
		}
	}
	return nil
}

func (s *Store) checkSongCap(ctx context.Context, userID int64, adding int) error {
	plan, err := s.UserPlan(ctx, userID)
	if err != nil {
		return err
	}
	if plan != PlanFree {
		return nil
	}
	count, err := s.CountSongs(ctx, userID)
	if err != nil {
		return err
	}
	if count+adding > FreePlanMaxSongs {
		return ErrSongLimit
	}
	return nil
}
