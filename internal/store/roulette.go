package store

import (
	"context"
	"fmt"
	"time"
)

// RouletteEntry is one decided roulette spin, append-only per user.
type RouletteEntry struct {
	ID          int64     `json:"id"`
	SongID      int64     `json:"songId"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	YouTubeURL  string    `json:"youtubeUrl,omitempty"`
	SetlistName string    `json:"setlistName,omitempty"`
	DecidedAt   time.Time `json:"decidedAt"`
}

// AppendRouletteHistory records a decided spin.
func (s *Store) AppendRouletteHistory(ctx context.Context, userID int64, entry RouletteEntry) (RouletteEntry, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO roulette_history (user_id, song_id, title, artist, youtube_url, setlist_name, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, decided_at
	`, userID, entry.SongID, entry.Title, nullIfEmpty(entry.Artist),
		nullIfEmpty(entry.YouTubeURL), nullIfEmpty(entry.SetlistName),
	).Scan(&entry.ID, &entry.DecidedAt)
	if err != nil {
		return RouletteEntry{}, fmt.Errorf("insert roulette history: %w", err)
	}
	return entry, nil
}

// ListRouletteHistory returns the user's decided spins, newest first.
func (s *Store) ListRouletteHistory(ctx context.Context, userID int64) ([]RouletteEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, song_id, title, COALESCE(artist, ''), COALESCE(youtube_url, ''),
		       COALESCE(setlist_name, ''), decided_at
		FROM roulette_history
		WHERE user_id = $1
		ORDER BY decided_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list roulette history: %w", err)
	}
	defer rows.Close()

	var entries []RouletteEntry
	for rows.Next() {
		var entry RouletteEntry
		if err := rows.Scan(&entry.ID, &entry.SongID, &entry.Title, &entry.Artist,
			&entry.YouTubeURL, &entry.SetlistName, &entry.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan roulette entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roulette history: %w", err)
	}
	return entries, nil
}

// DeleteRouletteEntry removes one history row, scoped to its owner.
func (s *Store) DeleteRouletteEntry(ctx context.Context, userID, entryID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM roulette_history WHERE id = $1 AND user_id = $2
	`, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete roulette entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("roulette entry not found")
	}
	return nil
}
