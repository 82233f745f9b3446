package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// VisibleColumns controls which song fields a public page exposes.
// A typed struct instead of a map so that column typos fail at compile time.
type VisibleColumns struct {
	Title        bool `json:"title"`
	Artist       bool `json:"artist"`
	Genre        bool `json:"genre"`
	Tags         bool `json:"tags"`
	SingingCount bool `json:"singingCount"`
	SkillLevel   bool `json:"skillLevel"`
	Memo         bool `json:"memo"`
	YouTubeURL   bool `json:"youtubeUrl"`
}

// DefaultVisibleColumns is what a freshly created page shows.
func DefaultVisibleColumns() VisibleColumns {
	return VisibleColumns{Title: true, Artist: true, Genre: true, Tags: true, YouTubeURL: true}
}

// PublicPage is a shareable, read-only, filtered view of a catalog.
// Criteria blobs stay opaque here; the songfilter package owns their shape.
type PublicPage struct {
	ID              int64           `json:"id"`
	PageID          string          `json:"pageId"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	ShowDescription bool            `json:"showDescription"`
	VisibleColumns  VisibleColumns  `json:"visibleColumns"`
	SearchCriteria  json.RawMessage `json:"searchCriteria,omitempty"`
	SavedCriteria   json.RawMessage `json:"savedSearchCriteria,omitempty"`
	Color           string          `json:"color,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CountPages returns how many public pages the user owns.
func (s *Store) CountPages(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM public_pages WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

// ListPages returns the user's public pages.
func (s *Store) ListPages(ctx context.Context, userID int64) ([]PublicPage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, name, COALESCE(description, ''), show_description,
		       visible_columns, search_criteria, saved_criteria, COALESCE(color, ''),
		       created_at, updated_at
		FROM public_pages
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []PublicPage
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// CreatePage writes a public page with a caller-supplied opaque page id,
// enforcing the free-plan cap.
func (s *Store) CreatePage(ctx context.Context, userID int64, page PublicPage) (PublicPage, error) {
	page.Name = strings.TrimSpace(page.Name)
	if page.Name == "" {
		return PublicPage{}, fmt.Errorf("page name is required")
	}
	if page.PageID == "" {
		return PublicPage{}, fmt.Errorf("page id is required")
	}

	plan, err := s.UserPlan(ctx, userID)
	if err != nil {
		return PublicPage{}, err
	}
	if plan == PlanFree {
		count, err := s.CountPages(ctx, userID)
		if err != nil {
			return PublicPage{}, err
		}
		if count >= FreePlanMaxPages {
			return PublicPage{}, ErrPageLimit
		}
	}

	columnsJSON, err := json.Marshal(page.VisibleColumns)
	if err != nil {
		return PublicPage{}, fmt.Errorf("marshal visible columns: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO public_pages (user_id, page_id, name, description, show_description,
		                          visible_columns, search_criteria, saved_criteria, color,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8::jsonb, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, userID, page.PageID, page.Name, nullIfEmpty(page.Description), page.ShowDescription,
		string(columnsJSON), criteriaJSON(page.SearchCriteria), criteriaJSON(page.SavedCriteria),
		nullIfEmpty(page.Color),
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return PublicPage{}, fmt.Errorf("insert page: %w", err)
	}
	return page, nil
}

// UpdatePage overwrites the mutable page settings.
func (s *Store) UpdatePage(ctx context.Context, userID int64, page PublicPage) (PublicPage, error) {
	page.Name = strings.TrimSpace(page.Name)
	if page.Name == "" {
		return PublicPage{}, fmt.Errorf("page name is required")
	}

	columnsJSON, err := json.Marshal(page.VisibleColumns)
	if err != nil {
		return PublicPage{}, fmt.Errorf("marshal visible columns: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE public_pages
		SET name = $3, description = $4, show_description = $5, visible_columns = $6::jsonb,
		    search_criteria = $7::jsonb, saved_criteria = $8::jsonb, color = $9, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, page.ID, userID, page.Name, nullIfEmpty(page.Description), page.ShowDescription,
		string(columnsJSON), criteriaJSON(page.SearchCriteria), criteriaJSON(page.SavedCriteria),
		nullIfEmpty(page.Color))
	if err != nil {
		return PublicPage{}, fmt.Errorf("update page: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return PublicPage{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return PublicPage{}, ErrPageNotFound
	}
	return page, nil
}

// DeletePage removes a public page.
func (s *Store) DeletePage(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM public_pages WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPageNotFound
	}
	return nil
}

// ResolvePage looks up a page by its opaque id without authentication and
// returns the page plus its owning user id.
func (s *Store) ResolvePage(ctx context.Context, pageID string) (PublicPage, int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, name, COALESCE(description, ''), show_description,
		       visible_columns, search_criteria, saved_criteria, COALESCE(color, ''),
		       created_at, updated_at, user_id
		FROM public_pages
		WHERE page_id = $1
	`, pageID)

	var (
		page        PublicPage
		columnsJSON []byte
		search      sql.NullString
		saved       sql.NullString
		ownerID     int64
	)
	err := row.Scan(&page.ID, &page.PageID, &page.Name, &page.Description, &page.ShowDescription,
		&columnsJSON, &search, &saved, &page.Color, &page.CreatedAt, &page.UpdatedAt, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return PublicPage{}, 0, ErrPageNotFound
	}
	if err != nil {
		return PublicPage{}, 0, fmt.Errorf("resolve page: %w", err)
	}
	if err := json.Unmarshal(columnsJSON, &page.VisibleColumns); err != nil {
		return PublicPage{}, 0, fmt.Errorf("unmarshal visible columns: %w", err)
	}
	if search.Valid {
		page.SearchCriteria = json.RawMessage(search.String)
	}
	if saved.Valid {
		page.SavedCriteria = json.RawMessage(saved.String)
	}
	return page, ownerID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (PublicPage, error) {
	var (
		page        PublicPage
		columnsJSON []byte
		search      sql.NullString
		saved       sql.NullString
	)
	if err := row.Scan(&page.ID, &page.PageID, &page.Name, &page.Description, &page.ShowDescription,
		&columnsJSON, &search, &saved, &page.Color, &page.CreatedAt, &page.UpdatedAt); err != nil {
		return PublicPage{}, fmt.Errorf("scan page: %w", err)
	}
	if err := json.Unmarshal(columnsJSON, &page.VisibleColumns); err != nil {
		return PublicPage{}, fmt.Errorf("unmarshal visible columns: %w", err)
	}
	if search.Valid {
		page.SearchCriteria = json.RawMessage(search.String)
	}
	if saved.Valid {
		page.SavedCriteria = json.RawMessage(saved.String)
	}
	return page, nil
}

func criteriaJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
