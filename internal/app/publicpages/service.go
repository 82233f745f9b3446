package publicpages

import (
	"context"

	"github.com/google/uuid"

	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
)

// Store captures the persistence needs of public-page workflows.
type Store interface {
	ListPages(ctx context.Context, userID int64) ([]store.PublicPage, error)
	CreatePage(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error)
	UpdatePage(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error)
	DeletePage(ctx context.Context, userID, id int64) error
	ResolvePage(ctx context.Context, pageID string) (store.PublicPage, int64, error)
	ListSongs(ctx context.Context, userID int64) ([]store.Song, error)
}

// PublicView is what an unauthenticated visitor sees: the page settings and
// the owner's catalog, narrowed by the saved criteria and stripped down to
// the visible columns.
type PublicView struct {
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	ShowDescription bool                 `json:"showDescription"`
	VisibleColumns  store.VisibleColumns `json:"visibleColumns"`
	Color           string               `json:"color,omitempty"`
	Songs           []store.Song         `json:"songs"`
}

// Service coordinates public-page curation and resolution.
type Service interface {
	List(ctx context.Context, userID int64) ([]store.PublicPage, error)
	Create(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error)
	Update(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error)
	Delete(ctx context.Context, userID, id int64) error
	Resolve(ctx context.Context, pageID string) (PublicView, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, userID int64) ([]store.PublicPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListPages(ctx, userID)
}

func (s *service) Create(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error) {
	if err := ctx.Err(); err != nil {
		return store.PublicPage{}, err
	}
	page.PageID = uuid.NewString()
	if page.VisibleColumns == (store.VisibleColumns{}) {
		page.VisibleColumns = store.DefaultVisibleColumns()
	}
	return s.store.CreatePage(ctx, userID, page)
}

func (s *service) Update(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error) {
	if err := ctx.Err(); err != nil {
		return store.PublicPage{}, err
	}
	return s.store.UpdatePage(ctx, userID, page)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeletePage(ctx, userID, id)
}

// Resolve renders the read-only view for /public/{pageId}.
func (s *service) Resolve(ctx context.Context, pageID string) (PublicView, error) {
	if err := ctx.Err(); err != nil {
		return PublicView{}, err
	}

	page, ownerID, err := s.store.ResolvePage(ctx, pageID)
	if err != nil {
		return PublicView{}, err
	}

	criteria, err := songfilter.ParseCriteria(page.SavedCriteria)
	if err != nil {
		return PublicView{}, err
	}

	songs, err := s.store.ListSongs(ctx, ownerID)
	if err != nil {
		return PublicView{}, err
	}

	matched := songfilter.Apply(songs, criteria)
	for i := range matched {
		matched[i] = stripHiddenColumns(matched[i], page.VisibleColumns)
	}

	view := PublicView{
		Name:            page.Name,
		ShowDescription: page.ShowDescription,
		VisibleColumns:  page.VisibleColumns,
		Color:           page.Color,
		Songs:           matched,
	}
	if page.ShowDescription {
		view.Description = page.Description
	}
	return view, nil
}

// stripHiddenColumns blanks fields the page does not expose. Memo and note
// are private annotations, so note never leaves the owner's view at all.
func stripHiddenColumns(song store.Song, cols store.VisibleColumns) store.Song {
	song.Note = ""
	if !cols.Artist {
		song.Artist = ""
	}
	if !cols.Genre {
		song.Genre = ""
	}
	if !cols.Tags {
		song.Tags = nil
	}
	if !cols.SingingCount {
		song.SingingCount = 0
	}
	if !cols.SkillLevel {
		song.SkillLevel = 0
	}
	if !cols.Memo {
		song.Memo = ""
	}
	if !cols.YouTubeURL {
		song.YouTubeURL = ""
	}
	return song
}
