package songs

import (
	"context"

	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
)

// Store captures the persistence needs of song workflows.
type Store interface {
	ListSongs(ctx context.Context, userID int64) ([]store.Song, error)
	GetSong(ctx context.Context, userID, songID int64) (store.Song, error)
	CreateSong(ctx context.Context, userID int64, song store.Song) (store.Song, error)
	UpdateSong(ctx context.Context, userID int64, song store.Song) (store.Song, error)
	DeleteSong(ctx context.Context, userID, songID int64) error
	AdjustSingingCount(ctx context.Context, userID, songID int64, delta int) (int, error)
	BulkEditSongs(ctx context.Context, userID int64, songIDs []int64, fields store.BulkEditFields) error
}

// SearchRequest couples filter criteria with an optional display sort.
type SearchRequest struct {
	Criteria songfilter.Criteria `json:"criteria"`
	SortKey  songfilter.SortKey  `json:"sortKey,omitempty"`
	SortDesc bool                `json:"sortDesc,omitempty"`
}

// Service exposes song-centric operations.
type Service interface {
	List(ctx context.Context, userID int64) ([]store.Song, error)
	Search(ctx context.Context, userID int64, req SearchRequest) ([]store.Song, error)
	Get(ctx context.Context, userID, songID int64) (store.Song, error)
	Create(ctx context.Context, userID int64, song store.Song) (store.Song, error)
	Update(ctx context.Context, userID int64, song store.Song) (store.Song, error)
	Delete(ctx context.Context, userID, songID int64) error
	AdjustCount(ctx context.Context, userID, songID int64, delta int) (int, error)
	BulkEdit(ctx context.Context, userID int64, songIDs []int64, fields store.BulkEditFields) error
}

type service struct {
	store Store
}

// New constructs a song Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, userID int64) ([]store.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListSongs(ctx, userID)
}

// Search loads the full catalog and narrows it in memory. The catalog is
// small enough per user that a linear pass beats maintaining search indexes.
func (s *service) Search(ctx context.Context, userID int64, req SearchRequest) ([]store.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	songs, err := s.store.ListSongs(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched := songfilter.Apply(songs, req.Criteria)
	if req.SortKey != "" {
		songfilter.Sort(matched, req.SortKey, req.SortDesc)
	}
	return matched, nil
}

func (s *service) Get(ctx context.Context, userID, songID int64) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}
	return s.store.GetSong(ctx, userID, songID)
}

func (s *service) Create(ctx context.Context, userID int64, song store.Song) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}
	return s.store.CreateSong(ctx, userID, song)
}

func (s *service) Update(ctx context.Context, userID int64, song store.Song) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}
	return s.store.UpdateSong(ctx, userID, song)
}

func (s *service) Delete(ctx context.Context, userID, songID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteSong(ctx, userID, songID)
}

func (s *service) AdjustCount(ctx context.Context, userID, songID int64, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.AdjustSingingCount(ctx, userID, songID, delta)
}

func (s *service) BulkEdit(ctx context.Context, userID int64, songIDs []int64, fields store.BulkEditFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.BulkEditSongs(ctx, userID, songIDs, fields)
}
