package setlists

import (
	"context"
	"fmt"

	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
)

// Store captures the persistence needs of setlist workflows.
type Store interface {
	ListSetlists(ctx context.Context, userID int64) ([]store.Setlist, error)
	GetSetlist(ctx context.Context, userID, setlistID int64) (store.Setlist, error)
	CreateSetlist(ctx context.Context, userID int64, name string, songIDs []int64) (store.Setlist, error)
	RenameSetlist(ctx context.Context, userID, setlistID int64, name string) error
	ReorderSetlistSongs(ctx context.Context, userID, setlistID int64, songIDs []int64) error
	DeleteSetlist(ctx context.Context, userID, setlistID int64) error
	ListSongs(ctx context.Context, userID int64) ([]store.Song, error)
	BumpRandomSetlistCounter(ctx context.Context, userID int64) error
}

// Service coordinates setlist assembly.
type Service interface {
	List(ctx context.Context, userID int64) ([]store.Setlist, error)
	Get(ctx context.Context, userID, setlistID int64) (store.Setlist, error)
	Create(ctx context.Context, userID int64, name string, songIDs []int64) (store.Setlist, error)
	CreateRandom(ctx context.Context, userID int64, name string, criteria songfilter.Criteria, numberOfSongs int) (store.Setlist, error)
	CreateFromCatalog(ctx context.Context, userID int64, name string) (store.Setlist, error)
	Rename(ctx context.Context, userID, setlistID int64, name string) error
	Reorder(ctx context.Context, userID, setlistID int64, songIDs []int64) error
	Delete(ctx context.Context, userID, setlistID int64) error
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, userID int64) ([]store.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListSetlists(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, setlistID int64) (store.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Setlist{}, err
	}
	return s.store.GetSetlist(ctx, userID, setlistID)
}

func (s *service) Create(ctx context.Context, userID int64, name string, songIDs []int64) (store.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Setlist{}, err
	}
	if userID <= 0 {
		return store.Setlist{}, store.ErrUnauthorized
	}
	return s.store.CreateSetlist(ctx, userID, name, songIDs)
}

// CreateRandom assembles a setlist by drawing numberOfSongs entries from the
// filtered catalog, clamped to the pool size.
func (s *service) CreateRandom(ctx context.Context, userID int64, name string, criteria songfilter.Criteria, numberOfSongs int) (store.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Setlist{}, err
	}
	if userID <= 0 {
		return store.Setlist{}, store.ErrUnauthorized
	}
	if numberOfSongs <= 0 {
		return store.Setlist{}, fmt.Errorf("number of songs must be positive")
	}

	songs, err := s.store.ListSongs(ctx, userID)
	if err != nil {
		return store.Setlist{}, err
	}
	pool := songfilter.Apply(songs, criteria)
	if len(pool) == 0 {
		return store.Setlist{}, fmt.Errorf("no songs match the given criteria")
	}

	picked := songfilter.PickRandom(pool, numberOfSongs)
	songIDs := make([]int64, 0, len(picked))
	for _, song := range picked {
		songIDs = append(songIDs, song.ID)
	}

	setlist, err := s.store.CreateSetlist(ctx, userID, name, songIDs)
	if err != nil {
		return store.Setlist{}, err
	}
	if err := s.store.BumpRandomSetlistCounter(ctx, userID); err != nil {
		return store.Setlist{}, err
	}
	return setlist, nil
}

// CreateFromCatalog snapshots the whole catalog in its current order.
func (s *service) CreateFromCatalog(ctx context.Context, userID int64, name string) (store.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return store.Setlist{}, err
	}
	if userID <= 0 {
		return store.Setlist{}, store.ErrUnauthorized
	}
	songs, err := s.store.ListSongs(ctx, userID)
	if err != nil {
		return store.Setlist{}, err
	}
	songIDs := make([]int64, 0, len(songs))
	for _, song := range songs {
		songIDs = append(songIDs, song.ID)
	}
	return s.store.CreateSetlist(ctx, userID, name, songIDs)
}

func (s *service) Rename(ctx context.Context, userID, setlistID int64, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.RenameSetlist(ctx, userID, setlistID, name)
}

func (s *service) Reorder(ctx context.Context, userID, setlistID int64, songIDs []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.ReorderSetlistSongs(ctx, userID, setlistID, songIDs)
}

func (s *service) Delete(ctx context.Context, userID, setlistID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteSetlist(ctx, userID, setlistID)
}
