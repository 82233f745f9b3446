// Package imports moves songs in and out of the catalog: CSV files in,
// YouTube playlists in both directions.
package imports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/harumakino16/setlink/internal/store"
	"github.com/harumakino16/setlink/internal/youtube"
)

// Mode selects how a CSV import treats the existing catalog.
type Mode string

const (
	// ModeReplace deletes every existing song before inserting.
	ModeReplace Mode = "replace"
	// ModeAppend inserts on top of the catalog, subject to the plan cap.
	ModeAppend Mode = "append"
)

// ErrNoVideos is returned when an export has nothing to validate.
var ErrNoVideos = errors.New("no videos to export")

// ValidationError lists the 1-based positions of export entries that failed
// the pre-flight video check. When it is returned, nothing was created.
type ValidationError struct {
	Positions []int
	Reasons   map[int]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Positions))
	for _, pos := range e.Positions {
		parts = append(parts, fmt.Sprintf("%d (%s)", pos, e.Reasons[pos]))
	}
	return "invalid videos at: " + strings.Join(parts, ", ")
}

// Store captures the persistence needs of imports and exports.
type Store interface {
	ReplaceSongs(ctx context.Context, userID int64, songs []store.Song) error
	AppendSongs(ctx context.Context, userID int64, songs []store.Song) error
	ListSongs(ctx context.Context, userID int64) ([]store.Song, error)
	YouTubeRefreshToken(ctx context.Context, userID int64) (string, error)
	SaveYouTubeRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	BumpExportCounter(ctx context.Context, userID int64) error
}

// VideoAPI is the slice of the YouTube client used here.
type VideoAPI interface {
	PlaylistItems(ctx context.Context, accessToken, playlistID string) ([]youtube.Video, error)
	LookupVideos(ctx context.Context, accessToken string, videoIDs []string) (map[string]youtube.Video, error)
	CreatePlaylist(ctx context.Context, accessToken, title, description string) (string, error)
	InsertPlaylistItem(ctx context.Context, accessToken, playlistID, videoID string) error
}

// TokenRefresher handles the OAuth side of the YouTube link.
type TokenRefresher interface {
	ExchangeCode(ctx context.Context, code string) (youtube.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (youtube.Tokens, error)
}

// Service runs import and export workflows.
type Service struct {
	store  Store
	videos VideoAPI
	oauth  TokenRefresher
}

// New wires the import service.
func New(store Store, videos VideoAPI, oauth TokenRefresher) *Service {
	return &Service{store: store, videos: videos, oauth: oauth}
}

// ImportCSV parses and writes a catalog CSV. Returns how many songs landed.
func (s *Service) ImportCSV(ctx context.Context, userID int64, r io.Reader, mode Mode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	songs, err := ParseSongsCSV(r)
	if err != nil {
		return 0, err
	}

	switch mode {
	case ModeReplace:
		err = s.store.ReplaceSongs(ctx, userID, songs)
	case ModeAppend:
		err = s.store.AppendSongs(ctx, userID, songs)
	default:
		return 0, fmt.Errorf("unknown import mode %q", mode)
	}
	if err != nil {
		return 0, err
	}
	return len(songs), nil
}

// ImportPlaylist appends the videos of a YouTube playlist as songs.
func (s *Service) ImportPlaylist(ctx context.Context, userID int64, playlistID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	accessToken, err := s.accessToken(ctx, userID)
	if err != nil {
		return 0, err
	}

	videos, err := s.videos.PlaylistItems(ctx, accessToken, playlistID)
	if err != nil {
		return 0, err
	}

	songs := make([]store.Song, 0, len(videos))
	for _, v := range videos {
		if v.ID == "" {
			continue
		}
		songs = append(songs, store.Song{
			Title:      v.Title,
			Artist:     v.Channel,
			YouTubeURL: youtube.WatchURL(v.ID),
		})
	}
	if len(songs) == 0 {
		return 0, nil
	}
	if err := s.store.AppendSongs(ctx, userID, songs); err != nil {
		return 0, err
	}
	return len(songs), nil
}

// ExportPlaylist creates a YouTube playlist from the given songs. Every
// video id is validated first; on any failure the playlist is never created,
// so a half-populated playlist cannot exist.
func (s *Service) ExportPlaylist(ctx context.Context, userID int64, title string, songIDs []int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	catalog, err := s.store.ListSongs(ctx, userID)
	if err != nil {
		return "", err
	}
	byID := make(map[int64]store.Song, len(catalog))
	for _, song := range catalog {
		byID[song.ID] = song
	}

	videoIDs := make([]string, 0, len(songIDs))
	reasons := map[int]string{}
	for i, songID := range songIDs {
		song, ok := byID[songID]
		if !ok {
			reasons[i+1] = "song not found"
			videoIDs = append(videoIDs, "")
			continue
		}
		videoID := youtube.VideoIDFromURL(song.YouTubeURL)
		if videoID == "" {
			reasons[i+1] = "no video link"
		}
		videoIDs = append(videoIDs, videoID)
	}
	if len(videoIDs) == 0 {
		return "", ErrNoVideos
	}

	accessToken, err := s.accessToken(ctx, userID)
	if err != nil {
		return "", err
	}

	lookup := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		if id != "" {
			lookup = append(lookup, id)
		}
	}
	found, err := s.videos.LookupVideos(ctx, accessToken, lookup)
	if err != nil {
		return "", err
	}

	for i, videoID := range videoIDs {
		if videoID == "" {
			continue
		}
		video, ok := found[videoID]
		if !ok {
			reasons[i+1] = "video not found"
			continue
		}
		if video.Private {
			reasons[i+1] = "video is private"
		}
	}

	if len(reasons) > 0 {
		valErr := &ValidationError{Reasons: reasons}
		for pos := range reasons {
			valErr.Positions = append(valErr.Positions, pos)
		}
		sort.Ints(valErr.Positions)
		return "", valErr
	}

	playlistID, err := s.videos.CreatePlaylist(ctx, accessToken, title, "")
	if err != nil {
		return "", err
	}
	for _, videoID := range videoIDs {
		if err := s.videos.InsertPlaylistItem(ctx, accessToken, playlistID, videoID); err != nil {
			return "", fmt.Errorf("insert video %s: %w", videoID, err)
		}
	}

	if err := s.store.BumpExportCounter(ctx, userID); err != nil {
		return "", err
	}
	return playlistID, nil
}

// LinkAccount trades an OAuth authorization code for tokens and stores the
// refresh token against the user.
func (s *Service) LinkAccount(ctx context.Context, userID int64, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tokens, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	if tokens.RefreshToken == "" {
		return youtube.ErrReauthRequired
	}
	return s.store.SaveYouTubeRefreshToken(ctx, userID, tokens.RefreshToken)
}

// CheckLink verifies the stored refresh token still yields an access token.
func (s *Service) CheckLink(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.accessToken(ctx, userID)
	return err
}

// UnlinkAccount discards the stored refresh token.
func (s *Service) UnlinkAccount(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.SaveYouTubeRefreshToken(ctx, userID, "")
}

func (s *Service) accessToken(ctx context.Context, userID int64) (string, error) {
	refreshToken, err := s.store.YouTubeRefreshToken(ctx, userID)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", youtube.ErrReauthRequired
	}
	tokens, err := s.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return tokens.AccessToken, nil
}
