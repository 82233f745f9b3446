// Package youtube wraps the pieces of the YouTube Data API v3 that Setlink
// needs: reading playlists for import, checking videos before export, and
// creating playlists on the user's channel.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const apiBase = "https://www.googleapis.com/youtube/v3"

var (
	// ErrQuotaExceeded signals the daily API quota ran out.
	ErrQuotaExceeded = errors.New("youtube api quota exceeded")
	// ErrReauthRequired signals the stored credentials are no longer usable.
	ErrReauthRequired = errors.New("youtube re-authentication required")
	// ErrChannelRequired signals the account has no YouTube channel.
	ErrChannelRequired = errors.New("youtube channel required")
	// ErrNotFound signals the referenced playlist or video does not exist.
	ErrNotFound = errors.New("youtube resource not found")
)

// Video is the slice of video metadata Setlink cares about.
type Video struct {
	ID      string
	Title   string
	Channel string
	Private bool
}

// Client talks to the Data API with a caller-supplied bearer token per call.
type Client struct {
	http *resty.Client
}

// NewClient builds a Data API client. baseURL overrides the production
// endpoint in tests; pass "" for the real one.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = apiBase
	}
	return &Client{
		http: resty.New().SetBaseURL(baseURL),
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (e *apiError) classify() error {
	for _, detail := range e.Error.Errors {
		switch detail.Reason {
		case "quotaExceeded", "rateLimitExceeded":
			return ErrQuotaExceeded
		case "authError", "forbidden":
			return ErrReauthRequired
		case "channelNotFound", "youtubeSignupRequired":
			return ErrChannelRequired
		case "playlistNotFound", "videoNotFound", "notFound":
			return ErrNotFound
		}
	}
	return fmt.Errorf("youtube api error %d: %s", e.Error.Code, e.Error.Message)
}

func checkResponse(resp *resty.Response, apiErr *apiError) error {
	if !resp.IsError() {
		return nil
	}
	if apiErr != nil && apiErr.Error.Code != 0 {
		return apiErr.classify()
	}
	return fmt.Errorf("youtube api: unexpected status %s", resp.Status())
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
			VideoOwnerChannelTitle string `json:"videoOwnerChannelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// PlaylistItems pages through every item of a playlist.
func (c *Client) PlaylistItems(ctx context.Context, accessToken, playlistID string) ([]Video, error) {
	var videos []Video
	pageToken := ""
	for {
		var (
			page   playlistItemsResponse
			apiErr apiError
		)
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetQueryParams(map[string]string{
				"part":       "snippet",
				"playlistId": playlistID,
				"maxResults": "50",
				"pageToken":  pageToken,
			}).
			SetResult(&page).
			SetError(&apiErr).
			Get("/playlistItems")
		if err != nil {
			return nil, fmt.Errorf("list playlist items: %w", err)
		}
		if err := checkResponse(resp, &apiErr); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			videos = append(videos, Video{
				ID:      item.Snippet.ResourceID.VideoID,
				Title:   item.Snippet.Title,
				Channel: item.Snippet.VideoOwnerChannelTitle,
			})
		}
		if page.NextPageToken == "" {
			return videos, nil
		}
		pageToken = page.NextPageToken
	}
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	} `json:"items"`
}

// LookupVideos resolves the given ids in batches of 50. Ids that do not come
// back at all are missing; private videos come back flagged.
func (c *Client) LookupVideos(ctx context.Context, accessToken string, videoIDs []string) (map[string]Video, error) {
	found := make(map[string]Video, len(videoIDs))
	for start := 0; start < len(videoIDs); start += 50 {
		end := start + 50
		if end > len(videoIDs) {
			end = len(videoIDs)
		}

		var (
			page   videosResponse
			apiErr apiError
		)
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetQueryParams(map[string]string{
				"part": "snippet,status",
				"id":   strings.Join(videoIDs[start:end], ","),
			}).
			SetResult(&page).
			SetError(&apiErr).
			Get("/videos")
		if err != nil {
			return nil, fmt.Errorf("lookup videos: %w", err)
		}
		if err := checkResponse(resp, &apiErr); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			found[item.ID] = Video{
				ID:      item.ID,
				Title:   item.Snippet.Title,
				Channel: item.Snippet.ChannelTitle,
				Private: item.Status.PrivacyStatus == "private",
			}
		}
	}
	return found, nil
}

type playlistInsertResponse struct {
	ID string `json:"id"`
}

// CreatePlaylist creates an empty playlist on the authorized channel and
// returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, accessToken, title, description string) (string, error) {
	var (
		created playlistInsertResponse
		apiErr  apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("part", "snippet,status").
		SetBody(map[string]interface{}{
			"snippet": map[string]string{
				"title":       title,
				"description": description,
			},
			"status": map[string]string{"privacyStatus": "private"},
		}).
		SetResult(&created).
		SetError(&apiErr).
		Post("/playlists")
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	if err := checkResponse(resp, &apiErr); err != nil {
		return "", err
	}
	return created.ID, nil
}

// InsertPlaylistItem appends one video to a playlist.
func (c *Client) InsertPlaylistItem(ctx context.Context, accessToken, playlistID, videoID string) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("part", "snippet").
		SetBody(map[string]interface{}{
			"snippet": map[string]interface{}{
				"playlistId": playlistID,
				"resourceId": map[string]string{
					"kind":    "youtube#video",
					"videoId": videoID,
				},
			},
		}).
		SetError(&apiErr).
		Post("/playlistItems")
	if err != nil {
		return fmt.Errorf("insert playlist item: %w", err)
	}
	return checkResponse(resp, &apiErr)
}
