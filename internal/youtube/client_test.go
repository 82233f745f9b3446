package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPlaylistItemsFollowsPages(t *testing.T) {
	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlistItems" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		tokens = append(tokens, r.URL.Query().Get("pageToken"))

		page := map[string]interface{}{
			"items": []map[string]interface{}{
				{"snippet": map[string]interface{}{
					"title":                  "Song " + r.URL.Query().Get("pageToken"),
					"resourceId":             map[string]string{"videoId": "vid-" + r.URL.Query().Get("pageToken")},
					"videoOwnerChannelTitle": "Channel",
				}},
			},
		}
		if r.URL.Query().Get("pageToken") == "" {
			page["nextPageToken"] = "p2"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	videos, err := NewClient(srv.URL).PlaylistItems(context.Background(), "tok", "PL123")
	if err != nil {
		t.Fatalf("PlaylistItems error: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != "vid-" || videos[1].ID != "vid-p2" {
		t.Fatalf("unexpected video ids: %+v", videos)
	}
	if len(tokens) != 2 || tokens[1] != "p2" {
		t.Fatalf("expected second request with pageToken p2, got %v", tokens)
	}
}

func TestLookupVideosFlagsPrivateAndMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "aaa,bbb,ccc" {
			t.Errorf("unexpected id param %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"id":      "aaa",
					"snippet": map[string]string{"title": "A", "channelTitle": "Ch"},
					"status":  map[string]string{"privacyStatus": "public"},
				},
				{
					"id":      "bbb",
					"snippet": map[string]string{"title": "B", "channelTitle": "Ch"},
					"status":  map[string]string{"privacyStatus": "private"},
				},
			},
		})
	}))
	defer srv.Close()

	found, err := NewClient(srv.URL).LookupVideos(context.Background(), "tok", []string{"aaa", "bbb", "ccc"})
	if err != nil {
		t.Fatalf("LookupVideos error: %v", err)
	}
	if found["aaa"].Private {
		t.Error("aaa should be public")
	}
	if !found["bbb"].Private {
		t.Error("bbb should be private")
	}
	if _, ok := found["ccc"]; ok {
		t.Error("ccc should be missing")
	}
}

func TestCreatePlaylistClassifiesQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    403,
				"message": "quota",
				"errors":  []map[string]string{{"reason": "quotaExceeded"}},
			},
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreatePlaylist(context.Background(), "tok", "title", "")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestInsertPlaylistItemSendsResource(t *testing.T) {
	var body struct {
		Snippet struct {
			PlaylistID string `json:"playlistId"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "item1"})
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).InsertPlaylistItem(context.Background(), "tok", "PL123", "vid9"); err != nil {
		t.Fatalf("InsertPlaylistItem error: %v", err)
	}
	if body.Snippet.PlaylistID != "PL123" || body.Snippet.ResourceID.VideoID != "vid9" {
		t.Fatalf("unexpected request body: %+v", body)
	}
}

func TestVideoIDFromURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123", "abc123"},
		{"https://youtu.be/XyZ_9", "XyZ_9"},
		{"https://m.youtube.com/watch?v=mob1", "mob1"},
		{"https://www.youtube.com/shorts/sh0rt/extra", "sh0rt"},
		{"https://www.youtube.com/embed/emb3d", "emb3d"},
		{"https://www.youtube.com/live/l1ve", "l1ve"},
		{"https://example.com/watch?v=nope", ""},
		{"not a url at all ::", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := VideoIDFromURL(tc.raw); got != tc.want {
			t.Errorf("VideoIDFromURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
