// Package httpapi wires the HTTP surface to the application services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/harumakino16/setlink/internal/app/imports"
	"github.com/harumakino16/setlink/internal/app/publicpages"
	"github.com/harumakino16/setlink/internal/app/roulette"
	"github.com/harumakino16/setlink/internal/app/songs"
	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
	"github.com/harumakino16/setlink/internal/youtube"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, email, password, displayName, signupSource string, adAttributed bool) error
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, userID int64) (store.User, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// SongService coordinates catalog operations.
type SongService interface {
	List(ctx context.Context, userID int64) ([]store.Song, error)
	Search(ctx context.Context, userID int64, req songs.SearchRequest) ([]store.Song, error)
	Get(ctx context.Context, userID, songID int64) (store.Song, error)
	Create(ctx context.Context, userID int64, song store.Song) (store.Song, error)
	Update(ctx context.Context, userID int64, song store.Song) (store.Song, error)
	Delete(ctx context.Context, userID, songID int64) error
	AdjustCount(ctx context.Context, userID, songID int64, delta int) (int, error)
	BulkEdit(ctx context.Context, userID int64, songIDs []int64, fields store.BulkEditFields) error
}

// SetlistService coordinates setlist assembly.
type SetlistService interface {
	List(ctx context.Context, userID int64) ([]store.Setlist, error)
	Get(ctx context.Context, userID, setlistID int64) (store.Setlist, error)
	Create(ctx context.Context, userID int64, name string, songIDs []int64) (store.Setlist, error)
	CreateRandom(ctx context.Context, userID int64, name string, criteria songfilter.Criteria, numberOfSongs int) (store.Setlist, error)
	CreateFromCatalog(ctx context.Context, userID int64, name string) (store.Setlist, error)
	Rename(ctx context.Context, userID, setlistID int64, name string) error
	Reorder(ctx context.Context, userID, setlistID int64, songIDs []int64) error
	Delete(ctx context.Context, userID, setlistID int64) error
}

// PageService coordinates public song pages.
type PageService interface {
	List(ctx context.Context, userID int64) ([]store.PublicPage, error)
	Create(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error)
	Update(ctx context.Context, userID int64, page store.PublicPage) (store.PublicPage, error)
	Delete(ctx context.Context, userID, id int64) error
	Resolve(ctx context.Context, pageID string) (publicpages.PublicView, error)
}

// RouletteService runs the song picker state machine.
type RouletteService interface {
	Spin(ctx context.Context, userID int64, songs []store.Song, setlistName string) (roulette.Outcome, error)
	Decide(ctx context.Context, userID int64) (store.RouletteEntry, error)
	Abandon(userID int64)
	State(userID int64) roulette.State
	History(ctx context.Context, userID int64) ([]store.RouletteEntry, error)
	DeleteHistory(ctx context.Context, userID, entryID int64) error
}

// ImportService moves songs in and out of the catalog.
type ImportService interface {
	ImportCSV(ctx context.Context, userID int64, r io.Reader, mode imports.Mode) (int, error)
	ImportPlaylist(ctx context.Context, userID int64, playlistID string) (int, error)
	ExportPlaylist(ctx context.Context, userID int64, title string, songIDs []int64) (string, error)
	LinkAccount(ctx context.Context, userID int64, code string) error
	CheckLink(ctx context.Context, userID int64) error
	UnlinkAccount(ctx context.Context, userID int64) error
}

// FeedbackService records user-submitted feedback.
type FeedbackService interface {
	Submit(ctx context.Context, email, category, message string) (int64, error)
}

// JobService triggers the scheduled aggregation jobs on demand.
type JobService interface {
	RunDailyKPI(ctx context.Context) (store.MetricsSnapshot, error)
	RunMonthlyReset(ctx context.Context) (int, error)
	RunMonthlySummary(ctx context.Context) error
}

// TokenParser validates a session token and yields the user id.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users    UserService
	songs    SongService
	setlists SetlistService
	pages    PageService
	roulette RouletteService
	imports  ImportService
	feedback FeedbackService
	jobs     JobService
	tokens   TokenParser
}

// New configures a Server over the given services.
func New(
	users UserService,
	songs SongService,
	setlists SetlistService,
	pages PageService,
	roulette RouletteService,
	imports ImportService,
	feedback FeedbackService,
	jobs JobService,
	tokens TokenParser,
) *Server {
	return &Server{
		users:    users,
		songs:    songs,
		setlists: setlists,
		pages:    pages,
		roulette: roulette,
		imports:  imports,
		feedback: feedback,
		jobs:     jobs,
		tokens:   tokens,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/v1/users/profile", s.handleProfile)

	mux.HandleFunc("GET /api/v1/songs", s.handleListSongs)
	mux.HandleFunc("POST /api/v1/songs", s.handleCreateSong)
	mux.HandleFunc("POST /api/v1/songs/search", s.handleSearchSongs)
	mux.HandleFunc("POST /api/v1/songs/bulk", s.handleBulkEditSongs)
	mux.HandleFunc("GET /api/v1/songs/{id}", s.handleGetSong)
	mux.HandleFunc("PUT /api/v1/songs/{id}", s.handleUpdateSong)
	mux.HandleFunc("DELETE /api/v1/songs/{id}", s.handleDeleteSong)
	mux.HandleFunc("POST /api/v1/songs/{id}/count", s.handleAdjustCount)

	mux.HandleFunc("GET /api/v1/setlists", s.handleListSetlists)
	mux.HandleFunc("POST /api/v1/setlists", s.handleCreateSetlist)
	mux.HandleFunc("POST /api/v1/setlists/random", s.handleCreateRandomSetlist)
	mux.HandleFunc("GET /api/v1/setlists/{id}", s.handleGetSetlist)
	mux.HandleFunc("PUT /api/v1/setlists/{id}", s.handleRenameSetlist)
	mux.HandleFunc("PUT /api/v1/setlists/{id}/songs", s.handleReorderSetlist)
	mux.HandleFunc("DELETE /api/v1/setlists/{id}", s.handleDeleteSetlist)

	mux.HandleFunc("GET /api/v1/pages", s.handleListPages)
	mux.HandleFunc("POST /api/v1/pages", s.handleCreatePage)
	mux.HandleFunc("PUT /api/v1/pages/{id}", s.handleUpdatePage)
	mux.HandleFunc("DELETE /api/v1/pages/{id}", s.handleDeletePage)
	mux.HandleFunc("GET /public/{pageId}", s.handlePublicPage)

	mux.HandleFunc("POST /api/v1/roulette/spin", s.handleSpin)
	mux.HandleFunc("POST /api/v1/roulette/decide", s.handleDecide)
	mux.HandleFunc("POST /api/v1/roulette/abandon", s.handleAbandon)
	mux.HandleFunc("GET /api/v1/roulette/state", s.handleRouletteState)
	mux.HandleFunc("GET /api/v1/roulette/history", s.handleRouletteHistory)
	mux.HandleFunc("DELETE /api/v1/roulette/history/{id}", s.handleDeleteRouletteEntry)

	mux.HandleFunc("POST /api/v1/import/csv", s.handleImportCSV)
	mux.HandleFunc("POST /api/v1/import/youtube", s.handleImportPlaylist)
	mux.HandleFunc("POST /api/v1/export/youtube", s.handleExportPlaylist)
	mux.HandleFunc("POST /api/v1/youtube/oauth/exchange", s.handleOAuthExchange)
	mux.HandleFunc("GET /api/v1/youtube/oauth/status", s.handleOAuthStatus)
	mux.HandleFunc("DELETE /api/v1/youtube/oauth", s.handleOAuthUnlink)

	mux.HandleFunc("POST /api/v1/feedback", s.handleFeedback)

	mux.HandleFunc("POST /api/v1/admin/jobs/daily-kpi", s.handleDailyKPIJob)
	mux.HandleFunc("POST /api/v1/admin/jobs/monthly-reset", s.handleMonthlyResetJob)
	mux.HandleFunc("POST /api/v1/admin/jobs/monthly-summary", s.handleMonthlySummaryJob)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

// authUserID resolves the bearer token to a user id. A zero return means the
// response has already been written.
func (s *Server) authUserID(w http.ResponseWriter, r *http.Request) int64 {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return 0
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return 0
	}
	return userID
}

// authAdmin is authUserID plus an admin check.
func (s *Server) authAdmin(w http.ResponseWriter, r *http.Request) int64 {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return 0
	}
	admin, err := s.users.IsAdmin(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return 0
	}
	if !admin {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin access required"})
		return 0
	}
	return userID
}

// writeError maps known service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var valErr *imports.ValidationError
	switch {
	case errors.Is(err, store.ErrInvalidCredentials), errors.Is(err, store.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrSongNotFound),
		errors.Is(err, store.ErrSetlistNotFound),
		errors.Is(err, store.ErrPageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrSongLimit),
		errors.Is(err, store.ErrSetlistLimit),
		errors.Is(err, store.ErrPageLimit):
		status = http.StatusForbidden
	case errors.Is(err, youtube.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, youtube.ErrReauthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, roulette.ErrNoSongs), errors.As(err, &valErr):
		status = http.StatusBadRequest
	case errors.Is(err, roulette.ErrNoResult):
		status = http.StatusConflict
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id parameter"})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return false
	}
	return true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
