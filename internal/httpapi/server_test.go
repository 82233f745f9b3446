package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harumakino16/setlink/internal/app/imports"
	"github.com/harumakino16/setlink/internal/app/publicpages"
	"github.com/harumakino16/setlink/internal/app/roulette"
	"github.com/harumakino16/setlink/internal/app/songs"
	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
)

type stubTokenParser struct {
	userID int64
	err    error
}

func (s stubTokenParser) Parse(token string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.userID, nil
}

type stubUserService struct {
	loginToken string
	loginErr   error
	signupErr  error
	profile    store.User
	admin      bool
}

func (s *stubUserService) Signup(context.Context, string, string, string, string, bool) error {
	return s.signupErr
}

func (s *stubUserService) Login(context.Context, string, string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return s.loginToken, nil
}

func (s *stubUserService) Profile(context.Context, int64) (store.User, error) {
	return s.profile, nil
}

func (s *stubUserService) IsAdmin(context.Context, int64) (bool, error) {
	return s.admin, nil
}

type stubSongService struct {
	songs     []store.Song
	single    store.Song
	singleErr error
	created   store.Song
	count     int

	lastSearch songs.SearchRequest
}

func (s *stubSongService) List(context.Context, int64) ([]store.Song, error) {
	return s.songs, nil
}

func (s *stubSongService) Search(_ context.Context, _ int64, req songs.SearchRequest) ([]store.Song, error) {
	s.lastSearch = req
	return s.songs, nil
}

func (s *stubSongService) Get(context.Context, int64, int64) (store.Song, error) {
	if s.singleErr != nil {
		return store.Song{}, s.singleErr
	}
	return s.single, nil
}

func (s *stubSongService) Create(_ context.Context, _ int64, song store.Song) (store.Song, error) {
	s.created = song
	song.ID = 99
	return song, nil
}

func (s *stubSongService) Update(_ context.Context, _ int64, song store.Song) (store.Song, error) {
	return song, nil
}

func (s *stubSongService) Delete(context.Context, int64, int64) error { return nil }

func (s *stubSongService) AdjustCount(context.Context, int64, int64, int) (int, error) {
	return s.count, nil
}

func (s *stubSongService) BulkEdit(context.Context, int64, []int64, store.BulkEditFields) error {
	return nil
}

type stubSetlistService struct {
	setlists []store.Setlist
	single   store.Setlist
	created  store.Setlist
}

func (s *stubSetlistService) List(context.Context, int64) ([]store.Setlist, error) {
	return s.setlists, nil
}

func (s *stubSetlistService) Get(context.Context, int64, int64) (store.Setlist, error) {
	return s.single, nil
}

func (s *stubSetlistService) Create(_ context.Context, _ int64, name string, songIDs []int64) (store.Setlist, error) {
	s.created = store.Setlist{Name: name, SongIDs: songIDs}
	return s.created, nil
}

func (s *stubSetlistService) CreateRandom(_ context.Context, _ int64, name string, _ songfilter.Criteria, n int) (store.Setlist, error) {
	s.created = store.Setlist{Name: name}
	return s.created, nil
}

func (s *stubSetlistService) CreateFromCatalog(_ context.Context, _ int64, name string) (store.Setlist, error) {
	s.created = store.Setlist{Name: name}
	return s.created, nil
}

func (s *stubSetlistService) Rename(context.Context, int64, int64, string) error { return nil }

func (s *stubSetlistService) Reorder(context.Context, int64, int64, []int64) error { return nil }

func (s *stubSetlistService) Delete(context.Context, int64, int64) error { return nil }

type stubPageService struct {
	view    publicpages.PublicView
	viewErr error
}

func (s *stubPageService) List(context.Context, int64) ([]store.PublicPage, error) {
	return nil, nil
}

func (s *stubPageService) Create(_ context.Context, _ int64, page store.PublicPage) (store.PublicPage, error) {
	return page, nil
}

func (s *stubPageService) Update(_ context.Context, _ int64, page store.PublicPage) (store.PublicPage, error) {
	return page, nil
}

func (s *stubPageService) Delete(context.Context, int64, int64) error { return nil }

func (s *stubPageService) Resolve(context.Context, string) (publicpages.PublicView, error) {
	if s.viewErr != nil {
		return publicpages.PublicView{}, s.viewErr
	}
	return s.view, nil
}

type stubRouletteService struct {
	outcome  roulette.Outcome
	spinErr  error
	lastPool []store.Song
	lastName string
	entry    store.RouletteEntry
}

func (s *stubRouletteService) Spin(_ context.Context, _ int64, pool []store.Song, name string) (roulette.Outcome, error) {
	s.lastPool = pool
	s.lastName = name
	if s.spinErr != nil {
		return roulette.Outcome{}, s.spinErr
	}
	return s.outcome, nil
}

func (s *stubRouletteService) Decide(context.Context, int64) (store.RouletteEntry, error) {
	return s.entry, nil
}

func (s *stubRouletteService) Abandon(int64) {}

func (s *stubRouletteService) State(int64) roulette.State { return roulette.StateIdle }

func (s *stubRouletteService) History(context.Context, int64) ([]store.RouletteEntry, error) {
	return nil, nil
}

func (s *stubRouletteService) DeleteHistory(context.Context, int64, int64) error { return nil }

type stubImportService struct {
	imported  int
	importErr error
	lastMode  imports.Mode

	playlistID string
	exportErr  error
}

func (s *stubImportService) ImportCSV(_ context.Context, _ int64, r io.Reader, mode imports.Mode) (int, error) {
	s.lastMode = mode
	if s.importErr != nil {
		return 0, s.importErr
	}
	return s.imported, nil
}

func (s *stubImportService) ImportPlaylist(context.Context, int64, string) (int, error) {
	return s.imported, nil
}

func (s *stubImportService) ExportPlaylist(context.Context, int64, string, []int64) (string, error) {
	if s.exportErr != nil {
		return "", s.exportErr
	}
	return s.playlistID, nil
}

func (s *stubImportService) LinkAccount(context.Context, int64, string) error { return nil }
func (s *stubImportService) CheckLink(context.Context, int64) error           { return nil }
func (s *stubImportService) UnlinkAccount(context.Context, int64) error       { return nil }

type stubFeedbackService struct{}

func (stubFeedbackService) Submit(context.Context, string, string, string) (int64, error) {
	return 1, nil
}

type stubJobService struct {
	snapshot store.MetricsSnapshot
	reset    int
	daily    int
}

func (s *stubJobService) RunDailyKPI(context.Context) (store.MetricsSnapshot, error) {
	s.daily++
	return s.snapshot, nil
}

func (s *stubJobService) RunMonthlyReset(context.Context) (int, error) {
	return s.reset, nil
}

func (s *stubJobService) RunMonthlySummary(context.Context) error { return nil }

type testServer struct {
	users    *stubUserService
	songs    *stubSongService
	setlists *stubSetlistService
	pages    *stubPageService
	roulette *stubRouletteService
	imports  *stubImportService
	jobs     *stubJobService
	handler  http.Handler
}

func newTestServer() *testServer {
	ts := &testServer{
		users:    &stubUserService{loginToken: "token"},
		songs:    &stubSongService{},
		setlists: &stubSetlistService{},
		pages:    &stubPageService{},
		roulette: &stubRouletteService{},
		imports:  &stubImportService{},
		jobs:     &stubJobService{},
	}
	srv := New(ts.users, ts.songs, ts.setlists, ts.pages, ts.roulette, ts.imports,
		stubFeedbackService{}, ts.jobs, stubTokenParser{userID: 42})
	ts.handler = srv.Routes()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer token")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/health", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: "a@b.c", Password: "pw"}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "token" {
		t.Errorf("unexpected token: %q", resp.Token)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	ts := newTestServer()
	ts.users.loginErr = store.ErrInvalidCredentials
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: "a@b.c", Password: "no"}, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSignupConflict(t *testing.T) {
	ts := newTestServer()
	ts.users.signupErr = store.ErrUserExists
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", signupRequest{Email: "a@b.c", Password: "pw"}, false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestListSongsRequiresAuth(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/v1/songs", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSearchSongs(t *testing.T) {
	ts := newTestServer()
	ts.songs.songs = []store.Song{{ID: 1, Title: "残酷な天使のテーゼ"}}

	req := songs.SearchRequest{Criteria: songfilter.Criteria{FreeKeyword: "テーゼ"}}
	rec := ts.do(t, http.MethodPost, "/api/v1/songs/search", req, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ts.songs.lastSearch.Criteria.FreeKeyword != "テーゼ" {
		t.Errorf("criteria not forwarded: %+v", ts.songs.lastSearch)
	}

	var resp songsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Songs) != 1 {
		t.Errorf("expected 1 song, got %d", len(resp.Songs))
	}
}

func TestGetSongNotFound(t *testing.T) {
	ts := newTestServer()
	ts.songs.singleErr = store.ErrSongNotFound
	rec := ts.do(t, http.MethodGet, "/api/v1/songs/5", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateSongOverLimit(t *testing.T) {
	ts := newTestServer()
	ts.songs.singleErr = nil
	srv := New(ts.users, limitSongService{ts.songs}, ts.setlists, ts.pages, ts.roulette, ts.imports,
		stubFeedbackService{}, ts.jobs, stubTokenParser{userID: 42})
	ts.handler = srv.Routes()

	rec := ts.do(t, http.MethodPost, "/api/v1/songs", store.Song{Title: "x"}, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

type limitSongService struct{ *stubSongService }

func (limitSongService) Create(context.Context, int64, store.Song) (store.Song, error) {
	return store.Song{}, store.ErrSongLimit
}

func TestSpinFromSetlist(t *testing.T) {
	ts := newTestServer()
	ts.songs.songs = []store.Song{{ID: 1, Title: "one"}, {ID: 2, Title: "two"}, {ID: 3, Title: "three"}}
	ts.setlists.single = store.Setlist{ID: 7, Name: "配信セトリ", SongIDs: []int64{3, 1}}
	ts.roulette.outcome = roulette.Outcome{Result: store.Song{ID: 3, Title: "three"}}

	rec := ts.do(t, http.MethodPost, "/api/v1/roulette/spin", spinRequest{SetlistID: 7}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if len(ts.roulette.lastPool) != 2 {
		t.Fatalf("expected pool of 2, got %d", len(ts.roulette.lastPool))
	}
	if ts.roulette.lastPool[0].ID != 3 || ts.roulette.lastPool[1].ID != 1 {
		t.Errorf("pool should follow setlist order: %+v", ts.roulette.lastPool)
	}
	if ts.roulette.lastName != "配信セトリ" {
		t.Errorf("setlist name not forwarded: %q", ts.roulette.lastName)
	}
}

func TestSpinEmptyPool(t *testing.T) {
	ts := newTestServer()
	ts.roulette.spinErr = roulette.ErrNoSongs
	rec := ts.do(t, http.MethodPost, "/api/v1/roulette/spin", spinRequest{}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDecideWithoutResult(t *testing.T) {
	ts := newTestServer()
	srv := New(ts.users, ts.songs, ts.setlists, ts.pages, noResultRoulette{ts.roulette}, ts.imports,
		stubFeedbackService{}, ts.jobs, stubTokenParser{userID: 42})
	ts.handler = srv.Routes()

	rec := ts.do(t, http.MethodPost, "/api/v1/roulette/decide", nil, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

type noResultRoulette struct{ *stubRouletteService }

func (noResultRoulette) Decide(context.Context, int64) (store.RouletteEntry, error) {
	return store.RouletteEntry{}, roulette.ErrNoResult
}

func TestExportValidationFailure(t *testing.T) {
	ts := newTestServer()
	ts.imports.exportErr = &imports.ValidationError{
		Positions: []int{2},
		Reasons:   map[int]string{2: "video not found"},
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/export/youtube", exportRequest{Title: "t", SongIDs: []int64{1, 2, 3}}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected an error message naming the failing position")
	}
}

func TestImportCSVMultipart(t *testing.T) {
	ts := newTestServer()
	ts.imports.imported = 3

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "songs.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("title,furigana,artist\n"))
	form.WriteField("mode", "replace")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/csv", &buf)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ts.imports.lastMode != imports.ModeReplace {
		t.Errorf("mode not forwarded: %q", ts.imports.lastMode)
	}
}

func TestPublicPage(t *testing.T) {
	ts := newTestServer()
	ts.pages.view = publicpages.PublicView{Name: "うたのリスト", Songs: []store.Song{{Title: "one"}}}

	rec := ts.do(t, http.MethodGet, "/public/abc-123", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view publicpages.PublicView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Name != "うたのリスト" || len(view.Songs) != 1 {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestPublicPageNotFound(t *testing.T) {
	ts := newTestServer()
	ts.pages.viewErr = store.ErrPageNotFound
	rec := ts.do(t, http.MethodGet, "/public/missing", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminJobRequiresAdmin(t *testing.T) {
	ts := newTestServer()
	ts.users.admin = false
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/jobs/daily-kpi", nil, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if ts.jobs.daily != 0 {
		t.Error("job must not run for non-admins")
	}
}

func TestAdminJobRuns(t *testing.T) {
	ts := newTestServer()
	ts.users.admin = true
	ts.jobs.snapshot = store.MetricsSnapshot{Date: "2026-08-31", MAU: 10}

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/jobs/daily-kpi", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ts.jobs.daily != 1 {
		t.Errorf("expected 1 job run, got %d", ts.jobs.daily)
	}
}

func TestInvalidToken(t *testing.T) {
	ts := newTestServer()
	srv := New(ts.users, ts.songs, ts.setlists, ts.pages, ts.roulette, ts.imports,
		stubFeedbackService{}, ts.jobs, stubTokenParser{err: errors.New("expired")})
	ts.handler = srv.Routes()

	rec := ts.do(t, http.MethodGet, "/api/v1/songs", nil, true)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
