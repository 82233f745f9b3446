package httpapi

import (
	"errors"
	"net/http"

	"github.com/harumakino16/setlink/internal/app/imports"
	"github.com/harumakino16/setlink/internal/youtube"
)

// maxCSVUpload caps the multipart form held in memory during a CSV import.
const maxCSVUpload = 10 << 20

type importResponse struct {
	Imported int `json:"imported"`
}

// handleImportCSV accepts a multipart upload with a "file" part and an
// optional "mode" field (replace or append, append by default).
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file part is required"})
		return
	}
	defer file.Close()

	mode := imports.Mode(r.FormValue("mode"))
	if mode == "" {
		mode = imports.ModeAppend
	}

	n, err := s.imports.ImportCSV(r.Context(), userID, file, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: n})
}

func (s *Server) handleImportPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req struct {
		PlaylistID string `json:"playlistId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PlaylistID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "playlistId is required"})
		return
	}

	n, err := s.imports.ImportPlaylist(r.Context(), userID, req.PlaylistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: n})
}

type exportRequest struct {
	Title   string  `json:"title"`
	SongIDs []int64 `json:"songIds"`
}

type exportResponse struct {
	PlaylistID string `json:"playlistId"`
}

func (s *Server) handleExportPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}

	playlistID, err := s.imports.ExportPlaylist(r.Context(), userID, req.Title, req.SongIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResponse{PlaylistID: playlistID})
}

func (s *Server) handleOAuthExchange(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code is required"})
		return
	}

	if err := s.imports.LinkAccount(r.Context(), userID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOAuthStatus(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	linked := true
	if err := s.imports.CheckLink(r.Context(), userID); err != nil {
		if !errors.Is(err, youtube.ErrReauthRequired) {
			writeError(w, err)
			return
		}
		linked = false
	}
	writeJSON(w, http.StatusOK, struct {
		Linked bool `json:"linked"`
	}{Linked: linked})
}

func (s *Server) handleOAuthUnlink(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	if err := s.imports.UnlinkAccount(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
