package httpapi

import (
	"net/http"

	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
)

type setlistsResponse struct {
	Setlists []store.Setlist `json:"setlists"`
}

type createSetlistRequest struct {
	Name        string  `json:"name"`
	SongIDs     []int64 `json:"songIds"`
	FullCatalog bool    `json:"fullCatalog"`
}

type randomSetlistRequest struct {
	Name          string              `json:"name"`
	Criteria      songfilter.Criteria `json:"criteria"`
	NumberOfSongs int                 `json:"numberOfSongs"`
}

func (s *Server) handleListSetlists(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	list, err := s.setlists.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setlistsResponse{Setlists: list})
}

func (s *Server) handleGetSetlist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	setlistID, ok := pathID(w, r)
	if !ok {
		return
	}

	setlist, err := s.setlists.Get(r.Context(), userID, setlistID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setlist)
}

func (s *Server) handleCreateSetlist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req createSetlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		created store.Setlist
		err     error
	)
	if req.FullCatalog {
		created, err = s.setlists.CreateFromCatalog(r.Context(), userID, req.Name)
	} else {
		created, err = s.setlists.Create(r.Context(), userID, req.Name, req.SongIDs)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreateRandomSetlist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req randomSetlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := s.setlists.CreateRandom(r.Context(), userID, req.Name, req.Criteria, req.NumberOfSongs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRenameSetlist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	setlistID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.setlists.Rename(r.Context(), userID, setlistID, req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderSetlist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	setlistID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		SongIDs []int64 `json:"songIds"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.setlists.Reorder(r.Context(), userID, setlistID, req.SongIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSetlist(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	setlistID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.setlists.Delete(r.Context(), userID, setlistID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
