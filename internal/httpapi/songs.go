package httpapi

import (
	"net/http"

	"github.com/harumakino16/setlink/internal/app/songs"
	"github.com/harumakino16/setlink/internal/store"
)

type songsResponse struct {
	Songs []store.Song `json:"songs"`
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	list, err := s.songs.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Songs: list})
}

func (s *Server) handleSearchSongs(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req songs.SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	matched, err := s.songs.Search(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Songs: matched})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	songID, ok := pathID(w, r)
	if !ok {
		return
	}

	song, err := s.songs.Get(r.Context(), userID, songID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var song store.Song
	if !decodeJSON(w, r, &song) {
		return
	}

	created, err := s.songs.Create(r.Context(), userID, song)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	songID, ok := pathID(w, r)
	if !ok {
		return
	}

	var song store.Song
	if !decodeJSON(w, r, &song) {
		return
	}
	song.ID = songID

	updated, err := s.songs.Update(r.Context(), userID, song)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	songID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.songs.Delete(r.Context(), userID, songID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustCountRequest struct {
	Delta int `json:"delta"`
}

type adjustCountResponse struct {
	SingingCount int `json:"singingCount"`
}

func (s *Server) handleAdjustCount(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	songID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req adjustCountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	count, err := s.songs.AdjustCount(r.Context(), userID, songID, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adjustCountResponse{SingingCount: count})
}

type bulkEditRequest struct {
	SongIDs []int64              `json:"songIds"`
	Fields  store.BulkEditFields `json:"fields"`
}

func (s *Server) handleBulkEditSongs(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req bulkEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.SongIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "songIds is required"})
		return
	}

	if err := s.songs.BulkEdit(r.Context(), userID, req.SongIDs, req.Fields); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
