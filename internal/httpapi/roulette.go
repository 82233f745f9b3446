package httpapi

import (
	"net/http"

	"github.com/harumakino16/setlink/internal/app/songs"
	"github.com/harumakino16/setlink/internal/songfilter"
	"github.com/harumakino16/setlink/internal/store"
)

type spinRequest struct {
	SetlistID int64               `json:"setlistId,omitempty"`
	Criteria  songfilter.Criteria `json:"criteria,omitempty"`
}

// handleSpin assembles a candidate pool, either a saved setlist or the
// filtered catalog, and runs the tick cycle over it.
func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var req spinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pool, setlistName, err := s.spinPool(r, userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := s.roulette.Spin(r.Context(), userID, pool, setlistName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) spinPool(r *http.Request, userID int64, req spinRequest) ([]store.Song, string, error) {
	if req.SetlistID == 0 {
		pool, err := s.songs.Search(r.Context(), userID, songs.SearchRequest{Criteria: req.Criteria})
		return pool, "", err
	}

	setlist, err := s.setlists.Get(r.Context(), userID, req.SetlistID)
	if err != nil {
		return nil, "", err
	}
	catalog, err := s.songs.List(r.Context(), userID)
	if err != nil {
		return nil, "", err
	}

	byID := make(map[int64]store.Song, len(catalog))
	for _, song := range catalog {
		byID[song.ID] = song
	}
	pool := make([]store.Song, 0, len(setlist.SongIDs))
	for _, id := range setlist.SongIDs {
		if song, ok := byID[id]; ok {
			pool = append(pool, song)
		}
	}
	return pool, setlist.Name, nil
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	entry, err := s.roulette.Decide(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	s.roulette.Abandon(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRouletteState(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	writeJSON(w, http.StatusOK, struct {
		State string `json:"state"`
	}{State: string(s.roulette.State(userID))})
}

func (s *Server) handleRouletteHistory(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	history, err := s.roulette.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		History []store.RouletteEntry `json:"history"`
	}{History: history})
}

func (s *Server) handleDeleteRouletteEntry(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.roulette.DeleteHistory(r.Context(), userID, entryID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
