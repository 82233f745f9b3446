package httpapi

import (
	"net/http"

	"github.com/harumakino16/setlink/internal/store"
)

type pagesResponse struct {
	Pages []store.PublicPage `json:"pages"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	pages, err := s.pages.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagesResponse{Pages: pages})
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}

	var page store.PublicPage
	if !decodeJSON(w, r, &page) {
		return
	}

	created, err := s.pages.Create(r.Context(), userID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	pageID, ok := pathID(w, r)
	if !ok {
		return
	}

	var page store.PublicPage
	if !decodeJSON(w, r, &page) {
		return
	}
	page.ID = pageID

	updated, err := s.pages.Update(r.Context(), userID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	userID := s.authUserID(w, r)
	if userID == 0 {
		return
	}
	pageID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.pages.Delete(r.Context(), userID, pageID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublicPage serves the unauthenticated visitor view.
func (s *Server) handlePublicPage(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("pageId")
	if pageID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing page id"})
		return
	}

	view, err := s.pages.Resolve(r.Context(), pageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
