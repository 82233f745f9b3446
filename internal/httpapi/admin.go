package httpapi

import "net/http"

type feedbackRequest struct {
	Email    string `json:"email"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	id, err := s.feedback.Submit(r.Context(), req.Email, req.Category, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID int64 `json:"id"`
	}{ID: id})
}

func (s *Server) handleDailyKPIJob(w http.ResponseWriter, r *http.Request) {
	if s.authAdmin(w, r) == 0 {
		return
	}

	snapshot, err := s.jobs.RunDailyKPI(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleMonthlyResetJob(w http.ResponseWriter, r *http.Request) {
	if s.authAdmin(w, r) == 0 {
		return
	}

	reset, err := s.jobs.RunMonthlyReset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		UsersReset int `json:"usersReset"`
	}{UsersReset: reset})
}

func (s *Server) handleMonthlySummaryJob(w http.ResponseWriter, r *http.Request) {
	if s.authAdmin(w, r) == 0 {
		return
	}

	if err := s.jobs.RunMonthlySummary(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
