package server

import (
	"net/http"

	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/types"
)

// HistoryResponse is the visible history and the current result.
type HistoryResponse struct {
	Identity types.Identity         `json:"identity"`
	History  []types.StoredAnalysis `json:"history"`
	Current  *types.StoredAnalysis  `json:"current"`
}

func historyResponse(st history.State) HistoryResponse {
	h := st.History
	if h == nil {
		h = []types.StoredAnalysis{}
	}
	return HistoryResponse{Identity: st.Identity, History: h, Current: st.Current}
}

// handleListHistory returns the history of the current identity, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, historyResponse(s.deps.Analyzer.State()))
}

// handleCurrent returns the current result, or 404 when there is none.
func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	st := s.deps.Analyzer.State()
	if st.Current == nil {
		s.errorResponse(w, http.StatusNotFound, "No analysis is selected.")
		return
	}
	s.jsonResponse(w, http.StatusOK, st.Current)
}

// handleSelect makes a history record the current result.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.deps.Analyzer.State().Find(id); !ok {
		s.failure(w, r, ErrNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, historyResponse(s.deps.Analyzer.Select(id)))
}

// handleDelete removes one record. Unknown ids are not an error.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Analyzer.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, historyResponse(st))
}

// handleClear removes the local history.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Analyzer.Clear(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, historyResponse(st))
}

// handleStats returns statistics for the current identity.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.deps.Analyzer.Stats(r.Context()))
}
