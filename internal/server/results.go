package server

import (
	"fmt"
	"net/http"

	"github.com/abhisek/quizgen/internal/store"
)

// GET /api/results, /api/results?id=, /api/results/{id}
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		respondJSON(w, http.StatusOK, map[string]any{"results": []store.ResultListing{}})
		return
	}

	if id := requestedID(r); id != "" {
		res, err := s.results.Get(r.Context(), id)
		if err != nil {
			status, _ := statusFor(err)
			s.logError(r, status, err)
			respondJSON(w, status, map[string]any{"result": nil})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"result": res})
		return
	}

	results, err := s.results.Recent(r.Context(), store.DefaultResultLimit)
	if err != nil {
		s.logger.WarnContext(r.Context(), "listing results failed", "error", err)
	}
	if results == nil {
		results = []store.ResultListing{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// POST /api/results
func (s *Server) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.okError(w, r, store.ErrNotConfigured)
		return
	}

	raw, err := readBody(w, r)
	if err != nil {
		s.okError(w, r, err)
		return
	}
	var req resultRequest
	name := fmt.Sprintf("result-request-%d", s.options)
	if err := decodeValidated(name, resultRequestSchema(s.options), raw, &req, "Invalid payload"); err != nil {
		s.okError(w, r, err)
		return
	}

	res, err := s.results.Create(r.Context(), req.QuizID, req.Answers)
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusNotFound {
			s.logError(r, status, err)
			respondJSON(w, status, map[string]any{"ok": false, "error": "Quiz not found"})
			return
		}
		s.okError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "id": res.ID})
}
