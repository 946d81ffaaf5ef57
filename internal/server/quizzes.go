package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
)

// requestedID returns the id from the path, else from ?id=.
func requestedID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return r.URL.Query().Get("id")
}

// GET /api/quizzes, /api/quizzes?id=, /api/quizzes/{id}
func (s *Server) handleGetQuizzes(w http.ResponseWriter, r *http.Request) {
	if s.quizzes == nil {
		respondJSON(w, http.StatusOK, map[string]any{"quizzes": []quiz.Quiz{}})
		return
	}

	if id := requestedID(r); id != "" {
		q, err := s.quizzes.Get(r.Context(), id)
		if err != nil {
			status, _ := statusFor(err)
			s.logError(r, status, err)
			respondJSON(w, status, map[string]any{"quiz": nil})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"quiz": q})
		return
	}

	quizzes, err := s.quizzes.Recent(r.Context(), store.DefaultQuizLimit)
	if err != nil {
		s.logger.WarnContext(r.Context(), "listing quizzes failed", "error", err)
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

// POST /api/quizzes
func (s *Server) handleSaveQuiz(w http.ResponseWriter, r *http.Request) {
	if s.quizzes == nil {
		s.okError(w, r, store.ErrNotConfigured)
		return
	}

	raw, err := readBody(w, r)
	if err != nil {
		s.okError(w, r, err)
		return
	}
	if err := s.validator.ValidateJSON(raw); err != nil {
		s.okError(w, r, err)
		return
	}
	var q quiz.Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		s.okError(w, r, &requestError{msg: "Invalid quiz", err: err})
		return
	}

	id, err := s.quizzes.Save(r.Context(), q)
	if err != nil {
		s.okError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// okError writes the {ok: false, error} shape used by the write routes.
func (s *Server) okError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	s.logError(r, status, err)
	respondJSON(w, status, map[string]any{"ok": false, "error": msg})
}
