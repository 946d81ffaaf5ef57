package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/store"
)

// requestError is a malformed or invalid request body.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	var (
		reqErr *requestError
		valErr *quiz.ValidationError
		llmNC  *llm.ErrNotConfigured
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.msg
	case errors.Is(err, quiz.ErrInvalidTopic):
		return http.StatusBadRequest, "Please provide a more specific topic."
	case errors.As(err, &valErr):
		return http.StatusBadRequest, "Invalid quiz"
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, "Invalid id"
	case errors.Is(err, quizgen.ErrUnparseable):
		return http.StatusBadGateway, "Model did not return JSON. Please try again."
	case errors.As(err, &llmNC):
		return http.StatusServiceUnavailable, "Quiz generation is not configured"
	case errors.Is(err, store.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Database not configured"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// logError records err at a level matching its status.
func (s *Server) logError(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
		return
	}
	s.logger.InfoContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
}
