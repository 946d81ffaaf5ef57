package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizgen"
)

// generateResponse is a quiz plus generation metadata. Cache hits carry
// only _cacheHit.
type generateResponse struct {
	quiz.Quiz
	CacheHit     bool        `json:"_cacheHit"`
	Ambiguous    *bool       `json:"_ambiguous,omitempty"`
	AssumedTitle string      `json:"_assumedTitle,omitempty"`
	Usage        *usageStats `json:"_usage,omitempty"`
}

type usageStats struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	// Counted before the body is read, so malformed requests still spend
	// budget.
	res := s.limiter.Allow(r.Context(), clientIP(r), GenerateBucket, s.limit.Max, s.limit.Window)
	if !res.Allowed {
		h := w.Header()
		h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter(s.now()).Seconds())))
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		respondJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "Too many requests. Please try again shortly.",
		})
		return
	}

	raw, err := readBody(w, r)
	if err != nil {
		s.generateError(w, r, err)
		return
	}
	var req generateRequest
	if err := decodeValidated("generate-quiz-request", generateRequestSchema(), raw, &req, "Invalid request"); err != nil {
		s.generateError(w, r, err)
		return
	}

	input := quizgen.Input{
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		UseRetrieval: req.UseRetrieval == nil || *req.UseRetrieval,
		ForceFresh:   req.ForceFresh,
	}
	if req.NumQuestions != nil {
		input.NumQuestions = *req.NumQuestions
	}

	ctx := llm.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	out, err := s.generator.Generate(ctx, input)
	if err != nil {
		s.generateError(w, r, err)
		return
	}

	resp := generateResponse{Quiz: out.Quiz, CacheHit: out.CacheHit}
	if !out.CacheHit {
		ambiguous := out.Ambiguous
		resp.Ambiguous = &ambiguous
		resp.AssumedTitle = out.AssumedTitle
		resp.Usage = &usageStats{
			Prompt:     out.Usage.InputTokens,
			Completion: out.Usage.OutputTokens,
			Total:      out.Usage.TotalTokens,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) generateError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	s.logError(r, status, err)
	respondJSON(w, status, map[string]string{"error": msg})
}

// clientIP identifies the caller for rate limiting: the first
// X-Forwarded-For entry, then X-Real-IP, then the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
