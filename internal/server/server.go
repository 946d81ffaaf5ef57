// Package server exposes the quiz generation pipeline and the quiz and
// result stores over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/ratelimit"
	"github.com/abhisek/quizgen/internal/store"
)

// GenerateBucket is the rate-limit bucket for quiz generation.
const GenerateBucket = "generate-quiz"

// Generator produces quizzes. *quizgen.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, input quizgen.Input) (*quizgen.Output, error)
}

// RateLimit is a request budget per client.
type RateLimit struct {
	Max    int
	Window time.Duration
}

// Options wires a Server. Generator is required. Quizzes and Results may
// be nil when persistence is not configured.
type Options struct {
	Generator Generator
	Quizzes   store.QuizRepo
	Results   store.ResultRepo
	Limiter   *ratelimit.Limiter

	GenerateLimit      RateLimit
	OptionsPerQuestion int

	CORSOrigins    []string
	RequestTimeout time.Duration

	Logger *slog.Logger
}

// Server holds the HTTP handler dependencies.
type Server struct {
	generator Generator
	quizzes   store.QuizRepo
	results   store.ResultRepo
	limiter   *ratelimit.Limiter
	limit     RateLimit
	options   int
	validator *quiz.Validator
	cors      []string
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Server from opts, filling in defaults.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(nil, nil, opts.Logger)
	}
	if opts.GenerateLimit.Max <= 0 {
		opts.GenerateLimit.Max = 20
	}
	if opts.GenerateLimit.Window <= 0 {
		opts.GenerateLimit.Window = time.Minute
	}
	if opts.OptionsPerQuestion <= 0 {
		opts.OptionsPerQuestion = quiz.DefaultOptionsPerQuestion
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	return &Server{
		generator: opts.Generator,
		quizzes:   opts.Quizzes,
		results:   opts.Results,
		limiter:   opts.Limiter,
		limit:     opts.GenerateLimit,
		options:   opts.OptionsPerQuestion,
		validator: quiz.NewValidator(opts.OptionsPerQuestion),
		cors:      opts.CORSOrigins,
		timeout:   opts.RequestTimeout,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// Handler returns the routed HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	if len(s.cors) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cors,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/generate-quiz", s.handleGenerateQuiz)

		r.Get("/quizzes", s.handleGetQuizzes)
		r.Get("/quizzes/{id}", s.handleGetQuizzes)
		r.Post("/quizzes", s.handleSaveQuiz)

		r.Get("/results", s.handleGetResults)
		r.Get("/results/{id}", s.handleGetResults)
		r.Post("/results", s.handleCreateResult)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"ts": s.now().UnixMilli(),
	})
}
