// Package config reads service settings from the environment, after
// loading an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/retrieval"
)

// Config holds the service settings. LLM settings live in llm.Config.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// DBDriver is "sqlite" or "postgres". An empty DBDSN disables
	// persistence.
	DBDriver string
	DBDSN    string

	// RedisURL selects the shared cache and rate-limit backend. Empty
	// means in-process backends only.
	RedisURL string

	RateLimitMax    int
	RateLimitWindow time.Duration

	MinQuestions       int
	MaxQuestions       int
	OptionsPerQuestion int

	WikipediaURL string

	LogLevel slog.Level
}

// Load reads the configuration. A missing .env file is not an error;
// malformed values are.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var p parser

	cfg := &Config{
		HTTPAddr:           getenvDefault("QUIZGEN_HTTP_ADDR", ":8080"),
		ShutdownTimeout:    p.duration("QUIZGEN_SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:        splitList(getenvDefault("QUIZGEN_CORS_ORIGINS", "http://localhost:3000")),
		DBDriver:           getenvDefault("QUIZGEN_DB_DRIVER", "sqlite"),
		DBDSN:              os.Getenv("QUIZGEN_DB_DSN"),
		RedisURL:           os.Getenv("QUIZGEN_REDIS_URL"),
		RateLimitMax:       p.int("QUIZGEN_RATE_LIMIT_MAX", 20),
		RateLimitWindow:    p.duration("QUIZGEN_RATE_LIMIT_WINDOW", 60*time.Second),
		MinQuestions:       p.int("QUIZGEN_MIN_QUESTIONS", 5),
		MaxQuestions:       p.int("QUIZGEN_MAX_QUESTIONS", 10),
		OptionsPerQuestion: p.int("QUIZGEN_OPTIONS_PER_QUESTION", quiz.DefaultOptionsPerQuestion),
		WikipediaURL:       getenvDefault("QUIZGEN_WIKIPEDIA_URL", retrieval.DefaultBaseURL),
		LogLevel:           p.level("QUIZGEN_LOG_LEVEL", slog.LevelInfo),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable together.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: QUIZGEN_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.MinQuestions < 1 || c.MaxQuestions < c.MinQuestions {
		return fmt.Errorf("config: question bounds [%d, %d] are invalid", c.MinQuestions, c.MaxQuestions)
	}
	if c.OptionsPerQuestion < 2 {
		return fmt.Errorf("config: QUIZGEN_OPTIONS_PER_QUESTION must be at least 2, got %d", c.OptionsPerQuestion)
	}
	if c.RateLimitMax < 1 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: rate limit %d per %s is invalid", c.RateLimitMax, c.RateLimitWindow)
	}
	return nil
}

// parser records the first malformed value it sees.
type parser struct {
	err error
}

func (p *parser) int(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("config: %s=%q is not a valid integer", k, v))
		return fallback
	}
	return n
}

func (p *parser) duration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err))
		return fallback
	}
	return d
}

func (p *parser) level(k string, fallback slog.Level) slog.Level {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(fmt.Errorf("config: %s=%q is not a valid log level", k, v))
		return fallback
	}
	return l
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
