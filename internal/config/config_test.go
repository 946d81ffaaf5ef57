package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/retrieval"
)

var allKeys = []string{
	"QUIZGEN_HTTP_ADDR", "QUIZGEN_SHUTDOWN_TIMEOUT", "QUIZGEN_CORS_ORIGINS",
	"QUIZGEN_DB_DRIVER", "QUIZGEN_DB_DSN", "QUIZGEN_REDIS_URL",
	"QUIZGEN_RATE_LIMIT_MAX", "QUIZGEN_RATE_LIMIT_WINDOW",
	"QUIZGEN_MIN_QUESTIONS", "QUIZGEN_MAX_QUESTIONS", "QUIZGEN_OPTIONS_PER_QUESTION",
	"QUIZGEN_WIKIPEDIA_URL", "QUIZGEN_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.DBDSN)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 20, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.MinQuestions)
	assert.Equal(t, 10, cfg.MaxQuestions)
	assert.Equal(t, 4, cfg.OptionsPerQuestion)
	assert.Equal(t, retrieval.DefaultBaseURL, cfg.WikipediaURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUIZGEN_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("QUIZGEN_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("QUIZGEN_DB_DRIVER", "postgres")
	t.Setenv("QUIZGEN_DB_DSN", "postgres://localhost/quizgen")
	t.Setenv("QUIZGEN_RATE_LIMIT_MAX", "3")
	t.Setenv("QUIZGEN_RATE_LIMIT_WINDOW", "10s")
	t.Setenv("QUIZGEN_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/quizgen", cfg.DBDSN)
	assert.Equal(t, 3, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnvRejectsMalformed(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"QUIZGEN_RATE_LIMIT_MAX", "many"},
		{"QUIZGEN_SHUTDOWN_TIMEOUT", "soon"},
		{"QUIZGEN_LOG_LEVEL", "loud"},
		{"QUIZGEN_DB_DRIVER", "mongodb"},
		{"QUIZGEN_MIN_QUESTIONS", "0"},
		{"QUIZGEN_OPTIONS_PER_QUESTION", "1"},
		{"QUIZGEN_RATE_LIMIT_WINDOW", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
