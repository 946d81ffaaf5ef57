package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cause := errors.New("upstream said no")

	tests := []struct {
		status    int
		want      any
		retryable bool
	}{
		{0, new(*ErrProviderUnavailable), true},
		{http.StatusUnauthorized, new(*ErrNotConfigured), false},
		{http.StatusForbidden, new(*ErrNotConfigured), false},
		{http.StatusTooManyRequests, new(*ErrRateLimit), true},
		{http.StatusRequestTimeout, new(*ErrProviderUnavailable), true},
		{http.StatusNotFound, new(*ErrRequestRejected), false},
		{http.StatusUnprocessableEntity, new(*ErrRequestRejected), false},
		{http.StatusInternalServerError, new(*ErrProviderUnavailable), true},
		{http.StatusServiceUnavailable, new(*ErrProviderUnavailable), true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := classifyStatus("openai", tt.status, 0, cause)
			assert.ErrorAs(t, err, tt.want)
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, tt.retryable, retryable(err))
		})
	}
}

func TestRetryableContextErrors(t *testing.T) {
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.True(t, retryable(errors.New("connection reset by peer")))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"12", 12 * time.Second},
		{"-3", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.header != "" {
			h.Set("Retry-After", tt.header)
		}
		assert.Equal(t, tt.want, parseRetryAfter(h, now), "Retry-After %q", tt.header)
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `LLM provider "gemini" not configured`, (&ErrNotConfigured{Provider: "gemini"}).Error())
	assert.Equal(t, "LLM provider unavailable", (&ErrProviderUnavailable{}).Error())
	assert.Contains(t, (&ErrRateLimit{RetryAfter: 2 * time.Second, Err: errors.New("429")}).Error(), "retry after 2s")
}
