package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/abhisek/quizgen/internal/store"
)

type recordingEventRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

// newTestLogging returns a logging provider whose clock advances 250ms
// per reading and whose log lines land in buf as JSON.
func newTestLogging(inner Provider, repo store.EventRepo, buf *bytes.Buffer) *LoggingProvider {
	l := WithLogging(inner, "openai", slog.New(slog.NewJSONHandler(buf, nil)), repo).(*LoggingProvider)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}
	return l
}

func TestLogging_Success(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"questions":[]}`),
		Usage:   Usage{InputTokens: 1000, OutputTokens: 1000},
	})
	repo := &recordingEventRepo{}
	var buf bytes.Buffer
	p := newTestLogging(mock, repo, &buf)

	ctx := WithRequestID(WithPurpose(context.Background(), "quiz-gen"), "req-42")
	_, err := p.Generate(ctx, Request{
		System:   "You return only valid JSON.",
		Messages: UserMessage("Create a quiz about volcanoes."),
		JSON:     true,
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "openai", ev.Provider)
	assert.Equal(t, "mock", ev.Model)
	assert.Equal(t, "quiz-gen", ev.Purpose)
	assert.Equal(t, "req-42", ev.RequestID)
	assert.Equal(t, int64(250), ev.LatencyMs)
	assert.True(t, ev.Success)
	assert.Equal(t, `{"questions":[]}`, ev.ResponseBody)
	assert.Equal(t,
		"[system]\nYou return only valid JSON.\n\n[user]\nCreate a quiz about volcanoes.\n\n[format: json]\n",
		ev.RequestBody)

	line := gjson.Parse(buf.String())
	assert.Equal(t, "llm request", line.Get("msg").String())
	assert.Equal(t, "req-42", line.Get("request_id").String())
	assert.Equal(t, int64(1000), line.Get("input_tokens").Int())
	assert.False(t, line.Get("cost_usd").Exists(), "mock has no price")
}

func TestLogging_FailureStillRecorded(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("connection refused")}})
	repo := &recordingEventRepo{err: errors.New("disk full")}
	var buf bytes.Buffer
	p := newTestLogging(mock, repo, &buf)

	_, err := p.Generate(context.Background(), Request{Messages: UserMessage("hi")})
	var unavail *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavail, "provider error passes through even when recording fails")

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Contains(t, repo.events[0].ErrorMessage, "connection refused")
	assert.Equal(t, "unknown", repo.events[0].Purpose)
	assert.Contains(t, buf.String(), "llm request failed")
	assert.Contains(t, buf.String(), "record llm request event")
}

func TestLogging_NoRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), "mock", nil, nil)
	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestRenderRequestSchema(t *testing.T) {
	out := renderRequest(Request{
		Messages: UserMessage("q"),
		Schema:   &Schema{Name: "quiz", Definition: map[string]any{"type": "object"}},
		JSON:     true,
	})
	assert.Equal(t, "[user]\nq\n\n[schema: quiz]\n{\"type\":\"object\"}\n\n", out)
}
