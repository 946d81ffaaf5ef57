package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_ScriptThenRespond(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"n":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockResponse{Err: &ErrRateLimit{}},
	)
	ctx := context.Background()

	resp, err := mock.Generate(ctx, Request{Messages: UserMessage("first")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(resp.Content))
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "mock", resp.Model)

	_, err = mock.Generate(ctx, Request{Messages: UserMessage("second")})
	var rl *ErrRateLimit
	require.ErrorAs(t, err, &rl)

	_, err = mock.Generate(ctx, Request{})
	assert.ErrorIs(t, err, errMockExhausted)

	mock.Respond = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`"` + strings.ToUpper(req.Messages[0].Content) + `"`)}
	}
	resp, err = mock.Generate(ctx, Request{Messages: UserMessage("echo")})
	require.NoError(t, err)
	assert.Equal(t, `"ECHO"`, string(resp.Content))

	mock.AddResponse(MockResponse{Content: json.RawMessage(`"queued"`)})
	resp, err = mock.Generate(ctx, Request{Messages: UserMessage("x")})
	require.NoError(t, err)
	assert.Equal(t, `"queued"`, string(resp.Content), "scripted replies come before Respond")

	assert.Equal(t, 5, mock.CallCount())
	last, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "x", last.Messages[0].Content)
}

func TestMockProvider_LastRequestBeforeCalls(t *testing.T) {
	_, ok := NewMockProvider().LastRequest()
	assert.False(t, ok)
}

func TestContextLabels(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Empty(t, RequestIDFrom(ctx))

	ctx = WithRequestID(WithPurpose(ctx, "quiz-gen"), "host/abc-000001")
	assert.Equal(t, "quiz-gen", PurposeFrom(ctx))
	assert.Equal(t, "host/abc-000001", RequestIDFrom(ctx))

	assert.Equal(t, ctx, WithRequestID(ctx, ""), "empty id leaves the context alone")
}

func TestUnconfiguredProvider(t *testing.T) {
	nc := &ErrNotConfigured{Provider: "anthropic", Reason: "ANTHROPIC_API_KEY is required"}
	p := NewUnconfiguredProvider(nc)

	_, err := p.Generate(context.Background(), Request{})
	assert.Same(t, nc, errorsAsNotConfigured(t, err))
	assert.Equal(t, "unconfigured", p.ModelID())
}

func errorsAsNotConfigured(t *testing.T, err error) *ErrNotConfigured {
	t.Helper()
	var nc *ErrNotConfigured
	require.True(t, errors.As(err, &nc), "err = %v", err)
	return nc
}

func TestNewProvider_MockIsWrapped(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &RetryProvider{}, p)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(context.Background(), Config{Provider: "bard"}, nil, nil)
	assert.ErrorContains(t, err, "unknown LLM provider")
}
