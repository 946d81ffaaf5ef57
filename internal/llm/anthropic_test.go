package llm

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// anthropicStub serves canned Messages API replies and keeps the last
// request body.
func anthropicStub(t *testing.T, status int, reply any, headers map[string]string) (*AnthropicProvider, *[]byte) {
	t.Helper()
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)

	return &AnthropicProvider{
		client: anthropic.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(srv.URL),
			option.WithMaxRetries(0),
		),
		model: "claude-haiku-4-5-20251001",
	}, &body
}

func anthropicMessage(stop string, texts ...string) map[string]any {
	blocks := make([]map[string]any, len(texts))
	for i, s := range texts {
		blocks[i] = map[string]any{"type": "text", "text": s}
	}
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     blocks,
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 210, "output_tokens": 640},
	}
}

func TestAnthropicProvider_JSONPrefill(t *testing.T) {
	p, body := anthropicStub(t, http.StatusOK,
		anthropicMessage("end_turn", `"chosenTitle":"Saturn","questions":[]}`), nil)

	resp, err := p.Generate(t.Context(), Request{
		System:    "You return only valid JSON.",
		Messages:  UserMessage("Create a quiz about Saturn."),
		JSON:      true,
		MaxTokens: 1200,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"chosenTitle":"Saturn","questions":[]}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 210, OutputTokens: 640, TotalTokens: 850}, resp.Usage)
	assert.Equal(t, StopEnd, resp.StopReason)

	sent := gjson.ParseBytes(*body)
	assert.Equal(t, int64(2), sent.Get("messages.#").Int())
	assert.Equal(t, "assistant", sent.Get("messages.1.role").String())
	assert.Equal(t, "{", sent.Get("messages.1.content.0.text").String())
	assert.Equal(t, "You return only valid JSON.", sent.Get("system.0.text").String())
}

func TestAnthropicProvider_PrefillNotDoubled(t *testing.T) {
	p, _ := anthropicStub(t, http.StatusOK, anthropicMessage("end_turn", `{"questions":[]}`), nil)

	resp, err := p.Generate(t.Context(), Request{Messages: UserMessage("quiz"), JSON: true, MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, `{"questions":[]}`, string(resp.Content))
}

func TestAnthropicProvider_PlainTextJoinsBlocks(t *testing.T) {
	p, body := anthropicStub(t, http.StatusOK, anthropicMessage("max_tokens", "first half, ", "second half"), nil)

	resp, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "first half, second half", string(resp.Content))
	assert.Equal(t, StopMaxTokens, resp.StopReason)
	assert.Equal(t, int64(1), gjson.GetBytes(*body, "messages.#").Int(), "no prefill without JSON")
}

func TestAnthropicProvider_NoText(t *testing.T) {
	p, _ := anthropicStub(t, http.StatusOK, anthropicMessage("end_turn"), nil)

	_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestAnthropicProvider_Errors(t *testing.T) {
	apiError := func(kind string) map[string]any {
		return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
	}

	t.Run("bad key", func(t *testing.T) {
		p, _ := anthropicStub(t, http.StatusUnauthorized, apiError("authentication_error"), nil)
		_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
		var nc *ErrNotConfigured
		require.ErrorAs(t, err, &nc)
		assert.Equal(t, "anthropic", nc.Provider)
	})

	t.Run("rate limited", func(t *testing.T) {
		p, _ := anthropicStub(t, http.StatusTooManyRequests, apiError("rate_limit_error"),
			map[string]string{"Retry-After": "7"})
		_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 7*time.Second, rl.RetryAfter)
	})

	t.Run("overloaded", func(t *testing.T) {
		p, _ := anthropicStub(t, 529, apiError("overloaded_error"), nil)
		_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
		var unavail *ErrProviderUnavailable
		assert.ErrorAs(t, err, &unavail)
	})

	t.Run("bad request", func(t *testing.T) {
		p, _ := anthropicStub(t, http.StatusBadRequest, apiError("invalid_request_error"), nil)
		_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
		var rejected *ErrRequestRejected
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusBadRequest, rejected.Status)
		assert.False(t, retryable(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		p := &AnthropicProvider{
			client: anthropic.NewClient(
				option.WithAPIKey("k"),
				option.WithBaseURL("http://127.0.0.1:1"),
				option.WithMaxRetries(0),
			),
			model: "claude-haiku",
		}
		_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), MaxTokens: 10})
		assert.True(t, errors.As(err, new(*ErrProviderUnavailable)))
	})
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"})
	assert.Error(t, err)

	for alias, want := range map[string]string{
		"claude-haiku":             "claude-haiku-4-5-20251001",
		"claude-sonnet":            "claude-sonnet-4-5-20250929",
		"claude-opus-4-1-20250805": "claude-opus-4-1-20250805",
	} {
		p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: alias})
		require.NoError(t, err)
		assert.Equal(t, want, p.ModelID(), alias)
	}
}
