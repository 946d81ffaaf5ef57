package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterProvider_AttributionHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "anthropic/claude-3.5-haiku",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "{}"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 1},
		})
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "anthropic/claude-3.5-haiku",
		BaseURL: srv.URL,
		Referer: "https://quiz.example.com",
		Title:   "Quiz Generator",
	})
	require.NoError(t, err)

	resp, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi"), JSON: true})
	require.NoError(t, err)

	assert.Equal(t, "https://quiz.example.com", got.Get("HTTP-Referer"))
	assert.Equal(t, "Quiz Generator", got.Get("X-Title"))
	assert.Equal(t, "Bearer sk-or-test", got.Get("Authorization"))
	assert.Equal(t, 4, resp.Usage.TotalTokens)
}

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "openai/gpt-4o-mini"})
	assert.Error(t, err, "missing API key")

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "google/gemini-2.5-flash"})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.5-flash", p.ModelID(), "vendor-qualified IDs pass through")
	assert.Equal(t, "openrouter", p.vendor)
}
