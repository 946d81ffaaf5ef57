package llm

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

type chatStub struct {
	status  int
	content string
	finish  string
	body    []byte
	header  http.Header
}

func (s *chatStub) provider(t *testing.T, vendor string) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.body, _ = io.ReadAll(r.Body)
		s.header = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 && s.status != http.StatusOK {
			w.WriteHeader(s.status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": http.StatusText(s.status), "type": "test_error"},
			})
			return
		}
		finish := s.finish
		if finish == "" {
			finish = "stop"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini-2024-07-18",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": s.content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}))
	t.Cleanup(srv.Close)

	cc := openai.DefaultConfig("test-key")
	cc.BaseURL = srv.URL + "/v1"
	return newChatProvider(vendor, cc, "gpt-4o-mini")
}

func TestOpenAIProvider_JSONMode(t *testing.T) {
	stub := &chatStub{content: `{"chosenTitle":"Mercury (planet)","questions":[]}`}
	p := stub.provider(t, "openai")

	resp, err := p.Generate(t.Context(), Request{
		System:    "You return only valid JSON.",
		Messages:  UserMessage("Create a quiz about Mercury."),
		JSON:      true,
		MaxTokens: 1200,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Content) != stub.content {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Model != "gpt-4o-mini-2024-07-18" || resp.StopReason != StopEnd {
		t.Errorf("model/stop = %q/%q", resp.Model, resp.StopReason)
	}
	if resp.Usage != (Usage{InputTokens: 40, OutputTokens: 25, TotalTokens: 65}) {
		t.Errorf("usage = %+v", resp.Usage)
	}

	sent := gjson.ParseBytes(stub.body)
	if got := sent.Get("response_format.type").String(); got != "json_object" {
		t.Errorf("response_format.type = %q, want json_object", got)
	}
	if got := sent.Get("messages.0.role").String(); got != "system" {
		t.Errorf("first message role = %q, want system", got)
	}
	if got := sent.Get("max_completion_tokens").Int(); got != 1200 {
		t.Errorf("max_completion_tokens = %d", got)
	}
	// Zero must still be sent, or the API falls back to its default of 1.
	if !sent.Get("temperature").Exists() {
		t.Error("temperature omitted from request")
	}
}

func TestOpenAIProvider_PlainRequestHasNoFormat(t *testing.T) {
	stub := &chatStub{content: "hello"}
	p := stub.provider(t, "openai")

	if _, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi")}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gjson.GetBytes(stub.body, "response_format").Exists() {
		t.Error("response_format sent for a plain request")
	}
}

func TestOpenAIProvider_Schema(t *testing.T) {
	answer := &Schema{
		Name: "answer",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"answerIndex": map[string]any{"type": "integer"}},
			"required":   []any{"answerIndex"},
		},
	}

	tests := []struct {
		name    string
		content string
		finish  string
		wantErr any
	}{
		{name: "valid", content: `{"answerIndex":2}`},
		{name: "fails schema", content: `{"answerIndex":"two"}`, wantErr: new(*ErrInvalidResponse)},
		{name: "truncated", content: `{"answerIn`, finish: "length", wantErr: new(*ErrMaxTokensExceeded)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &chatStub{content: tt.content, finish: tt.finish}
			p := stub.provider(t, "openai")

			_, err := p.Generate(t.Context(), Request{Messages: UserMessage("pick"), Schema: answer})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Generate: %v", err)
				}
				if got := gjson.GetBytes(stub.body, "response_format.json_schema.name").String(); got != "answer" {
					t.Errorf("json_schema.name = %q", got)
				}
				return
			}
			if !errors.As(err, tt.wantErr) {
				t.Fatalf("err = %v, want %T", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAIProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   any
	}{
		{http.StatusUnauthorized, new(*ErrNotConfigured)},
		{http.StatusTooManyRequests, new(*ErrRateLimit)},
		{http.StatusBadRequest, new(*ErrRequestRejected)},
		{http.StatusInternalServerError, new(*ErrProviderUnavailable)},
		{http.StatusBadGateway, new(*ErrProviderUnavailable)},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := (&chatStub{status: tt.status}).provider(t, "openai")
			_, err := p.Generate(t.Context(), Request{Messages: UserMessage("hi")})
			if !errors.As(err, tt.want) {
				t.Fatalf("err = %v (%T), want %T", err, err, tt.want)
			}
		})
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o-mini"}); err == nil {
		t.Fatal("expected an error without an API key")
	}
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4.1-mini", BaseURL: "http://localhost:11434/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if p.ModelID() != "gpt-4.1-mini" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}
