package llm

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider sends Chat Completions requests through OpenRouter.
// Model IDs are OpenRouter's vendor-qualified names such as
// "openai/gpt-4o-mini" and are passed through untouched.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider builds a provider for OpenRouter. Referer and Title
// are sent as the HTTP-Referer and X-Title attribution headers.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}

	cc := openai.DefaultConfig(cfg.APIKey)
	cc.BaseURL = cfg.BaseURL
	if cc.BaseURL == "" {
		cc.BaseURL = defaultOpenRouterBaseURL
	}

	headers := http.Header{}
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		headers.Set("X-Title", cfg.Title)
	}
	if len(headers) > 0 {
		cc.HTTPClient = &http.Client{Transport: &headerTransport{headers: headers}}
	}

	return &OpenRouterProvider{OpenAIProvider: newChatProvider("openrouter", cc, cfg.Model)}, nil
}
