package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects a provider and carries the settings for each vendor.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Referer and Title identify the app on OpenRouter's dashboards.
	Referer string
	Title   string
}

// RetryConfig controls WithRetry.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig is OpenAI's gpt-4o-mini with a single attempt per call.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOpenAI,
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini", Title: "quizgen"},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
	}
}

// ConfigFromEnv overlays QUIZGEN_* variables on DefaultConfig. API keys
// fall back to each vendor's conventional variable, e.g. OPENAI_API_KEY.
// Without QUIZGEN_LLM_PROVIDER the provider is the first of OpenAI,
// Gemini, Anthropic and OpenRouter that has a key.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	set := func(dst *string, keys ...string) {
		if v := firstEnv(keys...); v != "" {
			*dst = v
		}
	}
	set(&cfg.OpenAI.APIKey, "QUIZGEN_OPENAI_API_KEY", "OPENAI_API_KEY")
	set(&cfg.OpenAI.Model, "QUIZGEN_OPENAI_MODEL")
	set(&cfg.OpenAI.BaseURL, "QUIZGEN_OPENAI_BASE_URL")

	set(&cfg.Anthropic.APIKey, "QUIZGEN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.Model, "QUIZGEN_ANTHROPIC_MODEL")
	set(&cfg.Anthropic.BaseURL, "QUIZGEN_ANTHROPIC_BASE_URL")

	set(&cfg.Gemini.APIKey, "QUIZGEN_GEMINI_API_KEY", "GEMINI_API_KEY")
	set(&cfg.Gemini.Model, "QUIZGEN_GEMINI_MODEL")
	set(&cfg.Gemini.BaseURL, "QUIZGEN_GEMINI_BASE_URL")

	set(&cfg.OpenRouter.APIKey, "QUIZGEN_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	set(&cfg.OpenRouter.Model, "QUIZGEN_OPENROUTER_MODEL")
	set(&cfg.OpenRouter.BaseURL, "QUIZGEN_OPENROUTER_BASE_URL")
	set(&cfg.OpenRouter.Referer, "QUIZGEN_OPENROUTER_REFERER")
	set(&cfg.OpenRouter.Title, "QUIZGEN_OPENROUTER_TITLE")

	if p := os.Getenv("QUIZGEN_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	} else {
		autoSelect(&cfg)
	}

	if n, err := strconv.Atoi(os.Getenv("QUIZGEN_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// autoSelectOrder is the preference among vendors when
// QUIZGEN_LLM_PROVIDER is unset and more than one key is present.
var autoSelectOrder = []struct {
	provider string
	key      func(Config) string
}{
	{ProviderOpenAI, func(c Config) string { return c.OpenAI.APIKey }},
	{ProviderGemini, func(c Config) string { return c.Gemini.APIKey }},
	{ProviderAnthropic, func(c Config) string { return c.Anthropic.APIKey }},
	{ProviderOpenRouter, func(c Config) string { return c.OpenRouter.APIKey }},
}

// autoSelect picks the first vendor with a key, leaving the default in
// place when there is none.
func autoSelect(cfg *Config) {
	for _, v := range autoSelectOrder {
		if v.key(*cfg) != "" {
			cfg.Provider = v.provider
			return
		}
	}
}

// Validate reports a missing key for the selected provider as
// *ErrNotConfigured.
func (c Config) Validate() error {
	var key, vendorEnv string
	switch c.Provider {
	case ProviderOpenAI:
		key, vendorEnv = c.OpenAI.APIKey, "OPENAI_API_KEY"
	case ProviderAnthropic:
		key, vendorEnv = c.Anthropic.APIKey, "ANTHROPIC_API_KEY"
	case ProviderGemini:
		key, vendorEnv = c.Gemini.APIKey, "GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, vendorEnv = c.OpenRouter.APIKey, "OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return &ErrNotConfigured{
			Provider: c.Provider,
			Reason:   fmt.Sprintf("QUIZGEN_%s or %s is required", vendorEnv, vendorEnv),
		}
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
