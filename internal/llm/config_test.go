package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearLLMEnv blanks every variable ConfigFromEnv reads.
func clearLLMEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QUIZGEN_LLM_PROVIDER", "")
	t.Setenv("QUIZGEN_LLM_MAX_ATTEMPTS", "")
	for _, vendor := range []string{"OPENAI", "ANTHROPIC", "GEMINI", "OPENROUTER"} {
		t.Setenv(vendor+"_API_KEY", "")
		for _, suffix := range []string{"_API_KEY", "_MODEL", "_BASE_URL"} {
			t.Setenv("QUIZGEN_"+vendor+suffix, "")
		}
	}
	t.Setenv("QUIZGEN_OPENROUTER_REFERER", "")
	t.Setenv("QUIZGEN_OPENROUTER_TITLE", "")
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	clearLLMEnv(t)

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "quizgen", cfg.OpenRouter.Title)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)

	var nc *ErrNotConfigured
	require.ErrorAs(t, cfg.Validate(), &nc)
	assert.Equal(t, "QUIZGEN_OPENAI_API_KEY or OPENAI_API_KEY is required", nc.Reason)
}

func TestConfigFromEnv_KeyPrecedence(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-standard")
	assert.Equal(t, "sk-standard", ConfigFromEnv().OpenAI.APIKey)

	t.Setenv("QUIZGEN_OPENAI_API_KEY", "sk-prefixed")
	cfg := ConfigFromEnv()
	assert.Equal(t, "sk-prefixed", cfg.OpenAI.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QUIZGEN_LLM_PROVIDER", "openrouter")
	t.Setenv("QUIZGEN_OPENROUTER_MODEL", "anthropic/claude-3.5-haiku")
	t.Setenv("QUIZGEN_OPENROUTER_REFERER", "https://quiz.example.com")
	t.Setenv("QUIZGEN_ANTHROPIC_BASE_URL", "http://proxy.internal")
	t.Setenv("QUIZGEN_LLM_MAX_ATTEMPTS", "3")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenRouter, cfg.Provider)
	assert.Equal(t, "anthropic/claude-3.5-haiku", cfg.OpenRouter.Model)
	assert.Equal(t, "https://quiz.example.com", cfg.OpenRouter.Referer)
	assert.Equal(t, "http://proxy.internal", cfg.Anthropic.BaseURL)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	for _, bad := range []string{"zero", "0", "-2"} {
		t.Setenv("QUIZGEN_LLM_MAX_ATTEMPTS", bad)
		assert.Equal(t, 1, ConfigFromEnv().Retry.MaxAttempts, bad)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		wantNC bool
		wantOK bool
	}{
		{"mock needs nothing", Config{Provider: ProviderMock}, false, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, false, true},
		{"gemini without key", Config{Provider: ProviderGemini}, true, false},
		{"unknown", Config{Provider: "llama"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			var nc *ErrNotConfigured
			assert.Equal(t, tt.wantNC, errors.As(err, &nc), "err = %v", err)
			assert.Error(t, err)
		})
	}
}

func TestNewProviderFromEnv_NotConfigured(t *testing.T) {
	clearLLMEnv(t)

	p, err := NewProviderFromEnv(t.Context(), nil, nil)
	var nc *ErrNotConfigured
	require.ErrorAs(t, err, &nc)
	require.NotNil(t, p, "a stand-in provider is returned")

	_, genErr := p.Generate(t.Context(), Request{})
	assert.ErrorAs(t, genErr, &nc)
}

func TestConfigFromEnv_AutoSelect(t *testing.T) {
	clearLLMEnv(t)
	assert.Equal(t, ProviderOpenAI, ConfigFromEnv().Provider, "default without keys")

	t.Setenv("OPENROUTER_API_KEY", "sk-or")
	assert.Equal(t, ProviderOpenRouter, ConfigFromEnv().Provider)

	t.Setenv("QUIZGEN_ANTHROPIC_API_KEY", "sk-ant")
	assert.Equal(t, ProviderAnthropic, ConfigFromEnv().Provider)

	t.Setenv("OPENAI_API_KEY", "sk-oai")
	assert.Equal(t, ProviderOpenAI, ConfigFromEnv().Provider)

	t.Setenv("QUIZGEN_LLM_PROVIDER", "gemini")
	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderGemini, cfg.Provider, "explicit choice wins")
	assert.Error(t, cfg.Validate())
}
