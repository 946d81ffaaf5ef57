package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/quizgen/internal/store"
)

// NewProvider builds the configured vendor provider. Calls pass through
// retry first and logging second, so every attempt is logged and
// recorded in events (which may be nil).
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger, events store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, cfg.Provider, logger, events), cfg.Retry), nil
}

// NewProviderFromEnv is NewProvider over ConfigFromEnv. Missing
// credentials come back as *ErrNotConfigured together with a provider
// that fails every call the same way, so the server can still serve the
// routes that need no model.
func NewProviderFromEnv(ctx context.Context, logger *slog.Logger, events store.EventRepo) (Provider, error) {
	p, err := NewProvider(ctx, ConfigFromEnv(), logger, events)
	var nc *ErrNotConfigured
	if errors.As(err, &nc) {
		return NewUnconfiguredProvider(nc), err
	}
	return p, err
}
