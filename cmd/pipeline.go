package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/config"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/ratelimit"
	"github.com/abhisek/quizgen/internal/retrieval"
	"github.com/abhisek/quizgen/internal/store"
)

// pipeline is the wired generation stack shared by serve and generate.
type pipeline struct {
	generator *quizgen.Generator
	limiter   *ratelimit.Limiter
	redis     *redis.Client
}

func (p *pipeline) Close() error {
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}

// buildPipeline wires cache, rate limiter, retrieval and the LLM provider.
// An unconfigured provider is not fatal: generation then fails with
// *llm.ErrNotConfigured while everything else keeps working. events may
// be nil.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, events store.EventRepo) (*pipeline, error) {
	p := &pipeline{}

	var sharedCache cache.Backend
	var sharedLimits ratelimit.Backend
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse QUIZGEN_REDIS_URL: %w", err)
		}
		p.redis = redis.NewClient(opt)
		if err := p.redis.Ping(ctx).Err(); err != nil {
			// Each call falls back to memory while Redis is down.
			logger.WarnContext(ctx, "redis unreachable, using in-process fallback until it recovers", "error", err)
		}
		sharedCache = cache.NewRedis(p.redis)
		sharedLimits = ratelimit.NewRedis(p.redis)
	}

	c := cache.New(sharedCache, cache.NewMemory(nil), logger)
	p.limiter = ratelimit.New(sharedLimits, ratelimit.NewMemory(nil), logger)

	provider, err := llm.NewProviderFromEnv(ctx, logger, events)
	if err != nil {
		var nc *llm.ErrNotConfigured
		if !errors.As(err, &nc) {
			p.Close()
			return nil, fmt.Errorf("LLM provider: %w", err)
		}
		logger.WarnContext(ctx, "LLM provider not configured, quiz generation disabled", "error", err)
	}

	wiki := retrieval.New(c, logger, retrieval.WithBaseURL(cfg.WikipediaURL))

	genCfg := quizgen.DefaultConfig()
	genCfg.MinQuestions = cfg.MinQuestions
	genCfg.MaxQuestions = cfg.MaxQuestions
	genCfg.OptionsPerQuestion = cfg.OptionsPerQuestion

	p.generator = quizgen.New(provider, wiki, c, genCfg, logger)
	return p, nil
}
