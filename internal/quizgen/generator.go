// Package quizgen runs the quiz generation pipeline: optional retrieval,
// prompting, model output parsing, normalization, validation and caching.
package quizgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/retrieval"
)

// Purpose labels model calls made by the generator in the event log.
const Purpose = "quiz-gen"

// Retriever supplies background text for a topic. Both lookups are best
// effort and report false when nothing usable was found.
type Retriever interface {
	FetchSummary(ctx context.Context, topic string) (string, bool)
	FetchPageInfo(ctx context.Context, topic string) (*retrieval.PageInfo, bool)
}

// Input is a single generation request.
type Input struct {
	Topic      string
	Difficulty quiz.Difficulty
	// UseRetrieval grounds the prompt in a Wikipedia extract.
	UseRetrieval bool
	// NumQuestions is clamped to the configured bounds; zero means the
	// minimum.
	NumQuestions int
	// ForceFresh drops any cached quiz for this topic before generating.
	ForceFresh bool
}

// Output is a generated or cached quiz with generation metadata.
type Output struct {
	Quiz     quiz.Quiz
	CacheHit bool
	// Ambiguous is true when retrieval landed on a disambiguation page.
	Ambiguous bool
	// AssumedTitle is the sense the quiz was written for: the model's
	// chosenTitle, else the retrieval title. Empty when neither exists.
	AssumedTitle string
	Usage        llm.Usage
}

// Generator produces quizzes using an LLM provider.
type Generator struct {
	provider  llm.Provider
	retriever Retriever
	cache     *cache.Cache
	validator *quiz.Validator
	config    Config
	logger    *slog.Logger
}

// New creates a Generator. retriever and c may be nil, which disables
// retrieval and caching respectively.
func New(provider llm.Provider, retriever Retriever, c *cache.Cache, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider:  provider,
		retriever: retriever,
		cache:     c,
		validator: quiz.NewValidator(cfg.OptionsPerQuestion),
		config:    cfg,
		logger:    logger,
	}
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.config
}

// CacheKey returns the cache key for a quiz about topic at difficulty.
// topic is expected to be sanitized already.
func CacheKey(difficulty quiz.Difficulty, topic string) string {
	return fmt.Sprintf("quiz:%s:%s", difficulty, strings.ToLower(topic))
}

// Generate returns a quiz for input. Errors are quiz.ErrInvalidTopic,
// ErrUnparseable, *quiz.ValidationError, or a wrapped provider error.
func (g *Generator) Generate(ctx context.Context, input Input) (*Output, error) {
	topic := quiz.SanitizeTopic(input.Topic)
	if !quiz.IsTopicValid(topic) {
		return nil, quiz.ErrInvalidTopic
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = quiz.DifficultyMedium
	}

	key := CacheKey(difficulty, topic)
	if g.cache != nil {
		if input.ForceFresh {
			g.cache.Del(ctx, key)
		} else {
			var cached quiz.Quiz
			if g.cache.Get(ctx, key, &cached) {
				g.logger.DebugContext(ctx, "quiz cache hit", "key", key)
				return &Output{Quiz: cached, CacheHit: true}, nil
			}
		}
	}

	var background, assumedTitle string
	var ambiguous bool
	if input.UseRetrieval && g.retriever != nil {
		if info, ok := g.retriever.FetchPageInfo(ctx, topic); ok {
			assumedTitle = info.Title
			ambiguous = info.Type == retrieval.TypeDisambiguation
			background = info.Extract
		}
		if background == "" {
			background, _ = g.retriever.FetchSummary(ctx, topic)
		}
	}

	n := g.config.ClampQuestions(input.NumQuestions)

	promptTopic := topic
	if assumedTitle != "" {
		promptTopic = assumedTitle
	}

	req := llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(BuildPrompt(promptTopic, difficulty, background, n, g.config.OptionsPerQuestion)),
		JSON:        true,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, Purpose), req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	doc, err := parseModelOutput(string(resp.Content))
	if err != nil {
		g.logger.WarnContext(ctx, "unparseable model output", "topic", topic, "bytes", len(resp.Content))
		return nil, err
	}

	chosenTitle := ""
	if t := doc.Get("chosenTitle"); doc.IsObject() && t.Type == gjson.String {
		chosenTitle = t.Str
	}

	q := quiz.Quiz{
		Topic:      topic,
		Difficulty: difficulty,
		Questions:  quiz.NormalizeQuestions(doc, g.config.OptionsPerQuestion),
	}
	if err := g.validator.Validate(q); err != nil {
		return nil, err
	}

	if g.cache != nil {
		g.cache.Set(ctx, key, q, g.config.QuizTTL)
	}

	out := &Output{
		Quiz:         q,
		Ambiguous:    ambiguous,
		AssumedTitle: assumedTitle,
		Usage:        resp.Usage,
	}
	if chosenTitle != "" {
		out.AssumedTitle = chosenTitle
	}
	if out.Usage.TotalTokens == 0 {
		out.Usage.TotalTokens = out.Usage.InputTokens + out.Usage.OutputTokens
	}

	g.logger.InfoContext(ctx, "quiz generated",
		"topic", topic,
		"difficulty", difficulty,
		"questions", len(q.Questions),
		"retrieval", background != "",
		"ambiguous", ambiguous,
	)

	return out, nil
}
