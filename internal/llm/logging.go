package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/quizgen/internal/store"
)

// LoggingProvider writes one log line per call and, with a repo, records
// the call as an LLM request event.
type LoggingProvider struct {
	inner    Provider
	provider string
	logger   *slog.Logger
	events   store.EventRepo
	now      func() time.Time
}

// WithLogging wraps p. logger and events may be nil.
func WithLogging(p Provider, providerName string, logger *slog.Logger, events store.EventRepo) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: providerName, logger: logger, events: events, now: time.Now}
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := l.now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		RequestID:   RequestIDFrom(ctx),
		LatencyMs:   l.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}

	attrs := []any{
		"provider", ev.Provider,
		"model", ev.Model,
		"purpose", ev.Purpose,
		"latency_ms", ev.LatencyMs,
	}
	if ev.RequestID != "" {
		attrs = append(attrs, "request_id", ev.RequestID)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		l.logger.WarnContext(ctx, "llm request failed", append(attrs, "error", err)...)
	} else {
		attrs = append(attrs, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)
		if usd, ok := EstimateCost(ev.Model, resp.Usage); ok {
			attrs = append(attrs, "cost_usd", usd)
		}
		l.logger.InfoContext(ctx, "llm request", attrs...)
	}

	if l.events != nil {
		// Recording is best effort; the caller still gets the model's answer.
		if recErr := l.events.AppendLLMRequest(ctx, ev); recErr != nil {
			l.logger.WarnContext(ctx, "record llm request event", "error", recErr)
		}
	}
	return resp, err
}

// renderRequest flattens a request into the text kept with the event.
func renderRequest(req Request) string {
	var b strings.Builder
	section := func(label, body string) {
		b.WriteString("[" + label + "]\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	switch {
	case req.Schema != nil:
		def, _ := json.Marshal(req.Schema.Definition)
		section("schema: "+req.Schema.Name, string(def))
	case req.JSON:
		b.WriteString("[format: json]\n")
	}
	return b.String()
}
