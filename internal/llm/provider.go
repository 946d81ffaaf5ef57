// Package llm talks to hosted language models. Every vendor sits behind
// Provider, and cross-cutting behavior (retries, request logging) is added
// by wrapping one Provider in another.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a completion for a Request.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, before any vendor-side aliasing.
	ModelID() string
}

// Request is a vendor-neutral completion request.
type Request struct {
	System   string
	Messages []Message

	// JSON asks for a bare JSON object. Vendors with a JSON mode get it
	// switched on; Anthropic is steered by prefilling the reply with "{".
	// The text is handed back unparsed either way.
	JSON bool

	// Schema, when set, selects the vendor's structured output mode and
	// the reply is validated against it before Generate returns.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role identifies who wrote a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserMessage returns a single-turn conversation.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema is a named JSON Schema for structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is what came back. Content is the model's raw text, which for
// JSON and Schema requests is the JSON document itself.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Usage is the token accounting for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// newUsage fills TotalTokens when the vendor leaves it out.
func newUsage(in, out, total int) Usage {
	if total == 0 {
		total = in + out
	}
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: total}
}

// finish validates structured output and builds the Response shared by
// every vendor implementation.
func finish(req Request, text, model, stop string, usage Usage) (*Response, error) {
	content := json.RawMessage(text)
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}
