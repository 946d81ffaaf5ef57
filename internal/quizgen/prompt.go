package quizgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizgen/internal/quiz"
)

const systemPrompt = "You return only valid JSON."

// BuildPrompt constructs the user message asking for n questions about
// topic. background, when non-empty, is embedded as grounding material.
func BuildPrompt(topic string, difficulty quiz.Difficulty, background string, n, optionsPerQuestion int) string {
	safeTopic := strings.ReplaceAll(topic, `"`, `\"`)

	var b strings.Builder

	fmt.Fprintf(&b, "You are a precise quiz generator. Create exactly %d multiple-choice questions about the exact topic/sense: \"%s\" at %s difficulty.\n",
		n, safeTopic, difficulty)

	if background != "" {
		b.WriteString("Use ONLY the following context to ensure factual accuracy. If the context appears to be a disambiguation blurb (not a single-topic summary), ignore it. If context is insufficient, stick to widely accepted facts.\n\n")
		b.WriteString("CONTEXT:\n")
		b.WriteString(background)
		b.WriteString("\n\n")
	}

	b.WriteString(`
Rules:
- Output JSON only (no prose).
- Treat the topic as the exact Wikipedia page title. If it has parentheses, that qualifier defines the sense.
- If the term is ambiguous and no qualifier is provided, choose ONE sense deterministically and proceed:
		- Prefer the Wikipedia primary topic if one exists.
		- Otherwise, use the most globally well-known sense in general knowledge.
		- If the provided CONTEXT clearly implies a sense, prefer that sense.
		- Do not ask for clarification; do not include any notes about the choice.
- Do NOT include facts from any other sense with the same word. Never mix senses.
- Do NOT mention or compare other senses.
`)
	fmt.Fprintf(&b, "- Each question item must be: { \"question\": string, \"options\": array of %d strings, \"answerIndex\": 0-%d, \"explanation\": string }.\n",
		optionsPerQuestion, optionsPerQuestion-1)
	b.WriteString(`- Exactly one correct option; others must be plausible but incorrect for THIS sense only.

Return a JSON object with this exact shape:
{
	"chosenTitle": string, // the precise Wikipedia-like title for the chosen sense, e.g. "Mercury (planet)" or "Python (programming language)"
	"questions": [ ...items ]
}`)

	return b.String()
}
