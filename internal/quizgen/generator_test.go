package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/retrieval"
)

type fakeRetriever struct {
	info    *retrieval.PageInfo
	summary string

	pageCalls    int
	summaryCalls int
}

func (f *fakeRetriever) FetchPageInfo(_ context.Context, _ string) (*retrieval.PageInfo, bool) {
	f.pageCalls++
	return f.info, f.info != nil
}

func (f *fakeRetriever) FetchSummary(_ context.Context, _ string) (string, bool) {
	f.summaryCalls++
	return f.summary, f.summary != ""
}

func questionsJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Question number %d?", "options": ["a", "b", "c", "d"], "answerIndex": %d, "explanation": "because"}`, i+1, i%4)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func modelOutput(title string, n int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"chosenTitle": %q, "questions": %s}`, title, questionsJSON(n)))
}

func newTestGenerator(p llm.Provider, r Retriever) (*Generator, *cache.Cache) {
	c := cache.New(nil, cache.NewMemory(nil), nil)
	return New(p, r, c, DefaultConfig(), nil), c
}

func TestGenerate_Basic(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: modelOutput("Mercury (planet)", 5),
		Usage:   llm.Usage{InputTokens: 120, OutputTokens: 300},
	})
	gen, _ := newTestGenerator(mock, nil)

	out, err := gen.Generate(context.Background(), Input{Topic: "  Mercury  ", Difficulty: quiz.DifficultyEasy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.CacheHit {
		t.Error("expected a fresh quiz")
	}
	if out.Quiz.Topic != "Mercury" {
		t.Errorf("topic = %q, want sanitized Mercury", out.Quiz.Topic)
	}
	if len(out.Quiz.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(out.Quiz.Questions))
	}
	if out.AssumedTitle != "Mercury (planet)" {
		t.Errorf("assumed title = %q", out.AssumedTitle)
	}
	if out.Usage.TotalTokens != 420 {
		t.Errorf("total tokens = %d, want 420", out.Usage.TotalTokens)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 LLM call, got %d", mock.CallCount())
	}
	req := mock.Calls[0]
	if !req.JSON || req.Schema != nil {
		t.Error("expected JSON mode without a schema")
	}
	if req.System != "You return only valid JSON." {
		t.Errorf("unexpected system prompt %q", req.System)
	}
	if req.MaxTokens != 1200 || req.Temperature != 0 {
		t.Errorf("unexpected limits: max_tokens=%d temperature=%v", req.MaxTokens, req.Temperature)
	}
	if !strings.Contains(req.Messages[0].Content, "Create exactly 5 multiple-choice") {
		t.Error("expected default question count in prompt")
	}
}

func TestGenerate_DefaultDifficulty(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: modelOutput("Go", 5)})
	gen, _ := newTestGenerator(mock, nil)

	out, err := gen.Generate(context.Background(), Input{Topic: "Go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Quiz.Difficulty != quiz.DifficultyMedium {
		t.Errorf("difficulty = %q, want Medium", out.Quiz.Difficulty)
	}
}

func TestGenerate_InvalidTopic(t *testing.T) {
	mock := llm.NewMockProvider()
	gen, _ := newTestGenerator(mock, nil)

	for _, topic := range []string{"", " ", "<>", "a"} {
		_, err := gen.Generate(context.Background(), Input{Topic: topic})
		if !errors.Is(err, quiz.ErrInvalidTopic) {
			t.Errorf("topic %q: expected ErrInvalidTopic, got %v", topic, err)
		}
	}
	if mock.CallCount() != 0 {
		t.Error("model should not be called for invalid topics")
	}
}

func TestGenerate_CacheHit(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: modelOutput("Python", 5)})
	gen, _ := newTestGenerator(mock, nil)
	ctx := context.Background()

	first, err := gen.Generate(ctx, Input{Topic: "Python", Difficulty: quiz.DifficultyHard})
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}

	// Case differences share a cache entry.
	second, err := gen.Generate(ctx, Input{Topic: "python", Difficulty: quiz.DifficultyHard})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("expected cache hit")
	}
	if second.Quiz.Topic != first.Quiz.Topic || len(second.Quiz.Questions) != 5 {
		t.Errorf("cached quiz differs: %+v", second.Quiz)
	}
	if second.AssumedTitle != "" || second.Usage != (llm.Usage{}) {
		t.Error("cache hits carry no generation metadata")
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 LLM call, got %d", mock.CallCount())
	}
}

func TestGenerate_ForceFresh(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: modelOutput("Python", 5)},
		llm.MockResponse{Content: modelOutput("Python", 6)},
	)
	gen, c := newTestGenerator(mock, nil)
	ctx := context.Background()

	if _, err := gen.Generate(ctx, Input{Topic: "Python"}); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	out, err := gen.Generate(ctx, Input{Topic: "Python", NumQuestions: 6, ForceFresh: true})
	if err != nil {
		t.Fatalf("fresh generate: %v", err)
	}
	if out.CacheHit || len(out.Quiz.Questions) != 6 {
		t.Errorf("expected a fresh 6-question quiz, got hit=%v n=%d", out.CacheHit, len(out.Quiz.Questions))
	}

	var cached quiz.Quiz
	if !c.Get(ctx, CacheKey(quiz.DifficultyMedium, "python"), &cached) {
		t.Fatal("expected fresh quiz to be cached")
	}
	if len(cached.Questions) != 6 {
		t.Errorf("cache holds %d questions, want 6", len(cached.Questions))
	}
}

func TestGenerate_ClampsQuestionCount(t *testing.T) {
	tests := []struct {
		requested int
		want      string
	}{
		{1, "Create exactly 5 "},
		{8, "Create exactly 8 "},
		{42, "Create exactly 10 "},
	}
	for _, tt := range tests {
		mock := llm.NewMockProvider(llm.MockResponse{Content: modelOutput("Go", 5)})
		gen, _ := newTestGenerator(mock, nil)

		if _, err := gen.Generate(context.Background(), Input{Topic: "Go", NumQuestions: tt.requested}); err != nil {
			t.Fatalf("requested %d: %v", tt.requested, err)
		}
		if !strings.Contains(mock.Calls[0].Messages[0].Content, tt.want) {
			t.Errorf("requested %d: prompt missing %q", tt.requested, tt.want)
		}
	}
}

func TestGenerate_Retrieval(t *testing.T) {
	r := &fakeRetriever{info: &retrieval.PageInfo{
		Title:   "Mercury",
		Extract: "Mercury may refer to a planet, an element or a god.",
		Type:    retrieval.TypeDisambiguation,
	}}
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"questions": ` + questionsJSON(5) + `}`),
	})
	gen, _ := newTestGenerator(mock, r)

	out, err := gen.Generate(context.Background(), Input{Topic: "mercury", UseRetrieval: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Ambiguous {
		t.Error("expected disambiguation page to mark the quiz ambiguous")
	}
	if out.AssumedTitle != "Mercury" {
		t.Errorf("assumed title = %q, want retrieval title", out.AssumedTitle)
	}
	if r.summaryCalls != 0 {
		t.Error("summary should not be fetched when the page has an extract")
	}

	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, `topic/sense: "Mercury"`) {
		t.Error("expected retrieval title in prompt")
	}
	if !strings.Contains(prompt, "CONTEXT:\nMercury may refer to") {
		t.Error("expected extract as context")
	}
}

func TestGenerate_RetrievalSummaryFallback(t *testing.T) {
	r := &fakeRetriever{
		info:    &retrieval.PageInfo{Title: "Go (programming language)", Type: retrieval.TypeStandard},
		summary: "Go is a statically typed language.",
	}
	mock := llm.NewMockProvider(llm.MockResponse{Content: modelOutput("Go (programming language)", 5)})
	gen, _ := newTestGenerator(mock, r)

	out, err := gen.Generate(context.Background(), Input{Topic: "golang", UseRetrieval: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Ambiguous {
		t.Error("standard page should not be ambiguous")
	}
	if r.summaryCalls != 1 {
		t.Errorf("summary calls = %d, want 1", r.summaryCalls)
	}
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "Go is a statically typed language.") {
		t.Error("expected summary as context")
	}
}

func TestGenerate_NoRetrievalWhenDisabled(t *testing.T) {
	r := &fakeRetriever{summary: "unused"}
	mock := llm.NewMockProvider(llm.MockResponse{Content: modelOutput("Go", 5)})
	gen, _ := newTestGenerator(mock, r)

	if _, err := gen.Generate(context.Background(), Input{Topic: "Go"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.pageCalls+r.summaryCalls != 0 {
		t.Error("retriever should not be called")
	}
}

func TestGenerate_ArrayInProse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage("Sure! Here are your questions:\n" + questionsJSON(5) + "\nGood luck."),
	})
	gen, _ := newTestGenerator(mock, nil)

	out, err := gen.Generate(context.Background(), Input{Topic: "Chess"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Quiz.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(out.Quiz.Questions))
	}
	if out.AssumedTitle != "" {
		t.Errorf("assumed title = %q, want empty", out.AssumedTitle)
	}
}

func TestGenerate_Unparseable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("I'm not able to do that.")})
	gen, c := newTestGenerator(mock, nil)

	_, err := gen.Generate(context.Background(), Input{Topic: "Chess"})
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}

	var cached quiz.Quiz
	if c.Get(context.Background(), CacheKey(quiz.DifficultyMedium, "chess"), &cached) {
		t.Error("failed generation must not be cached")
	}
}

func TestGenerate_AllQuestionsMalformed(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"questions": [{"question": "Which?", "options": ["a", "b", "c"], "answerIndex": 0}]}`),
	})
	gen, _ := newTestGenerator(mock, nil)

	_, err := gen.Generate(context.Background(), Input{Topic: "Chess"})
	var verr *quiz.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *quiz.ValidationError, got %v", err)
	}
}

func TestGenerate_DropsMalformedQuestions(t *testing.T) {
	content := `{"questions": [
		{"question": "Good one?", "options": ["a", "b", "c", "d"], "answerIndex": 1},
		{"question": "", "options": ["a", "b", "c", "d"], "answerIndex": 1},
		{"question": "Bad index?", "options": ["a", "b", "c", "d"], "answerIndex": 4}
	]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)})
	gen, _ := newTestGenerator(mock, nil)

	out, err := gen.Generate(context.Background(), Input{Topic: "Chess"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Quiz.Questions) != 1 || out.Quiz.Questions[0].Question != "Good one?" {
		t.Errorf("unexpected questions %+v", out.Quiz.Questions)
	}
}

func TestGenerate_ProviderErrors(t *testing.T) {
	notConfigured := &llm.ErrNotConfigured{Provider: "openai", Reason: "missing API key"}
	mock := llm.NewMockProvider(llm.MockResponse{Err: notConfigured})
	gen, _ := newTestGenerator(mock, nil)

	_, err := gen.Generate(context.Background(), Input{Topic: "Chess"})
	var nc *llm.ErrNotConfigured
	if !errors.As(err, &nc) {
		t.Fatalf("expected *llm.ErrNotConfigured, got %v", err)
	}
	if errors.Is(err, ErrUnparseable) {
		t.Error("provider failures are not parse failures")
	}
}

func TestGenerate_Purpose(t *testing.T) {
	var seen string
	p := purposeProvider{inner: llm.NewMockProvider(llm.MockResponse{Content: modelOutput("Go", 5)}), seen: &seen}
	gen, _ := newTestGenerator(p, nil)

	if _, err := gen.Generate(context.Background(), Input{Topic: "Go"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != Purpose {
		t.Errorf("purpose = %q, want %q", seen, Purpose)
	}
}

type purposeProvider struct {
	inner llm.Provider
	seen  *string
}

func (p purposeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	*p.seen = llm.PurposeFrom(ctx)
	return p.inner.Generate(ctx, req)
}

func (p purposeProvider) ModelID() string { return p.inner.ModelID() }

func TestCacheKey(t *testing.T) {
	if got := CacheKey(quiz.DifficultyHard, "Mercury (Planet)"); got != "quiz:Hard:mercury (planet)" {
		t.Errorf("CacheKey = %q", got)
	}
}
