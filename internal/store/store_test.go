package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/quizgen/internal/quiz"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuiz(topic string) quiz.Quiz {
	return quiz.Quiz{
		Topic:      topic,
		Difficulty: quiz.DifficultyMedium,
		Questions: []quiz.Question{
			{Question: "Closest planet to the Sun?", Options: []string{"Mercury", "Venus", "Earth", "Mars"}, AnswerIndex: 0, Explanation: "Mercury orbits closest."},
			{Question: "Largest planet?", Options: []string{"Saturn", "Jupiter", "Neptune", "Uranus"}, AnswerIndex: 1},
		},
	}
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Client() == nil {
		t.Fatal("expected non-nil ent client")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mongodb", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestQuizSaveIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	id1, err := repo.Save(ctx, testQuiz("Planets"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id2, err := repo.Save(ctx, testQuiz("Planets"))
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected identical quizzes to share an id, got %s and %s", id1, id2)
	}

	count, err := s.Client().Quiz.Query().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("stored quizzes = %d, want 1", count)
	}

	// Any change in content is a different quiz.
	changed := testQuiz("Planets")
	changed.Questions[1].Explanation = "Jupiter is the largest."
	id3, err := repo.Save(ctx, changed)
	if err != nil {
		t.Fatalf("save changed: %v", err)
	}
	if id3 == id1 {
		t.Fatal("expected a new id for different content")
	}
}

func TestQuizInsertLosingRaceReturnsExistingID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	q := testQuiz("Planets")

	id, err := s.QuizRepo().Save(ctx, q)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// A second writer that missed the lookup hits the unique signature.
	repo := &quizRepo{client: s.Client()}
	got, err := repo.insert(ctx, q, q.ContentSignature())
	if err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}
	if got != id {
		t.Errorf("insert returned %s, want existing %s", got, id)
	}
}

func TestQuizSaveConcurrent(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	const writers = 8
	ids := make([]string, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i], errs[i] = repo.Save(ctx, testQuiz("Planets"))
		}()
	}
	wg.Wait()

	for i := range writers {
		if errs[i] != nil {
			t.Fatalf("writer %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("writer %d got id %s, want %s", i, ids[i], ids[0])
		}
	}
	count, err := s.Client().Quiz.Query().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("stored quizzes = %d, want 1", count)
	}
}

func TestQuizQuestionsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	want := testQuiz("Planets")
	id, err := repo.Save(ctx, want)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Questions, want.Questions) {
		t.Errorf("questions = %+v, want %+v", got.Questions, want.Questions)
	}
	if got.ContentSignature() != want.ContentSignature() {
		t.Error("signature changed across a store round trip")
	}
}

func TestQuizGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	id, err := repo.Save(ctx, testQuiz("Planets"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	q, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.ID != id || q.Topic != "Planets" || q.Difficulty != quiz.DifficultyMedium {
		t.Errorf("unexpected quiz %+v", q)
	}
	if len(q.Questions) != 2 || q.Questions[0].Explanation != "Mercury orbits closest." {
		t.Errorf("questions not round-tripped: %+v", q.Questions)
	}
	if q.CreatedAt == nil || q.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}

	if _, err := repo.Get(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if _, err := repo.Get(ctx, "6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuizRecentCollapsesNearDuplicates(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	first := testQuiz("Planets")
	reworded := testQuiz("Planets")
	reworded.Questions[0].Explanation = "It has the smallest orbit."
	other := testQuiz("Moons")

	for _, q := range []quiz.Quiz{first, reworded, other} {
		if _, err := repo.Save(ctx, q); err != nil {
			t.Fatalf("save %s: %v", q.Topic, err)
		}
	}

	recent, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 listed quizzes, got %d", len(recent))
	}
	if recent[0].Topic != "Moons" {
		t.Errorf("expected newest first, got %q", recent[0].Topic)
	}
}

func TestResultCreateScoresAndPads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	quizID, err := s.QuizRepo().Save(ctx, testQuiz("Planets"))
	if err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	res, err := s.ResultRepo().Create(ctx, quizID, []int{0})
	if err != nil {
		t.Fatalf("create result: %v", err)
	}
	if len(res.Answers) != 2 || res.Answers[1] != quiz.Unanswered {
		t.Errorf("answers = %v, want padded with -1", res.Answers)
	}
	if res.Score.Correct != 1 || res.Score.Total != 2 {
		t.Errorf("score = %+v, want 1/2", res.Score)
	}

	got, err := s.ResultRepo().Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.QuizID != quizID {
		t.Errorf("quizId = %s, want %s", got.QuizID, quizID)
	}
	if len(got.Correctness) != 2 || !got.Correctness[0] || got.Correctness[1] {
		t.Errorf("correctness = %v, want [true false]", got.Correctness)
	}
}

func TestResultCreateMissingQuiz(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.ResultRepo().Create(ctx, "6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", []int{0})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = s.ResultRepo().Create(ctx, "abc", []int{0})
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestResultRecentJoinsQuiz(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	quizID, err := s.QuizRepo().Save(ctx, testQuiz("Planets"))
	if err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.ResultRepo().Create(ctx, quizID, []int{i % 2, 1}); err != nil {
			t.Fatalf("create result %d: %v", i, err)
		}
	}

	results, err := s.ResultRepo().Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.QuizTopic != "Planets" || r.QuizDifficulty != quiz.DifficultyMedium || r.QuizCreatedAt == nil {
			t.Errorf("quiz metadata not joined: %+v", r)
		}
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", RequestID: "req-1", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "[user]\nquiz", ResponseBody: "{}"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "openai", Model: "gpt-4o", Purpose: "cli", Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "cli", Limit: 10})
	if err != nil {
		t.Fatalf("query by purpose: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ErrorMessage != "rate limited" {
		t.Fatalf("unexpected filtered events %+v", filtered)
	}

	byRequest, err := repo.QueryLLMEvents(ctx, QueryOpts{RequestID: "req-1"})
	if err != nil {
		t.Fatalf("query by request id: %v", err)
	}
	if len(byRequest) != 1 || byRequest[0].RequestID != "req-1" || byRequest[0].InputTokens != 100 {
		t.Fatalf("unexpected events for req-1: %+v", byRequest)
	}

	e, err := repo.GetLLMEvent(ctx, filtered[0].ID)
	if err != nil || e == nil {
		t.Fatalf("get event: %v", err)
	}
	if e.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", e.Model)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing event, got %+v, %v", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	var gen *LLMUsage
	for i := range usage {
		if usage[i].Purpose == "quiz-gen" {
			gen = &usage[i]
		}
	}
	if gen == nil {
		t.Fatalf("missing quiz-gen usage in %+v", usage)
	}
	if gen.Calls != 2 || gen.InputTokens != 400 || gen.OutputTokens != 200 || gen.AvgLatencyMs != 300 {
		t.Errorf("unexpected quiz-gen usage %+v", gen)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 {
		t.Errorf("expected 2 models, got %d", len(byModel))
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quizgen.db")

	s, err := Open(context.Background(), DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("expected database directory to exist: %v", err)
	}
}
