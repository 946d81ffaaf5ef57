package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/ratelimit"
)

func modelQuiz(n int) json.RawMessage {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Question %d?", "options": ["a", "b", "c", "d"], "answerIndex": %d, "explanation": "e"}`, i+1, i%4)
	}
	return json.RawMessage(`{"chosenTitle": "Chess", "questions": [` + strings.Join(items, ",") + `]}`)
}

type testEnv struct {
	srv     *httptest.Server
	mock    *llm.MockProvider
	store   *memStore
	limiter *ratelimit.Limiter
}

func newTestEnv(t *testing.T, withStore bool, limit RateLimit) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := llm.NewMockProvider()
	gen := quizgen.New(mock, nil, cache.New(nil, nil, logger), quizgen.DefaultConfig(), logger)

	env := &testEnv{mock: mock, limiter: ratelimit.New(nil, nil, logger)}
	opts := Options{
		Generator:     gen,
		Limiter:       env.limiter,
		GenerateLimit: limit,
		CORSOrigins:   []string{"http://localhost:3000"},
		Logger:        logger,
	}
	if withStore {
		env.store = newMemStore()
		opts.Quizzes = env.store
		opts.Results = memResults{env.store}
	}

	env.srv = httptest.NewServer(New(opts).Handler())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false, RateLimit{})
	before := time.Now().UnixMilli()

	resp, body := env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.GreaterOrEqual(t, int64(body["ts"].(float64)), before)
}

func TestGenerateQuiz(t *testing.T) {
	env := newTestEnv(t, false, RateLimit{})
	env.mock.AddResponse(llm.MockResponse{
		Content: modelQuiz(5),
		Usage:   llm.Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	})

	resp, body := env.do(t, http.MethodPost, "/api/generate-quiz", `{"topic": "Chess", "useRetrieval": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Equal(t, "Chess", body["topic"])
	assert.Equal(t, "Medium", body["difficulty"])
	assert.Len(t, body["questions"], 5)
	assert.Equal(t, false, body["_cacheHit"])
	assert.Equal(t, false, body["_ambiguous"])
	assert.Equal(t, "Chess", body["_assumedTitle"])
	assert.Equal(t, map[string]any{"prompt": 10.0, "completion": 20.0, "total": 30.0}, body["_usage"])

	// Second request is served from cache with no generation metadata.
	resp, body = env.do(t, http.MethodPost, "/api/generate-quiz", `{"topic": "chess", "useRetrieval": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["_cacheHit"])
	assert.NotContains(t, body, "_usage")
	assert.NotContains(t, body, "_ambiguous")
	assert.Equal(t, 1, env.mock.CallCount())
}

func TestGenerateQuizErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		model    *llm.MockResponse
		status   int
		errorMsg string
	}{
		{"malformed json", `{"topic":`, nil, http.StatusBadRequest, "Invalid request"},
		{"topic too short", `{"topic": "a"}`, nil, http.StatusBadRequest, "Invalid request"},
		{"bad difficulty", `{"topic": "Chess", "difficulty": "Extreme"}`, nil, http.StatusBadRequest, "Invalid request"},
		{"fractional count", `{"topic": "Chess", "numQuestions": 5.5}`, nil, http.StatusBadRequest, "Invalid request"},
		{"unspecific topic", `{"topic": "<>"}`, nil, http.StatusBadRequest, "Please provide a more specific topic."},
		{
			"unparseable output", `{"topic": "Chess", "useRetrieval": false}`,
			&llm.MockResponse{Content: json.RawMessage("no quiz today")},
			http.StatusBadGateway, "Model did not return JSON. Please try again.",
		},
		{
			"no valid questions", `{"topic": "Chess", "useRetrieval": false}`,
			&llm.MockResponse{Content: json.RawMessage(`{"questions": [{"question": "x"}]}`)},
			http.StatusBadRequest, "Invalid quiz",
		},
		{
			"not configured", `{"topic": "Chess", "useRetrieval": false}`,
			&llm.MockResponse{Err: &llm.ErrNotConfigured{Provider: "openai"}},
			http.StatusServiceUnavailable, "Quiz generation is not configured",
		},
		{
			"provider failure", `{"topic": "Chess", "useRetrieval": false}`,
			&llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("connection refused")}},
			http.StatusInternalServerError, "Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, RateLimit{})
			if tt.model != nil {
				env.mock.AddResponse(*tt.model)
			}
			resp, body := env.do(t, http.MethodPost, "/api/generate-quiz", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.errorMsg, body["error"])
		})
	}
}

func TestGenerateQuizRateLimited(t *testing.T) {
	env := newTestEnv(t, false, RateLimit{Max: 2, Window: time.Minute})

	// Invalid bodies still count against the budget.
	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, http.MethodPost, "/api/generate-quiz", `{}`, "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodPost, "/api/generate-quiz", `{}`, "X-Forwarded-For", "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests. Please try again shortly.", body["error"])
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	retry, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry >= 1 && retry <= 60, "Retry-After = %d", retry)

	reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, reset, time.Now().Unix()-1)

	// Another client has its own budget.
	resp, _ = env.do(t, http.MethodPost, "/api/generate-quiz", `{}`, "X-Real-IP", "198.51.100.2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 1.1.1.1 , 2.2.2.2", "X-Real-IP": "3.3.3.3"}, "4.4.4.4:1234", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "4.4.4.4:1234", "3.3.3.3"},
		{"remote addr", nil, "4.4.4.4:1234", "4.4.4.4"},
		{"ipv6 remote addr", nil, "[::1]:8080", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/generate-quiz", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

const postedQuiz = `{"topic": "Chess", "difficulty": "Easy", "questions": [
	{"question": "How many squares are on a board?", "options": ["32", "48", "64", "81"], "answerIndex": 2, "explanation": "8x8."},
	{"question": "Which piece moves in an L?", "options": ["Bishop", "Knight", "Rook", "King"], "answerIndex": 1}
]}`

func TestSaveQuizIsIdempotent(t *testing.T) {
	env := newTestEnv(t, true, RateLimit{})

	resp, first := env.do(t, http.MethodPost, "/api/quizzes", postedQuiz)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, first["ok"])
	id, _ := first["id"].(string)
	require.NotEmpty(t, id)

	resp, second := env.do(t, http.MethodPost, "/api/quizzes", postedQuiz)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, second["id"])

	resp, body := env.do(t, http.MethodGet, "/api/quizzes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["quizzes"], 1)
}

func TestSaveQuizRejectsInvalid(t *testing.T) {
	env := newTestEnv(t, true, RateLimit{})

	bad := strings.Replace(postedQuiz, `"answerIndex": 2`, `"answerIndex": 4`, 1)
	resp, body := env.do(t, http.MethodPost, "/api/quizzes", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["ok"])

	resp, _ = env.do(t, http.MethodPost, "/api/quizzes", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetQuiz(t *testing.T) {
	env := newTestEnv(t, true, RateLimit{})
	_, saved := env.do(t, http.MethodPost, "/api/quizzes", postedQuiz)
	id := saved["id"].(string)

	for _, path := range []string{"/api/quizzes?id=" + id, "/api/quizzes/" + id} {
		resp, body := env.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		q := body["quiz"].(map[string]any)
		assert.Equal(t, id, q["id"])
		assert.Equal(t, "Chess", q["topic"])
	}

	resp, body := env.do(t, http.MethodGet, "/api/quizzes/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, body["quiz"])

	resp, body = env.do(t, http.MethodGet, "/api/quizzes/6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "quiz")
	assert.Nil(t, body["quiz"])
}

func TestResults(t *testing.T) {
	env := newTestEnv(t, true, RateLimit{})
	_, saved := env.do(t, http.MethodPost, "/api/quizzes", postedQuiz)
	quizID := saved["id"].(string)

	resp, created := env.do(t, http.MethodPost, "/api/results", fmt.Sprintf(`{"quizId": %q, "answers": [2]}`, quizID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, created["ok"])
	resultID := created["id"].(string)

	resp, body := env.do(t, http.MethodGet, "/api/results/"+resultID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := body["result"].(map[string]any)
	assert.Equal(t, quizID, res["quizId"])
	assert.Equal(t, []any{2.0, -1.0}, res["answers"])
	assert.Equal(t, []any{true, false}, res["correctness"])
	assert.Equal(t, map[string]any{"correct": 1.0, "total": 2.0}, res["score"])

	resp, body = env.do(t, http.MethodGet, "/api/results", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := body["results"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, "Chess", listed[0].(map[string]any)["quizTopic"])
	assert.Equal(t, "Easy", listed[0].(map[string]any)["quizDifficulty"])
}

func TestCreateResultErrors(t *testing.T) {
	env := newTestEnv(t, true, RateLimit{})

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"empty answers", `{"quizId": "6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", "answers": []}`, http.StatusBadRequest, "Invalid payload"},
		{"answer out of range", `{"quizId": "6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", "answers": [4]}`, http.StatusBadRequest, "Invalid payload"},
		{"below unanswered", `{"quizId": "6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", "answers": [-2]}`, http.StatusBadRequest, "Invalid payload"},
		{"missing quiz id", `{"answers": [0]}`, http.StatusBadRequest, "Invalid payload"},
		{"malformed quiz id", `{"quizId": "abc", "answers": [0]}`, http.StatusBadRequest, "Invalid id"},
		{"unknown quiz", `{"quizId": "6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", "answers": [0]}`, http.StatusNotFound, "Quiz not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/results", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestWithoutStore(t *testing.T) {
	env := newTestEnv(t, false, RateLimit{})

	resp, body := env.do(t, http.MethodGet, "/api/quizzes", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["quizzes"])

	resp, body = env.do(t, http.MethodGet, "/api/results?id=6f1c2f4e-8a6b-4c1e-9a51-2f0d3b7c9e11", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["results"])

	resp, body = env.do(t, http.MethodPost, "/api/quizzes", postedQuiz)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, map[string]any{"ok": false, "error": "Database not configured"}, body)

	// The store check comes before body validation.
	resp, body = env.do(t, http.MethodPost, "/api/results", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Database not configured", body["error"])
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, false, RateLimit{})

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/generate-quiz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

type ctxGenerator struct {
	requestID string
}

func (g *ctxGenerator) Generate(ctx context.Context, input quizgen.Input) (*quizgen.Output, error) {
	g.requestID = llm.RequestIDFrom(ctx)
	return nil, quiz.ErrInvalidTopic
}

func TestGenerateQuizPassesRequestID(t *testing.T) {
	gen := &ctxGenerator{}
	srv := httptest.NewServer(New(Options{
		Generator: gen,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/generate-quiz", strings.NewReader(`{"topic": "Chess"}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "trace-7f3a")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "trace-7f3a", gen.requestID)
}
