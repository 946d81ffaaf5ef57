package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
)

// memStore is an in-memory QuizRepo and ResultRepo.
type memStore struct {
	mu      sync.Mutex
	quizzes map[string]quiz.Quiz
	bySig   map[string]string
	results map[string]quiz.Result
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		quizzes: make(map[string]quiz.Quiz),
		bySig:   make(map[string]string),
		results: make(map[string]quiz.Result),
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrInvalidID
	}
	return nil
}

func (m *memStore) Save(_ context.Context, q quiz.Quiz) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sig := q.ContentSignature()
	if id, ok := m.bySig[sig]; ok {
		return id, nil
	}
	id := uuid.NewString()
	created := m.tick()
	q.ID, q.CreatedAt = id, &created
	m.quizzes[id] = q
	m.bySig[sig] = id
	return id, nil
}

func (m *memStore) Get(_ context.Context, id string) (*quiz.Quiz, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quizzes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &q, nil
}

func (m *memStore) Recent(_ context.Context, limit int) ([]quiz.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []quiz.Quiz
	for _, q := range m.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(*out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memResults struct {
	*memStore
}

func (m memResults) Create(_ context.Context, quizID string, answers []int) (*quiz.Result, error) {
	if err := checkID(quizID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quizzes[quizID]
	if !ok {
		return nil, store.ErrNotFound
	}
	normalized := quiz.NormalizeAnswers(answers, len(q.Questions))
	score := q.Score(normalized)
	res := quiz.Result{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		Answers:     normalized,
		Correctness: score.Correctness,
		Score:       score,
		CreatedAt:   m.tick(),
	}
	m.results[res.ID] = res
	return &res, nil
}

func (m memResults) Get(_ context.Context, id string) (*quiz.Result, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.results[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &res, nil
}

func (m memResults) Recent(_ context.Context, limit int) ([]store.ResultListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.ResultListing
	for _, res := range m.results {
		l := store.ResultListing{Result: res}
		if q, ok := m.quizzes[res.QuizID]; ok {
			l.QuizTopic, l.QuizDifficulty, l.QuizCreatedAt = q.Topic, q.Difficulty, q.CreatedAt
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
