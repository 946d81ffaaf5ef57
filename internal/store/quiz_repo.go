package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/quizgen/ent"
	entquiz "github.com/abhisek/quizgen/ent/quiz"
	entschema "github.com/abhisek/quizgen/ent/schema"
	"github.com/abhisek/quizgen/internal/quiz"
)

type quizRepo struct {
	client *ent.Client
}

func (r *quizRepo) Save(ctx context.Context, q quiz.Quiz) (string, error) {
	sig := q.ContentSignature()

	id, err := r.findBySignature(ctx, sig)
	if err != nil || id != "" {
		return id, err
	}
	return r.insert(ctx, q, sig)
}

// insert writes q under sig. A unique-constraint failure means another
// save of the same content got there first, and its id is returned.
func (r *quizRepo) insert(ctx context.Context, q quiz.Quiz, sig string) (string, error) {
	created, err := r.client.Quiz.Create().
		SetTopic(q.Topic).
		SetDifficulty(entquiz.Difficulty(q.Difficulty)).
		SetQuestions(toStoredQuestions(q.Questions)).
		SetSignature(sig).
		SetListingSignature(q.ListingSignature()).
		Save(ctx)
	if ent.IsConstraintError(err) {
		id, lookupErr := r.findBySignature(ctx, sig)
		if lookupErr == nil && id != "" {
			return id, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("save quiz: %w", err)
	}

	return created.ID.String(), nil
}

// findBySignature returns the id of the quiz with signature sig, or "" if
// none exists.
func (r *quizRepo) findBySignature(ctx context.Context, sig string) (string, error) {
	existing, err := r.client.Quiz.Query().
		Where(entquiz.Signature(sig)).
		Only(ctx)
	switch {
	case err == nil:
		return existing.ID.String(), nil
	case ent.IsNotFound(err):
		return "", nil
	default:
		return "", fmt.Errorf("lookup quiz: %w", err)
	}
}

func (r *quizRepo) Get(ctx context.Context, id string) (*quiz.Quiz, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	e, err := r.client.Quiz.Get(ctx, uid)
	if ent.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	q := toQuiz(e)
	return &q, nil
}

func (r *quizRepo) Recent(ctx context.Context, limit int) ([]quiz.Quiz, error) {
	if limit <= 0 {
		limit = DefaultQuizLimit
	}

	rows, err := r.client.Quiz.Query().
		Order(ent.Desc(entquiz.FieldCreatedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]quiz.Quiz, 0, len(rows))
	for _, e := range rows {
		if seen[e.ListingSignature] {
			continue
		}
		seen[e.ListingSignature] = true
		out = append(out, toQuiz(e))
	}
	return out, nil
}

func toQuiz(e *ent.Quiz) quiz.Quiz {
	created := e.CreatedAt
	return quiz.Quiz{
		ID:         e.ID.String(),
		Topic:      e.Topic,
		Difficulty: quiz.Difficulty(e.Difficulty),
		Questions:  fromStoredQuestions(e.Questions),
		CreatedAt:  &created,
	}
}

func toStoredQuestions(qs []quiz.Question) []entschema.StoredQuestion {
	out := make([]entschema.StoredQuestion, len(qs))
	for i, q := range qs {
		out[i] = entschema.StoredQuestion{
			Question:    q.Question,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
			Explanation: q.Explanation,
		}
	}
	return out
}

func fromStoredQuestions(qs []entschema.StoredQuestion) []quiz.Question {
	out := make([]quiz.Question, len(qs))
	for i, q := range qs {
		out[i] = quiz.Question{
			Question:    q.Question,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
			Explanation: q.Explanation,
		}
	}
	return out
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return uid, nil
}
