package store

import (
	"context"
	"fmt"

	"github.com/abhisek/quizgen/ent"
	entresult "github.com/abhisek/quizgen/ent/result"
	"github.com/abhisek/quizgen/internal/quiz"
)

type resultRepo struct {
	client *ent.Client
}

func (r *resultRepo) Create(ctx context.Context, quizID string, answers []int) (*quiz.Result, error) {
	qid, err := parseID(quizID)
	if err != nil {
		return nil, err
	}

	qe, err := r.client.Quiz.Get(ctx, qid)
	if ent.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	q := toQuiz(qe)
	normalized := quiz.NormalizeAnswers(answers, len(q.Questions))
	score := q.Score(normalized)

	e, err := r.client.Result.Create().
		SetQuizID(qid).
		SetAnswers(normalized).
		SetCorrectness(score.Correctness).
		SetCorrect(score.Correct).
		SetTotal(score.Total).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	res := toResult(e)
	return &res, nil
}

func (r *resultRepo) Get(ctx context.Context, id string) (*quiz.Result, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	e, err := r.client.Result.Get(ctx, uid)
	if ent.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}

	res := toResult(e)
	return &res, nil
}

func (r *resultRepo) Recent(ctx context.Context, limit int) ([]ResultListing, error) {
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	rows, err := r.client.Result.Query().
		WithQuiz().
		Order(ent.Desc(entresult.FieldCreatedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]ResultListing, len(rows))
	for i, e := range rows {
		out[i] = ResultListing{Result: toResult(e)}
		if qe := e.Edges.Quiz; qe != nil {
			created := qe.CreatedAt
			out[i].QuizTopic = qe.Topic
			out[i].QuizDifficulty = quiz.Difficulty(qe.Difficulty)
			out[i].QuizCreatedAt = &created
		}
	}
	return out, nil
}

func toResult(e *ent.Result) quiz.Result {
	return quiz.Result{
		ID:          e.ID.String(),
		QuizID:      e.QuizID.String(),
		Answers:     e.Answers,
		Correctness: e.Correctness,
		Score: quiz.Score{
			Correct: e.Correct,
			Total:   e.Total,
		},
		CreatedAt: e.CreatedAt,
	}
}
