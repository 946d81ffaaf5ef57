package store

import (
	"context"
	"time"

	"github.com/abhisek/quizgen/internal/quiz"
)

// Default listing sizes.
const (
	DefaultQuizLimit   = 20
	DefaultResultLimit = 50
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	Purpose   string    // exact purpose match when set
	RequestID string    // exact request id match when set
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
}

// QuizRepo persists generated quizzes.
type QuizRepo interface {
	// Save stores q unless an identical quiz (same topic, difficulty and
	// questions) already exists, in which case the existing id is
	// returned and nothing is updated.
	Save(ctx context.Context, q quiz.Quiz) (string, error)

	// Get returns the quiz with the given id. Returns ErrInvalidID for a
	// malformed id and ErrNotFound when absent.
	Get(ctx context.Context, id string) (*quiz.Quiz, error)

	// Recent returns up to limit quizzes, newest first, collapsing
	// near-identical entries.
	Recent(ctx context.Context, limit int) ([]quiz.Quiz, error)
}

// ResultListing is a result joined with its quiz's metadata. The quiz
// fields are empty when the quiz no longer exists.
type ResultListing struct {
	quiz.Result
	QuizTopic      string          `json:"quizTopic,omitempty"`
	QuizDifficulty quiz.Difficulty `json:"quizDifficulty,omitempty"`
	QuizCreatedAt  *time.Time      `json:"quizCreatedAt,omitempty"`
}

// ResultRepo persists scored quiz submissions.
type ResultRepo interface {
	// Create scores answers against the stored quiz and records the
	// result. Returns ErrInvalidID or ErrNotFound for the quiz id.
	Create(ctx context.Context, quizID string, answers []int) (*quiz.Result, error)

	// Get returns the result with the given id.
	Get(ctx context.Context, id string) (*quiz.Result, error)

	// Recent returns up to limit results, newest first.
	Recent(ctx context.Context, limit int) ([]ResultListing, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	RequestID    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates recorded LLM calls for one purpose or model.
type LLMUsage struct {
	Purpose      string `json:"purpose"`
	Model        string `json:"model"`
	Calls        int    `json:"calls"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	AvgLatencyMs int64  `json:"-"`
}

// EventRepo records and reads LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns the event with the given id, or nil if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates calls and tokens per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates calls and tokens per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
