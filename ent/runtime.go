// Code generated by ent, DO NOT EDIT.

package ent

import (
	"time"

	"github.com/abhisek/quizgen/ent/llmrequestevent"
	"github.com/abhisek/quizgen/ent/quiz"
	"github.com/abhisek/quizgen/ent/result"
	"github.com/abhisek/quizgen/ent/schema"
	"github.com/google/uuid"
)

// The init function reads all schema descriptors with runtime code
// (default values, validators, hooks and policies) and stitches it
// to their package variables.
func init() {
	llmrequesteventMixin := schema.LLMRequestEvent{}.Mixin()
	llmrequesteventMixinFields0 := llmrequesteventMixin[0].Fields()
	_ = llmrequesteventMixinFields0
	llmrequesteventFields := schema.LLMRequestEvent{}.Fields()
	_ = llmrequesteventFields
	// llmrequesteventDescCreatedAt is the schema descriptor for created_at field.
	llmrequesteventDescCreatedAt := llmrequesteventMixinFields0[0].Descriptor()
	// llmrequestevent.DefaultCreatedAt holds the default value on creation for the created_at field.
	llmrequestevent.DefaultCreatedAt = llmrequesteventDescCreatedAt.Default.(func() time.Time)
	// llmrequesteventDescRequestID is the schema descriptor for request_id field.
	llmrequesteventDescRequestID := llmrequesteventFields[3].Descriptor()
	// llmrequestevent.DefaultRequestID holds the default value on creation for the request_id field.
	llmrequestevent.DefaultRequestID = llmrequesteventDescRequestID.Default.(string)
	// llmrequesteventDescInputTokens is the schema descriptor for input_tokens field.
	llmrequesteventDescInputTokens := llmrequesteventFields[4].Descriptor()
	// llmrequestevent.DefaultInputTokens holds the default value on creation for the input_tokens field.
	llmrequestevent.DefaultInputTokens = llmrequesteventDescInputTokens.Default.(int)
	// llmrequesteventDescOutputTokens is the schema descriptor for output_tokens field.
	llmrequesteventDescOutputTokens := llmrequesteventFields[5].Descriptor()
	// llmrequestevent.DefaultOutputTokens holds the default value on creation for the output_tokens field.
	llmrequestevent.DefaultOutputTokens = llmrequesteventDescOutputTokens.Default.(int)
	// llmrequesteventDescLatencyMs is the schema descriptor for latency_ms field.
	llmrequesteventDescLatencyMs := llmrequesteventFields[6].Descriptor()
	// llmrequestevent.DefaultLatencyMs holds the default value on creation for the latency_ms field.
	llmrequestevent.DefaultLatencyMs = llmrequesteventDescLatencyMs.Default.(int64)
	// llmrequesteventDescErrorMessage is the schema descriptor for error_message field.
	llmrequesteventDescErrorMessage := llmrequesteventFields[8].Descriptor()
	// llmrequestevent.DefaultErrorMessage holds the default value on creation for the error_message field.
	llmrequestevent.DefaultErrorMessage = llmrequesteventDescErrorMessage.Default.(string)
	// llmrequesteventDescRequestBody is the schema descriptor for request_body field.
	llmrequesteventDescRequestBody := llmrequesteventFields[9].Descriptor()
	// llmrequestevent.DefaultRequestBody holds the default value on creation for the request_body field.
	llmrequestevent.DefaultRequestBody = llmrequesteventDescRequestBody.Default.(string)
	// llmrequesteventDescResponseBody is the schema descriptor for response_body field.
	llmrequesteventDescResponseBody := llmrequesteventFields[10].Descriptor()
	// llmrequestevent.DefaultResponseBody holds the default value on creation for the response_body field.
	llmrequestevent.DefaultResponseBody = llmrequesteventDescResponseBody.Default.(string)
	quizMixin := schema.Quiz{}.Mixin()
	quizMixinFields0 := quizMixin[0].Fields()
	_ = quizMixinFields0
	quizFields := schema.Quiz{}.Fields()
	_ = quizFields
	// quizDescCreatedAt is the schema descriptor for created_at field.
	quizDescCreatedAt := quizMixinFields0[0].Descriptor()
	// quiz.DefaultCreatedAt holds the default value on creation for the created_at field.
	quiz.DefaultCreatedAt = quizDescCreatedAt.Default.(func() time.Time)
	// quizDescTopic is the schema descriptor for topic field.
	quizDescTopic := quizFields[1].Descriptor()
	// quiz.TopicValidator is a validator for the "topic" field. It is called by the builders before save.
	quiz.TopicValidator = quizDescTopic.Validators[0].(func(string) error)
	// quizDescID is the schema descriptor for id field.
	quizDescID := quizFields[0].Descriptor()
	// quiz.DefaultID holds the default value on creation for the id field.
	quiz.DefaultID = quizDescID.Default.(func() uuid.UUID)
	resultMixin := schema.Result{}.Mixin()
	resultMixinFields0 := resultMixin[0].Fields()
	_ = resultMixinFields0
	resultFields := schema.Result{}.Fields()
	_ = resultFields
	// resultDescCreatedAt is the schema descriptor for created_at field.
	resultDescCreatedAt := resultMixinFields0[0].Descriptor()
	// result.DefaultCreatedAt holds the default value on creation for the created_at field.
	result.DefaultCreatedAt = resultDescCreatedAt.Default.(func() time.Time)
	// resultDescID is the schema descriptor for id field.
	resultDescID := resultFields[0].Descriptor()
	// result.DefaultID holds the default value on creation for the id field.
	result.DefaultID = resultDescID.Default.(func() uuid.UUID)
}
