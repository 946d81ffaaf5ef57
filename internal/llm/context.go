package llm

import "context"

type ctxKey int

const (
	purposeKey ctxKey = iota
	requestIDKey
)

// WithPurpose labels calls made with ctx, e.g. "quiz-gen". The label ends
// up in logs and in the recorded request events.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, _ := ctx.Value(purposeKey).(string); v != "" {
		return v
	}
	return "unknown"
}

// WithRequestID ties calls made with ctx to an inbound HTTP request.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the id set by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
