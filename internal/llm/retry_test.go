package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newTestRetry(p Provider, attempts int) *RetryProvider {
	r := WithRetry(p, RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}).(*RetryProvider)
	r.jitter = func(d time.Duration) time.Duration { return d }
	return r
}

var okReply = MockResponse{Content: json.RawMessage(`{"questions":[]}`)}

func TestRetry(t *testing.T) {
	unavailable := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("502")}}
	invalid := MockResponse{Err: &ErrInvalidResponse{Err: errors.New("schema")}}

	tests := []struct {
		name      string
		attempts  int
		script    []MockResponse
		wantCalls int
		wantErr   bool
	}{
		{"first try", 3, []MockResponse{okReply}, 1, false},
		{"transient then ok", 3, []MockResponse{unavailable, unavailable, okReply}, 3, false},
		{"gives up", 3, []MockResponse{unavailable, unavailable, unavailable, okReply}, 3, true},
		{"single attempt by default", 0, []MockResponse{unavailable, okReply}, 1, true},
		{"invalid reply retried once", 5, []MockResponse{invalid, invalid, okReply}, 2, true},
		{"invalid then ok", 5, []MockResponse{invalid, okReply}, 2, false},
		{"missing credentials", 3, []MockResponse{{Err: &ErrNotConfigured{Provider: "openai"}}, okReply}, 1, true},
		{"rejected request", 3, []MockResponse{{Err: &ErrRequestRejected{Status: 400}}, okReply}, 1, true},
		{"truncated structured reply", 3, []MockResponse{{Err: &ErrMaxTokensExceeded{}}, okReply}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.script...)
			_, err := newTestRetry(mock, tt.attempts).Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_Delay(t *testing.T) {
	r := newTestRetry(NewMockProvider(), 5)
	r.config.InitialWait = 100 * time.Millisecond
	r.config.MaxWait = time.Second

	generic := errors.New("boom")
	for attempt, want := range []time.Duration{100, 200, 400, 800, 1000, 1000} {
		if got := r.delay(attempt, generic); got != want*time.Millisecond {
			t.Errorf("delay(%d) = %s, want %s", attempt, got, want*time.Millisecond)
		}
	}

	rl := &ErrRateLimit{RetryAfter: 300 * time.Millisecond}
	if got := r.delay(0, rl); got != 300*time.Millisecond {
		t.Errorf("Retry-After not honoured: %s", got)
	}

	long := &ErrRateLimit{RetryAfter: time.Minute}
	if got := r.delay(0, long); got != time.Second {
		t.Errorf("Retry-After above MaxWait: delay = %s, want %s", got, time.Second)
	}

	r.config.MaxWait = 0
	if got := r.delay(0, long); got != time.Minute {
		t.Errorf("Retry-After without MaxWait: delay = %s, want %s", got, time.Minute)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: time.Hour}}, okReply)
	r := newTestRetry(mock, 3)
	r.config.MaxWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := r.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestSpread(t *testing.T) {
	for range 50 {
		got := spread(time.Second)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("spread(1s) = %s, outside ±20%%", got)
		}
	}
}
