package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// errMockExhausted is returned once the scripted replies run out and no
// Respond func is set.
var errMockExhausted = errors.New("mock provider: no scripted response left")

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is an in-memory Provider for tests. Scripted replies are
// consumed in order; after that Respond, when set, answers every call.
type MockProvider struct {
	// Respond computes a reply from the request.
	Respond func(Request) MockResponse

	mu    sync.Mutex
	queue []MockResponse
	Calls []Request
}

// NewMockProvider returns a provider scripted with responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses}
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	var (
		next MockResponse
		ok   bool
	)
	if len(m.queue) > 0 {
		next, m.queue, ok = m.queue[0], m.queue[1:], true
	}
	respond := m.Respond
	m.mu.Unlock()

	switch {
	case ok:
	case respond != nil:
		next = respond(req)
	default:
		return nil, &ErrProviderUnavailable{Err: errMockExhausted}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	usage := newUsage(next.Usage.InputTokens, next.Usage.OutputTokens, next.Usage.TotalTokens)
	return &Response{Content: next.Content, Usage: usage, Model: "mock", StopReason: StopEnd}, nil
}

// AddResponse queues another scripted reply.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	m.queue = append(m.queue, resp)
	m.mu.Unlock()
}

// CallCount reports how many times Generate ran.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastRequest returns the most recent request, or false before any call.
func (m *MockProvider) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
