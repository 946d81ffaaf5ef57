package llm

import "context"

// unconfiguredProvider stands in for a provider whose credentials are
// missing. Every call fails with *ErrNotConfigured so a server can start
// and report the problem per request.
type unconfiguredProvider struct {
	err *ErrNotConfigured
}

// NewUnconfiguredProvider returns a Provider that always fails with err.
func NewUnconfiguredProvider(err *ErrNotConfigured) Provider {
	return &unconfiguredProvider{err: err}
}

func (p *unconfiguredProvider) Generate(context.Context, Request) (*Response, error) {
	return nil, p.err
}

func (p *unconfiguredProvider) ModelID() string {
	return "unconfigured"
}
