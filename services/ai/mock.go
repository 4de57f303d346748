package aisvc

import (
	"context"
	"sync"

	"github.com/kyalo/darasa/core/ai"
)

// MockProvider replays scripted completions in order; the last one repeats.
// For tests.
type MockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Prompts   []ai.Prompt // prompts received, in order
}

var _ ai.Provider = (*MockProvider)(nil)

func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{Responses: responses}
}

func (p *MockProvider) Complete(_ context.Context, prompt ai.Prompt) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Prompts = append(p.Prompts, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Responses) == 0 {
		return "", nil
	}
	i := len(p.Prompts) - 1
	if i >= len(p.Responses) {
		i = len(p.Responses) - 1
	}
	return p.Responses[i], nil
}
