package llm

import "context"

// Noop is the provider used when no LLM is configured. Every completion fails
// with ErrNotConfigured, which pushes callers onto their neutral fallbacks.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) Name() string  { return "none" }
func (Noop) Model() string { return "not configured" }

func (Noop) Complete(_ context.Context, _ CompletionRequest) (string, error) {
	return "", ErrNotConfigured
}
