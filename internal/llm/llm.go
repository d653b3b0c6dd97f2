// Package llm abstracts the chat completion providers used for sentiment
// classification and signal generation.
package llm

import (
	"context"
	"errors"
	"strings"

	"stock-signal-advisor/internal/store"
)

// ErrRateLimited marks provider throttling. It must propagate to the HTTP
// boundary untouched (mapped to 429) rather than degrade into a fallback.
var ErrRateLimited = errors.New("llm provider rate limited")

// ErrNotConfigured is returned by the noop provider when no API provider is set.
var ErrNotConfigured = errors.New("no LLM provider configured")

// CompletionRequest is a single system+user chat exchange.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// Provider is a chat completion backend.
type Provider interface {
	// Complete returns the assistant's text for the given exchange.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
	Model() string
}

// New builds the configured provider, falling back to a noop that fails every
// completion so callers exercise their degrade paths.
func New(cfg *store.Config) Provider {
	switch strings.ToUpper(cfg.LLM.Provider) {
	case "OPENAI":
		return NewOpenAI(cfg)
	case "CLAUDE":
		return NewClaude(cfg)
	default:
		return NewNoop()
	}
}
