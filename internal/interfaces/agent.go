package interfaces

import (
	"context"

	"stock-signal-advisor/internal/types"
)

// SentimentAnalyzer classifies a batch of headlines and aggregates them into
// a single sentiment record. The returned slice carries per-headline labels.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, headlines []types.NewsHeadline) (types.SentimentAnalysis, []types.NewsHeadline, error)
}

// SignalAgent turns the assembled evidence into a trading signal with an
// explanation grounded in that evidence.
type SignalAgent interface {
	Generate(ctx context.Context, evidence *types.Evidence) (types.AgentResult, error)
}
