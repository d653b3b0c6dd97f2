// Package sentiment classifies news headlines with an LLM and aggregates the
// per-headline labels into an overall reading.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"stock-signal-advisor/internal/llm"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/types"
)

const systemPrompt = `You are a financial sentiment analyst. Your task is to classify the sentiment of stock-related news headlines.

For each headline, determine whether it is **positive**, **negative**, or **neutral** for the stock in question. Consider:
- Earnings beats/misses
- Revenue growth/decline
- Product launches or failures
- Regulatory actions
- Market share changes
- Analyst upgrades/downgrades
- Macroeconomic factors affecting the company

Then provide an overall sentiment assessment and a score from 0.0 (very bearish) to 1.0 (very bullish), where 0.5 is neutral.

Respond with valid JSON only in this exact format:
{
  "headlines": [
    {"index": 0, "sentiment": "positive"},
    {"index": 1, "sentiment": "negative"},
    {"index": 2, "sentiment": "neutral"}
  ],
  "overall": "positive" | "negative" | "neutral" | "mixed",
  "score": <float 0.0-1.0>
}`

// Analyzer classifies headlines via an LLM provider.
type Analyzer struct {
	provider llm.Provider
}

func NewAnalyzer(provider llm.Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// NeutralFallback is the fully populated default used when classification
// cannot produce a usable result.
func NeutralFallback() types.SentimentAnalysis {
	return types.SentimentAnalysis{
		Overall: types.SentimentNeutral,
		Score:   types.Float(0.5),
	}
}

type classifiedHeadline struct {
	Index     int    `json:"index"`
	Sentiment string `json:"sentiment"`
}

type classification struct {
	Headlines []classifiedHeadline `json:"headlines"`
	Overall   string               `json:"overall"`
	Score     *float64             `json:"score"`
}

// Analyze classifies the headlines and returns the aggregate plus a copy of
// the headline list with per-headline sentiment filled in. The input slice is
// not mutated. A provider failure is returned as an error; malformed model
// output degrades to the neutral fallback instead.
func (a *Analyzer) Analyze(ctx context.Context, headlines []types.NewsHeadline) (types.SentimentAnalysis, []types.NewsHeadline, error) {
	if len(headlines) == 0 {
		return NeutralFallback(), nil, nil
	}

	ctx, span := logger.StartSpan(ctx, "analyze-sentiment")
	defer span.End()

	var sb strings.Builder
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i, h.Title)
	}
	user := "Classify the sentiment of these headlines:\n\n" + sb.String()

	content, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		User:        user,
		Temperature: 0.1,
		MaxTokens:   500,
		JSONMode:    true,
	})
	if err != nil {
		return types.SentimentAnalysis{}, nil, err
	}

	var data classification
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		logger.Warn(ctx, "Failed to parse sentiment response as JSON", "error", err)
		return NeutralFallback(), append([]types.NewsHeadline(nil), headlines...), nil
	}

	updated := append([]types.NewsHeadline(nil), headlines...)
	var positive, negative, neutral int
	for _, item := range data.Headlines {
		st := parseSentiment(item.Sentiment)
		switch st {
		case types.SentimentPositive:
			positive++
		case types.SentimentNegative:
			negative++
		default:
			neutral++
		}
		if item.Index >= 0 && item.Index < len(updated) {
			updated[item.Index].Sentiment = st
		}
	}

	score := 0.5
	if data.Score != nil && *data.Score >= 0 && *data.Score <= 1 {
		score = *data.Score
	}

	result := types.SentimentAnalysis{
		Overall:       parseOverall(data.Overall),
		Score:         types.Float(round4(score)),
		PositiveCount: positive,
		NegativeCount: negative,
		NeutralCount:  neutral,
	}
	return result, updated, nil
}

func parseSentiment(s string) types.SentimentType {
	switch types.SentimentType(strings.ToLower(s)) {
	case types.SentimentPositive:
		return types.SentimentPositive
	case types.SentimentNegative:
		return types.SentimentNegative
	case types.SentimentMixed:
		return types.SentimentMixed
	default:
		return types.SentimentNeutral
	}
}

func parseOverall(s string) types.SentimentType {
	return parseSentiment(s)
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
