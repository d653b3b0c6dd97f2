// Package analysis coordinates the pillar fetches for one ticker and fuses
// their scores into the response confidence.
package analysis

import (
	"math"

	"stock-signal-advisor/internal/types"
)

// pillarWeights is one row of the dynamic weighting table. A zero weight
// means the pillar is ignored even if present.
type pillarWeights struct {
	technical   float64
	fundamental float64
	sentiment   float64
}

// The weight table shifts toward the technical pillar as other pillars drop
// out, instead of renormalizing proportionally.
var (
	weightsAll           = pillarWeights{technical: 0.40, fundamental: 0.40, sentiment: 0.20}
	weightsNoSentiment   = pillarWeights{technical: 0.60, fundamental: 0.40}
	weightsNoFundamental = pillarWeights{technical: 0.70, sentiment: 0.30}
	weightsTechnicalOnly = pillarWeights{technical: 1.00}
)

// Confidence computes the weighted confidence from whichever pillar scores
// are present. Without a technical score the result is a neutral 0.5
// regardless of the other pillars.
func Confidence(technical *types.TechnicalAnalysis, fundamentals *types.FundamentalAnalysis, sentiment *types.SentimentAnalysis) float64 {
	var techScore, fundScore, sentScore *float64
	if technical != nil {
		techScore = technical.TechnicalScore
	}
	if fundamentals != nil {
		fundScore = fundamentals.FundamentalScore
	}
	if sentiment != nil {
		sentScore = sentiment.Score
	}

	var weights pillarWeights
	switch {
	case techScore != nil && fundScore != nil && sentScore != nil:
		weights = weightsAll
	case techScore != nil && fundScore != nil:
		weights = weightsNoSentiment
	case techScore != nil && sentScore != nil:
		weights = weightsNoFundamental
	case techScore != nil:
		weights = weightsTechnicalOnly
	default:
		return 0.5
	}

	score := 0.0
	if techScore != nil {
		score += weights.technical * *techScore
	}
	if fundScore != nil {
		score += weights.fundamental * *fundScore
	}
	if sentScore != nil {
		score += weights.sentiment * *sentScore
	}

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*10000) / 10000
}
