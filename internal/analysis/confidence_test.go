package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stock-signal-advisor/internal/types"
)

func tech(score float64) *types.TechnicalAnalysis {
	return &types.TechnicalAnalysis{TechnicalScore: types.Float(score)}
}

func fund(score float64) *types.FundamentalAnalysis {
	return &types.FundamentalAnalysis{FundamentalScore: types.Float(score)}
}

func sent(score float64) *types.SentimentAnalysis {
	return &types.SentimentAnalysis{Score: types.Float(score)}
}

func TestConfidenceAllPillars(t *testing.T) {
	// 0.40*0.70 + 0.40*0.60 + 0.20*0.55
	assert.InDelta(t, 0.63, Confidence(tech(0.70), fund(0.60), sent(0.55)), 1e-9)
}

func TestConfidenceNoSentiment(t *testing.T) {
	// 0.60*0.70 + 0.40*0.60
	assert.InDelta(t, 0.66, Confidence(tech(0.70), fund(0.60), nil), 1e-9)
}

func TestConfidenceNoFundamentals(t *testing.T) {
	// 0.70*0.70 + 0.30*0.55
	assert.InDelta(t, 0.655, Confidence(tech(0.70), nil, sent(0.55)), 1e-9)
}

func TestConfidenceTechnicalOnly(t *testing.T) {
	assert.InDelta(t, 0.70, Confidence(tech(0.70), nil, nil), 1e-9)
}

func TestConfidenceWithoutTechnicalIsNeutral(t *testing.T) {
	assert.InDelta(t, 0.5, Confidence(nil, fund(0.95), sent(0.95)), 1e-9)
	assert.InDelta(t, 0.5, Confidence(nil, nil, nil), 1e-9)
}

func TestConfidenceIgnoresPillarsWithNilScore(t *testing.T) {
	// A pillar struct without a score counts as absent.
	assert.InDelta(t, 0.70, Confidence(tech(0.70), &types.FundamentalAnalysis{}, &types.SentimentAnalysis{}), 1e-9)
}

func TestConfidenceRounding(t *testing.T) {
	got := Confidence(tech(1.0/3.0), fund(1.0/3.0), sent(1.0/3.0))
	assert.InDelta(t, 0.3333, got, 1e-9)
}
