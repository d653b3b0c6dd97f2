package fundamentals

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signal-advisor/internal/types"
)

func TestInterpretNoMetrics(t *testing.T) {
	interp := Interpret(&types.FundamentalAnalysis{})
	assert.InDelta(t, 0.5, interp.Score, 1e-9)
	assert.Empty(t, interp.Insights)
}

func TestInterpretAllStrong(t *testing.T) {
	m := &types.FundamentalAnalysis{
		PERatio:        types.Float(10),
		PEGRatio:       types.Float(0.8),
		ProfitMargin:   types.Float(0.25),
		ReturnOnEquity: types.Float(0.20),
		RevenueGrowth:  types.Float(0.20),
		EarningsGrowth: types.Float(0.25),
		DebtToEquity:   types.Float(0.3),
		CurrentRatio:   types.Float(2.0),
		FreeCashFlow:   types.Float(5e9),
	}
	interp := Interpret(m)
	assert.InDelta(t, 1.0, interp.Score, 1e-9)
}

func TestInterpretAllWeak(t *testing.T) {
	m := &types.FundamentalAnalysis{
		PERatio:        types.Float(45),
		PEGRatio:       types.Float(3.0),
		ProfitMargin:   types.Float(0.01),
		ReturnOnEquity: types.Float(0.02),
		RevenueGrowth:  types.Float(-0.05),
		EarningsGrowth: types.Float(-0.10),
		DebtToEquity:   types.Float(3.0),
		CurrentRatio:   types.Float(0.8),
		FreeCashFlow:   types.Float(-1e9),
	}
	interp := Interpret(m)
	assert.InDelta(t, 0.0, interp.Score, 1e-9)
	assert.Contains(t, strings.Join(interp.Insights, "; "), "leverage risk")
}

func TestInterpretSingleCategory(t *testing.T) {
	// One present category carries only its 25% share; the other three
	// contribute nothing rather than being redistributed.
	m := &types.FundamentalAnalysis{PERatio: types.Float(10)}
	interp := Interpret(m)
	assert.InDelta(t, 0.25, interp.Score, 1e-9)
	require.Len(t, interp.Insights, 1)
	assert.Equal(t, "P/E ratio of 10.0 suggests undervaluation", interp.Insights[0])
}

func TestInterpretCategoryRenormalization(t *testing.T) {
	// Moderate P/E of 22.5 scores 0.5 within valuation; with PEG absent the
	// category average is 0.5, worth 0.125 of the total.
	m := &types.FundamentalAnalysis{PERatio: types.Float(22.5)}
	interp := Interpret(m)
	assert.InDelta(t, 0.125, interp.Score, 1e-9)
}

func TestInsightOrderFollowsCategories(t *testing.T) {
	m := &types.FundamentalAnalysis{
		PERatio:        types.Float(10),
		ReturnOnEquity: types.Float(0.20),
		RevenueGrowth:  types.Float(0.20),
		FreeCashFlow:   types.Float(1e9),
	}
	interp := Interpret(m)
	require.Len(t, interp.Insights, 4)
	assert.Contains(t, interp.Insights[0], "P/E ratio")
	assert.Contains(t, interp.Insights[1], "ROE")
	assert.Contains(t, interp.Insights[2], "Revenue growth")
	assert.Contains(t, interp.Insights[3], "free cash flow")
}

func TestCalculateFillsDerivedFields(t *testing.T) {
	m := &types.FundamentalAnalysis{PERatio: types.Float(10)}
	Calculate(m)
	require.NotNil(t, m.FundamentalScore)
	assert.InDelta(t, 0.25, *m.FundamentalScore, 1e-9)
	assert.NotEmpty(t, m.Insights)
}
