// Package fundamentals scores a flat record of fundamental ratios into a
// composite [0,1] score with human-readable insights. All input metrics are
// assumed pre-normalized: ratios as decimals, growth rates as fractions.
package fundamentals

import (
	"fmt"
	"math"

	"stock-signal-advisor/internal/types"
)

// Interpretation is the scored outcome for one metrics record.
type Interpretation struct {
	Score    float64
	Insights []string
}

type categoryResult struct {
	raw      float64
	factors  int
	insights []string
}

// Interpret scores the four fundamental categories (valuation, profitability,
// growth, financial health) at 25% weight each. A category's internal weight
// is renormalized by the number of its metrics actually present; a category
// with no metrics contributes nothing. With no metrics at all the score is
// the neutral midpoint 0.5 so that absence of data does not read as bearish.
func Interpret(m *types.FundamentalAnalysis) Interpretation {
	categories := []categoryResult{
		scoreValuation(m),
		scoreProfitability(m),
		scoreGrowth(m),
		scoreFinancialHealth(m),
	}

	total := 0.0
	totalFactors := 0
	var insights []string
	for _, cat := range categories {
		if cat.factors > 0 {
			total += 0.25 * (cat.raw / float64(cat.factors))
		}
		totalFactors += cat.factors
		insights = append(insights, cat.insights...)
	}

	if totalFactors == 0 {
		total = 0.5
	}

	return Interpretation{Score: round4(total), Insights: insights}
}

// Calculate fills in the derived score and insights on a metrics record.
func Calculate(m *types.FundamentalAnalysis) *types.FundamentalAnalysis {
	interp := Interpret(m)
	m.FundamentalScore = types.Float(interp.Score)
	m.Insights = interp.Insights
	return m
}

func scoreValuation(m *types.FundamentalAnalysis) categoryResult {
	var cat categoryResult

	if m.PERatio != nil {
		pe := *m.PERatio
		cat.factors++
		switch {
		case pe < 15:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("P/E ratio of %.1f suggests undervaluation", pe))
		case pe > 30:
			cat.insights = append(cat.insights, fmt.Sprintf("P/E ratio of %.1f suggests overvaluation", pe))
		default:
			cat.raw += 1.0 - (pe-15.0)/15.0
			cat.insights = append(cat.insights, fmt.Sprintf("P/E ratio of %.1f is moderate", pe))
		}
	}

	if m.PEGRatio != nil {
		peg := *m.PEGRatio
		cat.factors++
		switch {
		case peg < 1:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("PEG ratio of %.2f indicates growth at a reasonable price", peg))
		case peg > 2:
			cat.insights = append(cat.insights, fmt.Sprintf("PEG ratio of %.2f suggests overvaluation relative to growth", peg))
		default:
			cat.raw += 1.0 - (peg - 1.0)
			cat.insights = append(cat.insights, fmt.Sprintf("PEG ratio of %.2f is moderate", peg))
		}
	}

	return cat
}

func scoreProfitability(m *types.FundamentalAnalysis) categoryResult {
	var cat categoryResult

	if m.ProfitMargin != nil {
		margin := *m.ProfitMargin
		pct := margin * 100
		cat.factors++
		switch {
		case margin > 0.20:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("Profit margin of %.1f%% is strong", pct))
		case margin < 0.05:
			cat.insights = append(cat.insights, fmt.Sprintf("Profit margin of %.1f%% is weak", pct))
		default:
			cat.raw += (margin - 0.05) / 0.15
			cat.insights = append(cat.insights, fmt.Sprintf("Profit margin of %.1f%% is moderate", pct))
		}
	}

	if m.ReturnOnEquity != nil {
		roe := *m.ReturnOnEquity
		pct := roe * 100
		cat.factors++
		switch {
		case roe > 0.15:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("ROE of %.1f%% indicates efficient use of equity", pct))
		case roe < 0.05:
			cat.insights = append(cat.insights, fmt.Sprintf("ROE of %.1f%% is below average", pct))
		default:
			cat.raw += (roe - 0.05) / 0.10
			cat.insights = append(cat.insights, fmt.Sprintf("ROE of %.1f%% is moderate", pct))
		}
	}

	return cat
}

func scoreGrowth(m *types.FundamentalAnalysis) categoryResult {
	var cat categoryResult

	if m.RevenueGrowth != nil {
		growth := *m.RevenueGrowth
		pct := growth * 100
		cat.factors++
		switch {
		case growth > 0.15:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("Revenue growth of %.1f%% is strong", pct))
		case growth < 0:
			cat.insights = append(cat.insights, fmt.Sprintf("Revenue declining at %.1f%%", pct))
		default:
			cat.raw += growth / 0.15
			cat.insights = append(cat.insights, fmt.Sprintf("Revenue growth of %.1f%% is moderate", pct))
		}
	}

	if m.EarningsGrowth != nil {
		growth := *m.EarningsGrowth
		pct := growth * 100
		cat.factors++
		switch {
		case growth > 0.20:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("Earnings growth of %.1f%% is strong", pct))
		case growth < 0:
			cat.insights = append(cat.insights, fmt.Sprintf("Earnings declining at %.1f%%", pct))
		default:
			cat.raw += growth / 0.20
			cat.insights = append(cat.insights, fmt.Sprintf("Earnings growth of %.1f%% is moderate", pct))
		}
	}

	return cat
}

func scoreFinancialHealth(m *types.FundamentalAnalysis) categoryResult {
	var cat categoryResult

	if m.DebtToEquity != nil {
		de := *m.DebtToEquity
		cat.factors++
		switch {
		case de < 0.5:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("Low debt-to-equity of %.2f indicates conservative financing", de))
		case de > 2.0:
			cat.insights = append(cat.insights, fmt.Sprintf("High debt-to-equity of %.2f signals leverage risk", de))
		default:
			cat.raw += 1.0 - (de-0.5)/1.5
			cat.insights = append(cat.insights, fmt.Sprintf("Debt-to-equity of %.2f is moderate", de))
		}
	}

	if m.CurrentRatio != nil {
		cr := *m.CurrentRatio
		cat.factors++
		switch {
		case cr > 1.5:
			cat.raw += 1.0
			cat.insights = append(cat.insights, fmt.Sprintf("Current ratio of %.2f shows strong liquidity", cr))
		case cr < 1.0:
			cat.insights = append(cat.insights, fmt.Sprintf("Current ratio of %.2f indicates liquidity concern", cr))
		default:
			cat.raw += (cr - 1.0) / 0.5
			cat.insights = append(cat.insights, fmt.Sprintf("Current ratio of %.2f is adequate", cr))
		}
	}

	if m.FreeCashFlow != nil {
		cat.factors++
		if *m.FreeCashFlow > 0 {
			cat.raw += 1.0
			cat.insights = append(cat.insights, "Positive free cash flow supports financial flexibility")
		} else {
			cat.insights = append(cat.insights, "Negative free cash flow may limit financial flexibility")
		}
	}

	return cat
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
