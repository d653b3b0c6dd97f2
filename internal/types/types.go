package types

import "time"

// SignalType is the categorical trading recommendation.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalHold SignalType = "HOLD"
	SignalSell SignalType = "SELL"
)

// ParseSignal maps free-form model output onto a known signal, defaulting to HOLD.
func ParseSignal(s string) SignalType {
	switch SignalType(s) {
	case SignalBuy, SignalHold, SignalSell:
		return SignalType(s)
	}
	return SignalHold
}

// SentimentType classifies news sentiment.
type SentimentType string

const (
	SentimentPositive SentimentType = "positive"
	SentimentNegative SentimentType = "negative"
	SentimentNeutral  SentimentType = "neutral"
	SentimentMixed    SentimentType = "mixed"
)

// MacdSignal is the MACD crossover interpretation.
type MacdSignal string

const (
	MacdBullish MacdSignal = "bullish"
	MacdBearish MacdSignal = "bearish"
	MacdNeutral MacdSignal = "neutral"
)

// TrendDirection relates current price to a moving average.
type TrendDirection string

const (
	TrendAbove TrendDirection = "above"
	TrendBelow TrendDirection = "below"
)

// VolumeTrend classifies the latest volume against its trailing average.
type VolumeTrend string

const (
	VolumeHigh    VolumeTrend = "high"
	VolumeLow     VolumeTrend = "low"
	VolumeNeutral VolumeTrend = "neutral"
)

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// PriceData is the price snapshot for one analysis request.
type PriceData struct {
	Current         *float64 `json:"current,omitempty"`
	Currency        string   `json:"currency"`
	ChangePercent1D *float64 `json:"change_percent_1d,omitempty"`
	ChangePercent1W *float64 `json:"change_percent_1w,omitempty"`
	ChangePercent1M *float64 `json:"change_percent_1m,omitempty"`
	High52W         *float64 `json:"high_52w,omitempty"`
	Low52W          *float64 `json:"low_52w,omitempty"`
}

// TechnicalAnalysis holds the computed indicators. Every field is independently
// optional: missing history for one indicator must not blank the others.
type TechnicalAnalysis struct {
	RSI               *float64       `json:"rsi,omitempty"`
	RSIInterpretation string         `json:"rsi_interpretation,omitempty"`
	SMA50             *float64       `json:"sma_50,omitempty"`
	SMA200            *float64       `json:"sma_200,omitempty"`
	PriceVsSMA50      TrendDirection `json:"price_vs_sma50,omitempty"`
	PriceVsSMA200     TrendDirection `json:"price_vs_sma200,omitempty"`
	MACDSignal        MacdSignal     `json:"macd_signal,omitempty"`
	VolumeTrend       VolumeTrend    `json:"volume_trend,omitempty"`
	TechnicalScore    *float64       `json:"technical_score,omitempty"`
}

// FundamentalAnalysis carries the raw ratios plus the derived score and insights.
// Ratios are decimals and growth rates are fractions; provider-specific
// percentage encodings are normalized upstream in the market data client.
type FundamentalAnalysis struct {
	// Valuation
	PERatio            *float64 `json:"pe_ratio,omitempty"`
	ForwardPE          *float64 `json:"forward_pe,omitempty"`
	PEGRatio           *float64 `json:"peg_ratio,omitempty"`
	PriceToBook        *float64 `json:"price_to_book,omitempty"`
	PriceToSales       *float64 `json:"price_to_sales,omitempty"`
	EnterpriseToEbitda *float64 `json:"enterprise_to_ebitda,omitempty"`

	// Profitability
	ProfitMargin    *float64 `json:"profit_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	GrossMargin     *float64 `json:"gross_margin,omitempty"`
	ReturnOnEquity  *float64 `json:"return_on_equity,omitempty"`
	ReturnOnAssets  *float64 `json:"return_on_assets,omitempty"`

	// Growth
	RevenueGrowth           *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth          *float64 `json:"earnings_growth,omitempty"`
	EarningsQuarterlyGrowth *float64 `json:"earnings_quarterly_growth,omitempty"`

	// Financial health
	CurrentRatio      *float64 `json:"current_ratio,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	FreeCashFlow      *float64 `json:"free_cash_flow,omitempty"`
	OperatingCashFlow *float64 `json:"operating_cash_flow,omitempty"`

	// Dividends
	DividendYield       *float64 `json:"dividend_yield,omitempty"`
	DividendPayoutRatio *float64 `json:"dividend_payout_ratio,omitempty"`

	// Size & market
	MarketCap         *float64 `json:"market_cap,omitempty"`
	EnterpriseValue   *float64 `json:"enterprise_value,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	FloatShares       *float64 `json:"float_shares,omitempty"`

	// Analyst consensus
	AnalystTarget    *float64 `json:"analyst_target,omitempty"`
	AnalystRating    *float64 `json:"analyst_rating,omitempty"`
	NumberOfAnalysts *int     `json:"number_of_analysts,omitempty"`

	// Derived
	FundamentalScore *float64 `json:"fundamental_score,omitempty"`
	Insights         []string `json:"insights,omitempty"`
}

// SentimentAnalysis aggregates per-headline classifications.
type SentimentAnalysis struct {
	Overall       SentimentType `json:"overall,omitempty"`
	Score         *float64      `json:"score,omitempty"`
	PositiveCount int           `json:"positive_count"`
	NegativeCount int           `json:"negative_count"`
	NeutralCount  int           `json:"neutral_count"`
}

// NewsHeadline is one fetched article reference, optionally tagged with sentiment.
type NewsHeadline struct {
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Source      string        `json:"source,omitempty"`
	URL         string        `json:"url,omitempty"`
	Sentiment   SentimentType `json:"sentiment,omitempty"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
}

// AnalysisResult groups the three pillars; any pillar may be absent.
type AnalysisResult struct {
	Technical    *TechnicalAnalysis   `json:"technical,omitempty"`
	Fundamentals *FundamentalAnalysis `json:"fundamentals,omitempty"`
	Sentiment    *SentimentAnalysis   `json:"sentiment,omitempty"`
}

// Evidence is the bundle handed to the signal generator: everything the
// pillar tasks managed to collect for one ticker.
type Evidence struct {
	Ticker      string
	CompanyName string
	Price       *PriceData
	Analysis    AnalysisResult
	Headlines   []NewsHeadline
}

// AgentResult is the signal generator's parsed output. Confidence is advisory:
// the orchestrator replaces it with the weighted pillar fusion.
type AgentResult struct {
	Signal      SignalType `json:"signal"`
	Confidence  float64    `json:"confidence"`
	Explanation string     `json:"explanation"`
}

type AnalyzeRequest struct {
	Ticker              string `json:"ticker"`
	IncludeNews         bool   `json:"include_news"`
	IncludeTechnicals   bool   `json:"include_technicals"`
	IncludeFundamentals bool   `json:"include_fundamentals"`
}

type AnalysisMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	LLMProvider string    `json:"llm_provider"`
	ModelUsed   string    `json:"model_used"`
	Cached      bool      `json:"cached"`
}

type AnalyzeResponse struct {
	Ticker      string           `json:"ticker"`
	CompanyName string           `json:"company_name,omitempty"`
	Signal      SignalType       `json:"signal"`
	Confidence  float64          `json:"confidence"`
	Explanation string           `json:"explanation"`
	Analysis    AnalysisResult   `json:"analysis"`
	PriceData   *PriceData       `json:"price_data,omitempty"`
	Sources     []NewsHeadline   `json:"sources"`
	Metadata    AnalysisMetadata `json:"metadata"`
}

// Clone returns a deep copy so cached responses can be handed out with
// independent metadata and slices.
func (r *AnalyzeResponse) Clone() *AnalyzeResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.PriceData != nil {
		pd := *r.PriceData
		pd.Current = cloneFloat(pd.Current)
		pd.ChangePercent1D = cloneFloat(pd.ChangePercent1D)
		pd.ChangePercent1W = cloneFloat(pd.ChangePercent1W)
		pd.ChangePercent1M = cloneFloat(pd.ChangePercent1M)
		pd.High52W = cloneFloat(pd.High52W)
		pd.Low52W = cloneFloat(pd.Low52W)
		out.PriceData = &pd
	}
	if r.Analysis.Technical != nil {
		t := *r.Analysis.Technical
		t.RSI = cloneFloat(t.RSI)
		t.SMA50 = cloneFloat(t.SMA50)
		t.SMA200 = cloneFloat(t.SMA200)
		t.TechnicalScore = cloneFloat(t.TechnicalScore)
		out.Analysis.Technical = &t
	}
	if r.Analysis.Fundamentals != nil {
		f := *r.Analysis.Fundamentals
		f.Insights = append([]string(nil), f.Insights...)
		out.Analysis.Fundamentals = &f
	}
	if r.Analysis.Sentiment != nil {
		s := *r.Analysis.Sentiment
		s.Score = cloneFloat(s.Score)
		out.Analysis.Sentiment = &s
	}
	out.Sources = append([]NewsHeadline(nil), r.Sources...)
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float is a pointer helper for optional numeric fields.
func Float(v float64) *float64 { return &v }

// Int is a pointer helper for optional integer fields.
func Int(v int) *int { return &v }
