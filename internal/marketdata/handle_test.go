package marketdata

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signal-advisor/internal/types"
)

const summaryFixture = `{
	"quoteSummary": {
		"result": [{
			"price": {
				"regularMarketPrice": {"raw": 190.5},
				"regularMarketPreviousClose": {"raw": 188.0},
				"marketCap": {"raw": 2950000000000},
				"currency": "USD",
				"longName": "Apple Inc.",
				"shortName": "Apple"
			},
			"summaryDetail": {
				"trailingPE": {"raw": 29.4},
				"dividendYield": {"raw": 0.0045},
				"fiftyTwoWeekHigh": {"raw": 199.6},
				"fiftyTwoWeekLow": {"raw": 164.1}
			},
			"financialData": {
				"profitMargins": {"raw": 0.25},
				"debtToEquity": {"raw": 184.4},
				"numberOfAnalystOpinions": {"raw": 41},
				"targetMeanPrice": {"raw": 205.3}
			},
			"defaultKeyStatistics": {
				"pegRatio": {"raw": 2.1},
				"forwardPE": {}
			}
		}],
		"error": null
	}
}`

// primedHandle builds a handle whose one-shot fetches are already satisfied,
// so accessors run against the fixture without touching the network.
func primedHandle(t *testing.T, candles []types.Candle) *handle {
	t.Helper()

	var body quoteSummaryResponse
	require.NoError(t, json.Unmarshal([]byte(summaryFixture), &body))
	require.Len(t, body.QuoteSummary.Result, 1)

	h := &handle{ticker: "AAPL"}
	h.infoOnce.Do(func() { h.info = &body.QuoteSummary.Result[0] })
	h.histOnce.Do(func() { h.candles = candles })
	return h
}

func TestRawValueAbsentMetricIsNil(t *testing.T) {
	h := primedHandle(t, nil)
	assert.Nil(t, h.info.SummaryDetail.ForwardPE.ptr())
	assert.Nil(t, h.info.FinancialData.CurrentRatio.ptr())
}

func TestFundamentalsMapping(t *testing.T) {
	h := primedHandle(t, nil)

	f, err := h.Fundamentals(context.Background())
	require.NoError(t, err)

	require.NotNil(t, f.PERatio)
	assert.InDelta(t, 29.4, *f.PERatio, 1e-9)
	require.NotNil(t, f.ProfitMargin)
	assert.InDelta(t, 0.25, *f.ProfitMargin, 1e-9)
	require.NotNil(t, f.PEGRatio)
	assert.InDelta(t, 2.1, *f.PEGRatio, 1e-9)

	// Yahoo's percent-style debt/equity is converted to a ratio.
	require.NotNil(t, f.DebtToEquity)
	assert.InDelta(t, 1.844, *f.DebtToEquity, 1e-9)

	// Dividend yield already arrives as a fraction and passes through.
	require.NotNil(t, f.DividendYield)
	assert.InDelta(t, 0.0045, *f.DividendYield, 1e-9)

	require.NotNil(t, f.NumberOfAnalysts)
	assert.Equal(t, 41, *f.NumberOfAnalysts)
	require.NotNil(t, f.AnalystTarget)
	assert.InDelta(t, 205.3, *f.AnalystTarget, 1e-9)

	assert.Nil(t, f.ForwardPE)
	assert.Nil(t, f.FundamentalScore, "score is computed downstream, not here")
}

func TestCompanyNamePrefersLongName(t *testing.T) {
	h := primedHandle(t, nil)
	name, err := h.CompanyName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", name)
}

func TestPriceSnapshot(t *testing.T) {
	now := time.Now()
	candles := []types.Candle{
		{Ts: now.AddDate(0, -1, -2).Unix(), Close: 170.0},
		{Ts: now.AddDate(0, 0, -10).Unix(), Close: 180.0},
		{Ts: now.AddDate(0, 0, -1).Unix(), Close: 188.0},
	}
	h := primedHandle(t, candles)

	pd, err := h.Price(context.Background())
	require.NoError(t, err)

	require.NotNil(t, pd.Current)
	assert.InDelta(t, 190.5, *pd.Current, 1e-9)
	assert.Equal(t, "USD", pd.Currency)

	// 1d change against the previous close: (190.5-188)/188.
	require.NotNil(t, pd.ChangePercent1D)
	assert.InDelta(t, 1.33, *pd.ChangePercent1D, 1e-9)

	// 1w change uses the closest close at or before seven days ago.
	require.NotNil(t, pd.ChangePercent1W)
	assert.InDelta(t, 5.83, *pd.ChangePercent1W, 1e-9)

	// 1m change against the close at or before one month ago.
	require.NotNil(t, pd.ChangePercent1M)
	assert.InDelta(t, 12.06, *pd.ChangePercent1M, 1e-9)

	require.NotNil(t, pd.High52W)
	assert.InDelta(t, 199.6, *pd.High52W, 1e-9)
	require.NotNil(t, pd.Low52W)
	assert.InDelta(t, 164.1, *pd.Low52W, 1e-9)
}

func TestChangeSince(t *testing.T) {
	now := time.Now()
	candles := []types.Candle{
		{Ts: now.AddDate(0, 0, -5).Unix(), Close: 100.0},
		{Ts: now.AddDate(0, 0, -1).Unix(), Close: 110.0},
	}

	// Nothing at or before the cutoff and no fallback: absent.
	assert.Nil(t, changeSince(candles, now.AddDate(0, 0, -30), 110.0, false))

	// With fallback the earliest candle is the base.
	got := changeSince(candles, now.AddDate(0, 0, -30), 110.0, true)
	require.NotNil(t, got)
	assert.InDelta(t, 10.0, *got, 1e-9)

	// Zero base yields nothing rather than infinity.
	zero := []types.Candle{{Ts: now.AddDate(0, 0, -5).Unix(), Close: 0}}
	assert.Nil(t, changeSince(zero, now, 110.0, false))
}

func TestChartParsingSkipsNullRows(t *testing.T) {
	const chartFixture = `{
		"chart": {
			"result": [{
				"timestamp": [1000, 2000, 3000],
				"indicators": {
					"quote": [{
						"open": [1.0, null, 3.0],
						"high": [1.5, null, 3.5],
						"low": [0.5, null, 2.5],
						"close": [1.2, null, 3.2],
						"volume": [100, null, 300]
					}]
				}
			}],
			"error": null
		}
	}`

	var body chartResponse
	require.NoError(t, json.Unmarshal([]byte(chartFixture), &body))

	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	kept := 0
	for i := range result.Timestamp {
		if quote.Close[i] != nil {
			kept++
		}
	}
	assert.Equal(t, 2, kept)
}
