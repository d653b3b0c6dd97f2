// Package marketdata fetches quotes, fundamentals and price history from the
// Yahoo Finance JSON API. One Client is shared by the whole process; each
// analysis request resolves a per-ticker handle that memoizes the upstream
// metadata fetch so concurrent tasks never duplicate calls.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"stock-signal-advisor/internal/api"
	"stock-signal-advisor/internal/interfaces"
	"stock-signal-advisor/internal/store"
	"stock-signal-advisor/internal/types"
)

const (
	quoteSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s"
	chartURL        = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

	summaryModules = "price,summaryDetail,financialData,defaultKeyStatistics"
)

// Client talks to Yahoo Finance. Safe for concurrent use.
type Client struct {
	http        *api.Client
	bucket      *tokenBucket
	historyDays int
}

// New builds a Client from config. RequestsPerSecond <= 0 disables the
// outbound throttle.
func New(cfg *store.Config) *Client {
	c := &Client{
		http:        api.NewClient(api.WithTimeout(cfg.MarketDataTimeout())),
		historyDays: cfg.MarketData.HistoryDays,
	}
	if rps := cfg.MarketData.RequestsPerSecond; rps > 0 {
		c.bucket = newTokenBucket(rps, time.Second/time.Duration(rps))
	}
	return c
}

// Lookup returns a handle for the ticker. No upstream call happens until the
// handle is primed or first accessed.
func (c *Client) Lookup(ticker string) interfaces.StockHandle {
	return &handle{ticker: ticker, client: c}
}

func (c *Client) get(ctx context.Context, rawURL string) (*api.Response, error) {
	if c.bucket != nil {
		if err := c.bucket.wait(ctx); err != nil {
			return nil, err
		}
	}
	req := api.NewRequest("GET", rawURL).WithContext(ctx)
	for k, v := range api.YahooFinanceHeaders() {
		req.WithHeader(k, v)
	}
	return c.http.DoWithRetry(req, nil)
}

// rawValue is Yahoo's {raw, fmt} numeric wrapper. Absent metrics come back
// as an empty object, so Raw stays nil.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) ptr() *float64 {
	if v.Raw == nil {
		return nil
	}
	c := *v.Raw
	return &c
}

func (v rawValue) scaled(divisor float64) *float64 {
	if v.Raw == nil {
		return nil
	}
	c := *v.Raw / divisor
	return &c
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResult struct {
	Price struct {
		RegularMarketPrice         rawValue `json:"regularMarketPrice"`
		RegularMarketPreviousClose rawValue `json:"regularMarketPreviousClose"`
		MarketCap                  rawValue `json:"marketCap"`
		Currency                   string   `json:"currency"`
		LongName                   string   `json:"longName"`
		ShortName                  string   `json:"shortName"`
	} `json:"price"`
	SummaryDetail struct {
		TrailingPE       rawValue `json:"trailingPE"`
		ForwardPE        rawValue `json:"forwardPE"`
		PriceToSales     rawValue `json:"priceToSalesTrailing12Months"`
		DividendYield    rawValue `json:"dividendYield"`
		PayoutRatio      rawValue `json:"payoutRatio"`
		FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
	} `json:"summaryDetail"`
	FinancialData struct {
		ProfitMargins           rawValue `json:"profitMargins"`
		OperatingMargins        rawValue `json:"operatingMargins"`
		GrossMargins            rawValue `json:"grossMargins"`
		ReturnOnEquity          rawValue `json:"returnOnEquity"`
		ReturnOnAssets          rawValue `json:"returnOnAssets"`
		RevenueGrowth           rawValue `json:"revenueGrowth"`
		EarningsGrowth          rawValue `json:"earningsGrowth"`
		CurrentRatio            rawValue `json:"currentRatio"`
		DebtToEquity            rawValue `json:"debtToEquity"`
		FreeCashflow            rawValue `json:"freeCashflow"`
		OperatingCashflow       rawValue `json:"operatingCashflow"`
		TargetMeanPrice         rawValue `json:"targetMeanPrice"`
		RecommendationMean      rawValue `json:"recommendationMean"`
		NumberOfAnalystOpinions rawValue `json:"numberOfAnalystOpinions"`
	} `json:"financialData"`
	DefaultKeyStatistics struct {
		PegRatio                rawValue `json:"pegRatio"`
		PriceToBook             rawValue `json:"priceToBook"`
		EnterpriseToEbitda      rawValue `json:"enterpriseToEbitda"`
		EarningsQuarterlyGrowth rawValue `json:"earningsQuarterlyGrowth"`
		EnterpriseValue         rawValue `json:"enterpriseValue"`
		SharesOutstanding       rawValue `json:"sharesOutstanding"`
		FloatShares             rawValue `json:"floatShares"`
	} `json:"defaultKeyStatistics"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *yahooError          `json:"error"`
	} `json:"quoteSummary"`
}

func (c *Client) fetchSummary(ctx context.Context, ticker string) (*quoteSummaryResult, error) {
	u := fmt.Sprintf(quoteSummaryURL, url.PathEscape(ticker)) + "?modules=" + url.QueryEscape(summaryModules)

	resp, err := c.get(ctx, u)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ticker)
		}
		return nil, fmt.Errorf("quote summary for %s: %w", ticker, err)
	}

	var body quoteSummaryResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, fmt.Errorf("quote summary for %s: %w", ticker, err)
	}
	if body.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", interfaces.ErrNotFound, ticker, body.QuoteSummary.Error.Code)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ticker)
	}
	return &body.QuoteSummary.Result[0], nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchHistory(ctx context.Context, ticker string) ([]types.Candle, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -c.historyDays)
	u := fmt.Sprintf(chartURL, url.PathEscape(ticker)) +
		fmt.Sprintf("?period1=%d&period2=%d&interval=1d", from.Unix(), now.Unix())

	resp, err := c.get(ctx, u)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ticker)
		}
		return nil, fmt.Errorf("price history for %s: %w", ticker, err)
	}

	var body chartResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, fmt.Errorf("price history for %s: %w", ticker, err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", interfaces.ErrNotFound, ticker, body.Chart.Error.Code)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ticker)
	}

	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]types.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo pads partial sessions with nulls; drop rows without a close.
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		c := types.Candle{Ts: ts, Close: *quote.Close[i]}
		if i < len(quote.Open) && quote.Open[i] != nil {
			c.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			c.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			c.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			c.Vol = *quote.Volume[i]
		}
		candles = append(candles, c)
	}
	return candles, nil
}
