package marketdata

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"stock-signal-advisor/internal/interfaces"
	"stock-signal-advisor/internal/types"
)

// handle memoizes the quote summary and the price history for one ticker.
// Both fetches run at most once per handle regardless of how many analysis
// tasks read from it concurrently.
type handle struct {
	ticker string
	client *Client

	infoOnce sync.Once
	info     *quoteSummaryResult
	infoErr  error

	histOnce sync.Once
	candles  []types.Candle
	histErr  error
}

func (h *handle) Ticker() string { return h.ticker }

func (h *handle) Prime(ctx context.Context) error {
	h.infoOnce.Do(func() {
		h.info, h.infoErr = h.client.fetchSummary(ctx, h.ticker)
	})
	return h.infoErr
}

func (h *handle) History(ctx context.Context) ([]types.Candle, error) {
	h.histOnce.Do(func() {
		h.candles, h.histErr = h.client.fetchHistory(ctx, h.ticker)
	})
	return h.candles, h.histErr
}

func (h *handle) CompanyName(ctx context.Context) (string, error) {
	if err := h.Prime(ctx); err != nil {
		return "", err
	}
	if name := strings.TrimSpace(h.info.Price.LongName); name != "" {
		return name, nil
	}
	return strings.TrimSpace(h.info.Price.ShortName), nil
}

func (h *handle) Price(ctx context.Context) (*types.PriceData, error) {
	if err := h.Prime(ctx); err != nil {
		return nil, err
	}

	current := h.info.Price.RegularMarketPrice.ptr()
	if current == nil {
		// A summary without a market price means the symbol resolves to
		// nothing tradable.
		return nil, fmt.Errorf("%w: %s has no price data", interfaces.ErrNotFound, h.ticker)
	}

	pd := &types.PriceData{
		Current:  current,
		Currency: h.info.Price.Currency,
		High52W:  h.info.SummaryDetail.FiftyTwoWeekHigh.ptr(),
		Low52W:   h.info.SummaryDetail.FiftyTwoWeekLow.ptr(),
	}
	if pd.Currency == "" {
		pd.Currency = "USD"
	}

	if prev := h.info.Price.RegularMarketPreviousClose.ptr(); prev != nil && *prev != 0 {
		pd.ChangePercent1D = types.Float(round2((*current - *prev) / *prev * 100))
	}

	// Week and month changes come from history; a failed history fetch just
	// means those two fields stay empty.
	candles, err := h.History(ctx)
	if err == nil && len(candles) > 0 {
		now := time.Now()
		pd.ChangePercent1W = changeSince(candles, now.AddDate(0, 0, -7), *current, false)
		pd.ChangePercent1M = changeSince(candles, now.AddDate(0, -1, 0), *current, true)
	}

	return pd, nil
}

func (h *handle) Fundamentals(ctx context.Context) (*types.FundamentalAnalysis, error) {
	if err := h.Prime(ctx); err != nil {
		return nil, err
	}

	sd := h.info.SummaryDetail
	fd := h.info.FinancialData
	ks := h.info.DefaultKeyStatistics

	f := &types.FundamentalAnalysis{
		PERatio:            sd.TrailingPE.ptr(),
		ForwardPE:          sd.ForwardPE.ptr(),
		PEGRatio:           ks.PegRatio.ptr(),
		PriceToBook:        ks.PriceToBook.ptr(),
		PriceToSales:       sd.PriceToSales.ptr(),
		EnterpriseToEbitda: ks.EnterpriseToEbitda.ptr(),

		ProfitMargin:    fd.ProfitMargins.ptr(),
		OperatingMargin: fd.OperatingMargins.ptr(),
		GrossMargin:     fd.GrossMargins.ptr(),
		ReturnOnEquity:  fd.ReturnOnEquity.ptr(),
		ReturnOnAssets:  fd.ReturnOnAssets.ptr(),

		RevenueGrowth:           fd.RevenueGrowth.ptr(),
		EarningsGrowth:          fd.EarningsGrowth.ptr(),
		EarningsQuarterlyGrowth: ks.EarningsQuarterlyGrowth.ptr(),

		CurrentRatio: fd.CurrentRatio.ptr(),
		// Yahoo reports debt/equity as a percentage (e.g. 184.4), everything
		// downstream expects a ratio.
		DebtToEquity:      fd.DebtToEquity.scaled(100),
		FreeCashFlow:      fd.FreeCashflow.ptr(),
		OperatingCashFlow: fd.OperatingCashflow.ptr(),

		DividendYield:       sd.DividendYield.ptr(),
		DividendPayoutRatio: sd.PayoutRatio.ptr(),

		MarketCap:         h.info.Price.MarketCap.ptr(),
		EnterpriseValue:   ks.EnterpriseValue.ptr(),
		SharesOutstanding: ks.SharesOutstanding.ptr(),
		FloatShares:       ks.FloatShares.ptr(),

		AnalystTarget: fd.TargetMeanPrice.ptr(),
		AnalystRating: fd.RecommendationMean.ptr(),
	}
	if n := fd.NumberOfAnalystOpinions.Raw; n != nil {
		f.NumberOfAnalysts = types.Int(int(*n))
	}
	return f, nil
}

// changeSince computes the percent change from the last close at or before
// cutoff. With fallbackFirst the earliest candle serves as the base when the
// series does not reach back that far.
func changeSince(candles []types.Candle, cutoff time.Time, last float64, fallbackFirst bool) *float64 {
	var base float64
	found := false
	for i := range candles {
		if candles[i].Ts > cutoff.Unix() {
			break
		}
		base = candles[i].Close
		found = true
	}
	if !found {
		if !fallbackFirst {
			return nil
		}
		base = candles[0].Close
	}
	if base == 0 {
		return nil
	}
	return types.Float(round2((last - base) / base * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
