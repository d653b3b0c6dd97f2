package ta

import (
	"math"

	"stock-signal-advisor/internal/types"
)

// Default indicator parameters.
const (
	RSIPeriod        = 14
	SMAShortWindow   = 50
	SMALongWindow    = 200
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	VolumeWindow     = 20
)

// Composite score weights. A missing indicator contributes zero to the sum;
// its weight is not redistributed.
const (
	weightRSI    = 0.25
	weightMACD   = 0.25
	weightSMA50  = 0.20
	weightSMA200 = 0.20
	weightVolume = 0.10
)

// InterpretRSI maps an RSI value to its standard reading.
func InterpretRSI(rsi float64) string {
	switch {
	case rsi < 30:
		return "oversold"
	case rsi > 70:
		return "overbought"
	default:
		return "neutral"
	}
}

// InterpretMACD turns the MACD/signal crossover into a trading signal.
func InterpretMACD(macdLine, signalLine float64) types.MacdSignal {
	if math.IsNaN(macdLine) || math.IsNaN(signalLine) {
		return types.MacdNeutral
	}
	switch {
	case macdLine > signalLine:
		return types.MacdBullish
	case macdLine < signalLine:
		return types.MacdBearish
	default:
		return types.MacdNeutral
	}
}

// InterpretVolume classifies the recent-to-average volume ratio.
func InterpretVolume(ratio float64) types.VolumeTrend {
	if math.IsNaN(ratio) {
		return types.VolumeNeutral
	}
	switch {
	case ratio > 1.5:
		return types.VolumeHigh
	case ratio < 0.5:
		return types.VolumeLow
	default:
		return types.VolumeNeutral
	}
}

// Score computes the composite technical score in [0,1].
//
// RSI contributes its full weight below 30 (oversold reads bullish), nothing
// above 70, and linearly in between. MACD contributes full weight when
// bullish and half when neutral. Each SMA contributes only when price sits
// above it. Volume contributes full weight when high and half when neutral.
func Score(rsi float64, macdSignal types.MacdSignal, priceVsSMA50, priceVsSMA200 types.TrendDirection, volumeTrend types.VolumeTrend) float64 {
	score := 0.0

	if !math.IsNaN(rsi) {
		switch {
		case rsi < 30:
			score += weightRSI
		case rsi > 70:
			// Overbought contributes nothing.
		default:
			score += weightRSI * (1.0 - (rsi-30.0)/40.0)
		}
	}

	switch macdSignal {
	case types.MacdBullish:
		score += weightMACD
	case types.MacdNeutral:
		score += weightMACD / 2
	}

	if priceVsSMA50 == types.TrendAbove {
		score += weightSMA50
	}
	if priceVsSMA200 == types.TrendAbove {
		score += weightSMA200
	}

	switch volumeTrend {
	case types.VolumeHigh:
		score += weightVolume
	case types.VolumeNeutral:
		score += weightVolume / 2
	}

	return round4(score)
}

// Analyze computes the full technical picture from a chronologically ordered
// OHLCV series. Indicators degrade independently: too little history for one
// leaves the others intact.
func Analyze(candles []types.Candle) *types.TechnicalAnalysis {
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Vol
	}

	result := &types.TechnicalAnalysis{}

	rsi := RSI(closes, RSIPeriod)
	if !math.IsNaN(rsi) {
		result.RSI = types.Float(round2(rsi))
		result.RSIInterpretation = InterpretRSI(rsi)
	}

	sma50 := SMA(closes, SMAShortWindow)
	sma200 := SMA(closes, SMALongWindow)
	if !math.IsNaN(sma50) {
		result.SMA50 = types.Float(round2(sma50))
	}
	if !math.IsNaN(sma200) {
		result.SMA200 = types.Float(round2(sma200))
	}

	if len(closes) > 0 {
		current := closes[len(closes)-1]
		if !math.IsNaN(sma50) {
			result.PriceVsSMA50 = trendVs(current, sma50)
		}
		if !math.IsNaN(sma200) {
			result.PriceVsSMA200 = trendVs(current, sma200)
		}
	}

	macdLine, signalLine, _ := MACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
	result.MACDSignal = InterpretMACD(macdLine, signalLine)

	result.VolumeTrend = InterpretVolume(VolumeRatio(volumes, VolumeWindow))

	score := Score(rsi, result.MACDSignal, result.PriceVsSMA50, result.PriceVsSMA200, result.VolumeTrend)
	result.TechnicalScore = types.Float(score)

	return result
}

func trendVs(price, avg float64) types.TrendDirection {
	if price > avg {
		return types.TrendAbove
	}
	return types.TrendBelow
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
