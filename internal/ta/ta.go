// Package ta implements pure technical indicator math over closing price and
// volume series. Functions return math.NaN() when the series is too short for
// the indicator; callers translate NaN into an absent field.
package ta

import "math"

// SMA returns the simple mean of the last n closes.
func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// RSI computes Wilder's Relative Strength Index. The averages are seeded from
// the first `period` deltas and then recursively smoothed across the rest of
// the series: avg = (avg*(period-1) + new) / period.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		// Pure uptrend edge case.
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ema computes an exponential moving average series with span smoothing
// (alpha = 2/(span+1), seeded from the first value).
func ema(vals []float64, span int) []float64 {
	if len(vals) == 0 || span <= 0 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(vals))
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the latest MACD line, signal line, and histogram values.
// NaNs are returned when fewer than slow+signal closes are available.
func MACD(closes []float64, fast, slow, signal int) (macdLine, signalLine, histogram float64) {
	if len(closes) < slow+signal {
		return math.NaN(), math.NaN(), math.NaN()
	}

	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	sig := ema(macd, signal)

	last := len(closes) - 1
	return macd[last], sig[last], macd[last] - sig[last]
}

// VolumeRatio returns the most recent volume divided by the mean of the
// preceding `window` volumes, excluding the most recent itself.
func VolumeRatio(volumes []float64, window int) float64 {
	if len(volumes) < window+1 || window <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(volumes) - window - 1; i < len(volumes)-1; i++ {
		sum += volumes[i]
	}
	avg := sum / float64(window)
	if avg == 0 {
		return math.NaN()
	}
	return volumes[len(volumes)-1] / avg
}
