package indicator

import (
	"math"

	"fxlens/pkg/model"
)

const (
	// DefaultRSIPeriod is the conventional RSI lookback
	DefaultRSIPeriod = 14
	// DefaultStochasticPeriod is the conventional %K lookback
	DefaultStochasticPeriod = 14

	stochasticDPeriod = 3
	neutralReading    = 50
)

// RSI calculates the Relative Strength Index from the first period price
// changes. It returns 50 (neutral) when fewer than period+1 prices are
// available and 100 when there were no losses.
func RSI(prices []float64, period int) float64 {
	if period < 1 || len(prices) < period+1 {
		return neutralReading
	}
	return rsiWindow(prices[:period+1])
}

// rsiWindow computes RSI over every change in window
func rsiWindow(window []float64) float64 {
	period := len(window) - 1

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RSISeries applies the RSI formula to the period changes ending at each
// index, for charting. Positions 0..period-1 are undefined.
func RSISeries(prices []float64, period int) model.Series {
	out := model.NewSeries(len(prices))
	if period < 1 {
		return out
	}
	for i := period; i < len(prices); i++ {
		out[i] = rsiWindow(prices[i-period : i+1])
	}
	return out
}

// RSIZone classifies an RSI reading for display
func RSIZone(rsi float64) string {
	switch {
	case rsi > 70:
		return "Overbought"
	case rsi < 30:
		return "Oversold"
	}
	return "Neutral"
}

// StochasticResult holds %K and its 3-period average %D
type StochasticResult struct {
	K model.Series `json:"k"`
	D model.Series `json:"d"`
}

// Stochastic calculates the Stochastic Oscillator over a trailing window of
// period bars. %K is 50 when the window has no range. %K is undefined for
// indices before period-1 and %D for indices before period+1.
func Stochastic(candles []model.Candle, period int) StochasticResult {
	res := StochasticResult{
		K: model.NewSeries(len(candles)),
		D: model.NewSeries(len(candles)),
	}
	if period < 1 {
		return res
	}

	for i := period - 1; i < len(candles); i++ {
		highestHigh := math.Inf(-1)
		lowestLow := math.Inf(1)
		for _, c := range candles[i-period+1 : i+1] {
			highestHigh = math.Max(highestHigh, c.High)
			lowestLow = math.Min(lowestLow, c.Low)
		}

		if highestHigh == lowestLow {
			res.K[i] = neutralReading
			continue
		}
		k := (candles[i].Close - lowestLow) / (highestHigh - lowestLow) * 100
		// A close outside its own bar's range would escape [0,100]
		res.K[i] = math.Max(0, math.Min(100, k))
	}

	for i := period - 1 + stochasticDPeriod - 1; i < len(candles); i++ {
		res.D[i] = mean(res.K[i-stochasticDPeriod+1 : i+1])
	}
	return res
}

// StochasticZone classifies a %K reading for display
func StochasticZone(k float64) string {
	switch {
	case k > 80:
		return "Overbought"
	case k < 20:
		return "Oversold"
	}
	return "Neutral"
}
