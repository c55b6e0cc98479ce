// Package indicator implements the technical-indicator math used to annotate
// price charts. Every function is pure: it reads its input slice, never
// mutates it, and returns freshly allocated output.
package indicator

import (
	"fxlens/pkg/model"
)

// SMA calculates the Simple Moving Average of every full window.
// The result has len(prices)-period+1 elements; element j is the mean of
// prices[j : j+period]. It is empty when there are fewer than period prices.
func SMA(prices []float64, period int) []float64 {
	if period < 1 || len(prices) < period {
		return []float64{}
	}

	out := make([]float64, 0, len(prices)-period+1)
	for end := period; end <= len(prices); end++ {
		out = append(out, mean(prices[end-period:end]))
	}
	return out
}

func mean(window []float64) float64 {
	var sum float64
	for _, p := range window {
		sum += p
	}
	return sum / float64(len(window))
}

// SMASeries is SMA left-padded so that index i holds the window ending at i
func SMASeries(prices []float64, period int) model.Series {
	out := model.NewSeries(len(prices))
	for j, v := range SMA(prices, period) {
		out[j+period-1] = v
	}
	return out
}

// EMA calculates the Exponential Moving Average.
// Position period-1 holds the SMA of the first period prices (the seed);
// positions before it are undefined.
func EMA(prices []float64, period int) model.Series {
	out := model.NewSeries(len(prices))
	if period < 1 || len(prices) < period {
		return out
	}

	avg := mean(prices[:period])
	out[period-1] = avg

	multiplier := 2 / float64(period+1)
	for i := period; i < len(prices); i++ {
		avg = (prices[i]-avg)*multiplier + avg
		out[i] = avg
	}
	return out
}
