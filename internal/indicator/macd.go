package indicator

import (
	"fxlens/pkg/model"
)

// Standard MACD periods
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDResult holds the MACD line, its signal line and their difference
type MACDResult struct {
	MACD      model.Series `json:"macd"`
	Signal    model.Series `json:"signal"`
	Histogram model.Series `json:"histogram"`
}

// MACD calculates MACD(12, 26, 9)
func MACD(prices []float64) MACDResult {
	return MACDWithPeriods(prices, MACDFast, MACDSlow, MACDSignal)
}

// MACDWithPeriods calculates the MACD line as EMA(fast) - EMA(slow), the
// signal line as an EMA over the defined MACD values mapped back onto the
// price index, and the histogram where both lines are defined.
func MACDWithPeriods(prices []float64, fast, slow, signal int) MACDResult {
	n := len(prices)
	res := MACDResult{
		MACD:      model.NewSeries(n),
		Signal:    model.NewSeries(n),
		Histogram: model.NewSeries(n),
	}

	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)

	first := -1
	for i := 0; i < n; i++ {
		if emaFast.Defined(i) && emaSlow.Defined(i) {
			res.MACD[i] = emaFast[i] - emaSlow[i]
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return res
	}

	// EMAs are defined from their seed onward, so valid MACD values are contiguous
	signalLine := EMA(res.MACD[first:], signal)
	for j, v := range signalLine {
		res.Signal[first+j] = v
	}

	for i := 0; i < n; i++ {
		if res.MACD.Defined(i) && res.Signal.Defined(i) {
			res.Histogram[i] = res.MACD[i] - res.Signal[i]
		}
	}
	return res
}

// MACDBias reads a MACD value as a directional lean
func MACDBias(v model.Value) model.Bias {
	switch {
	case !v.Defined():
		return model.Neutral
	case v > 0:
		return model.Bullish
	case v < 0:
		return model.Bearish
	}
	return model.Neutral
}
