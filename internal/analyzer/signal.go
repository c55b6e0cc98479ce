package analyzer

import (
	"math"

	"fxlens/pkg/model"
)

// DefaultTrendLookback is the number of periods the trend compares across
const DefaultTrendLookback = 20

// TrendDirection compares the last close with the close lookback periods
// earlier. It is neutral when the series is too short to look back that far.
func TrendDirection(closes []float64, lookback int) model.Bias {
	if lookback < 1 || len(closes) < lookback+1 {
		return model.Neutral
	}
	last := len(closes) - 1
	if closes[last] > closes[last-lookback] {
		return model.Bullish
	}
	return model.Bearish
}

// TrendStrength is the share of upward movement among the last lookback
// changes, as a percentage. It is 50 when nothing moved.
func TrendStrength(closes []float64, lookback int) float64 {
	if len(closes) < 2 || lookback < 1 {
		return 50
	}

	start := len(closes) - lookback
	if start < 1 {
		start = 1
	}

	var up, total float64
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			up += change
		}
		total += math.Abs(change)
	}

	if total == 0 {
		return 50
	}
	return up / total * 100
}

// SignalInputs are the readings the signal is synthesized from
type SignalInputs struct {
	RSI   float64
	Trend model.Bias
	MACD  model.Bias
}

// SignalPolicy maps indicator readings to a presentational signal.
// It is a display heuristic, not a trading strategy.
type SignalPolicy struct {
	Overbought float64 `yaml:"overbought"`
	Oversold   float64 `yaml:"oversold"`
	// RequireMACD makes MACD confirm the trend instead of merely not opposing it
	RequireMACD bool `yaml:"require_macd"`
}

// DefaultSignalPolicy uses the RSI zone thresholds
func DefaultSignalPolicy() SignalPolicy {
	return SignalPolicy{
		Overbought: 70,
		Oversold:   30,
	}
}

// Synthesize combines trend, RSI and MACD into BUY, SELL or HOLD
func (p SignalPolicy) Synthesize(in SignalInputs) model.Signal {
	switch in.Trend {
	case model.Bullish:
		if in.RSI <= p.Overbought && p.macdAgrees(in.MACD, model.Bullish) {
			return model.SignalBuy
		}
	case model.Bearish:
		if in.RSI >= p.Oversold && p.macdAgrees(in.MACD, model.Bearish) {
			return model.SignalSell
		}
	}
	return model.SignalHold
}

func (p SignalPolicy) macdAgrees(macd, want model.Bias) bool {
	if p.RequireMACD {
		return macd == want
	}
	return macd == want || macd == model.Neutral
}
