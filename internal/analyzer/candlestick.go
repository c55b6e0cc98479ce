package analyzer

import (
	"math"

	"fxlens/pkg/model"
)

// candleShape holds the body and wick measurements of a single bar
type candleShape struct {
	body       float64
	upperWick  float64
	lowerWick  float64
	totalRange float64
	bullish    bool
	bearish    bool
}

func shapeOf(c model.Candle) candleShape {
	return candleShape{
		body:       math.Abs(c.Close - c.Open),
		upperWick:  c.High - math.Max(c.Open, c.Close),
		lowerWick:  math.Min(c.Open, c.Close) - c.Low,
		totalRange: c.High - c.Low,
		bullish:    c.Close > c.Open,
		bearish:    c.Close < c.Open,
	}
}

var noPattern = model.Pattern{Name: model.PatternNone, Bias: model.Neutral}

// DetectPattern classifies the most recent bar, and for engulfing patterns
// the bar before it. Checks run in a fixed order and the first match wins.
func DetectPattern(candles []model.Candle) model.Pattern {
	if len(candles) == 0 {
		return noPattern
	}

	last := candles[len(candles)-1]
	s := shapeOf(last)

	if s.body < s.totalRange*0.1 && (s.upperWick > s.body*2 || s.lowerWick > s.body*2) {
		return model.Pattern{Name: model.PatternDoji, Bias: model.Neutral, Description: "Indecision in the market"}
	}

	if s.lowerWick > s.body*2 && s.upperWick < s.body*0.5 && s.bullish {
		return model.Pattern{Name: model.PatternHammer, Bias: model.Bullish, Description: "Potential bullish reversal"}
	}

	if s.upperWick > s.body*2 && s.lowerWick < s.body*0.5 && s.bearish {
		return model.Pattern{Name: model.PatternShootingStar, Bias: model.Bearish, Description: "Potential bearish reversal"}
	}

	if len(candles) < 2 {
		return noPattern
	}
	prev := candles[len(candles)-2]

	if prev.Close < prev.Open && s.bullish && last.Close > prev.Open && last.Open < prev.Close {
		return model.Pattern{Name: model.PatternBullishEngulfing, Bias: model.Bullish, Description: "Strong bullish reversal signal"}
	}

	if prev.Close > prev.Open && s.bearish && last.Close < prev.Open && last.Open > prev.Close {
		return model.Pattern{Name: model.PatternBearishEngulfing, Bias: model.Bearish, Description: "Strong bearish reversal signal"}
	}

	return noPattern
}
