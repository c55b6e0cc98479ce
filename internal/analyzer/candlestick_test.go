package analyzer

import (
	"testing"

	"fxlens/pkg/model"
)

func TestDetectBullishEngulfing(t *testing.T) {
	candles := []model.Candle{
		{Open: 1.1000, Close: 1.0950, High: 1.1010, Low: 1.0940},
		{Open: 1.0930, Close: 1.1020, High: 1.1030, Low: 1.0920},
	}

	p := DetectPattern(candles)
	if p.Name != model.PatternBullishEngulfing {
		t.Errorf("Expected BullishEngulfing, got %s", p.Name)
	}
	if p.Bias != model.Bullish {
		t.Errorf("Expected bullish bias, got %s", p.Bias)
	}
}

func TestDetectBearishEngulfing(t *testing.T) {
	candles := []model.Candle{
		{Open: 1.0950, Close: 1.1000, High: 1.1010, Low: 1.0940},
		{Open: 1.1020, Close: 1.0930, High: 1.1030, Low: 1.0920},
	}

	if p := DetectPattern(candles); p.Name != model.PatternBearishEngulfing || p.Bias != model.Bearish {
		t.Errorf("Expected bearish BearishEngulfing, got %s (%s)", p.Name, p.Bias)
	}
}

func TestDetectDoji(t *testing.T) {
	// body 0.0002, range 0.0040, long upper wick
	candles := []model.Candle{{Open: 1.1000, Close: 1.1002, High: 1.1030, Low: 1.0990}}

	if p := DetectPattern(candles); p.Name != model.PatternDoji || p.Bias != model.Neutral {
		t.Errorf("Expected neutral Doji, got %s (%s)", p.Name, p.Bias)
	}
}

func TestDetectHammer(t *testing.T) {
	// body 0.0010, lower wick 0.0030, upper wick 0.0002
	candles := []model.Candle{{Open: 1.1000, Close: 1.1010, High: 1.1012, Low: 1.0970}}

	if p := DetectPattern(candles); p.Name != model.PatternHammer || p.Bias != model.Bullish {
		t.Errorf("Expected bullish Hammer, got %s (%s)", p.Name, p.Bias)
	}
}

func TestDetectShootingStar(t *testing.T) {
	// body 0.0010, upper wick 0.0030, lower wick 0.0002
	candles := []model.Candle{{Open: 1.1010, Close: 1.1000, High: 1.1040, Low: 1.0998}}

	if p := DetectPattern(candles); p.Name != model.PatternShootingStar || p.Bias != model.Bearish {
		t.Errorf("Expected bearish ShootingStar, got %s (%s)", p.Name, p.Bias)
	}
}

func TestDetectPatternOrder(t *testing.T) {
	// Tiny bullish body with a long lower wick satisfies both Doji and Hammer
	candles := []model.Candle{{Open: 1.1000, Close: 1.1001, High: 1.1001, Low: 1.0980}}

	if p := DetectPattern(candles); p.Name != model.PatternDoji {
		t.Errorf("Expected Doji to take precedence over Hammer, got %s", p.Name)
	}
}

func TestDetectSingleBarSkipsEngulfing(t *testing.T) {
	// A plain bullish bar: no single-bar pattern applies
	candles := []model.Candle{{Open: 1.0930, Close: 1.1020, High: 1.1030, Low: 1.0920}}

	if p := DetectPattern(candles); p.Name != model.PatternNone {
		t.Errorf("Expected None for a single plain bar, got %s", p.Name)
	}
}

func TestDetectNoPattern(t *testing.T) {
	if p := DetectPattern(nil); p.Name != model.PatternNone || p.Bias != model.Neutral {
		t.Errorf("Expected None for empty input, got %s", p.Name)
	}

	candles := []model.Candle{
		{Open: 1.0900, Close: 1.0950, High: 1.0960, Low: 1.0890},
		{Open: 1.0950, Close: 1.1000, High: 1.1010, Low: 1.0940},
	}
	if p := DetectPattern(candles); p.Name != model.PatternNone {
		t.Errorf("Expected None for two plain rising bars, got %s", p.Name)
	}
}
