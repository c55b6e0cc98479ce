package analyzer

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"fxlens/pkg/model"
)

func candlesFromCloses(closes []float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		candles[i] = model.Candle{
			Time:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:  open,
			High:  max(open, c) + 0.0002,
			Low:   min(open, c) - 0.0002,
			Close: c,
		}
	}
	return candles
}

func TestAnalyzeRisingSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1.0800 + float64(i)*(0.0070/29)
	}

	analysis := NewTechnicalAnalyzer().Analyze(model.MustParsePair("EURUSD"), candlesFromCloses(closes))
	if analysis == nil {
		t.Fatal("Expected analysis, got nil")
	}

	if analysis.RSI != 100 {
		t.Errorf("Expected RSI 100, got %f", analysis.RSI)
	}
	if analysis.RSISignal != "Overbought" {
		t.Errorf("Expected Overbought, got %s", analysis.RSISignal)
	}
	if analysis.TrendDirection != model.Bullish {
		t.Errorf("Expected bullish trend, got %s", analysis.TrendDirection)
	}
	if analysis.TrendStrength != 100 {
		t.Errorf("Expected trend strength 100, got %f", analysis.TrendStrength)
	}
	if analysis.Signal == model.SignalSell {
		t.Error("Expected a rising series not to produce SELL")
	}
	if analysis.MACDBias != model.Bullish {
		t.Errorf("Expected bullish MACD, got %s", analysis.MACDBias)
	}
}

func TestAnalyzeAlignsSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	closes := make([]float64, 60)
	price := 150.5
	for i := range closes {
		price += (rng.Float64() - 0.5) * 0.3
		closes[i] = price
	}

	analysis := NewTechnicalAnalyzer().Analyze(model.MustParsePair("USDJPY"), candlesFromCloses(closes))

	s := analysis.Series
	for name, series := range map[string]model.Series{
		"close": s.Close, "sma20": s.SMA20, "sma50": s.SMA50, "ema20": s.EMA20,
		"rsi": s.RSI, "k": s.StochK, "d": s.StochD, "macd": s.MACD,
		"signal": s.MACDSignal, "hist": s.MACDHist,
		"upper": s.BBUpper, "middle": s.BBMiddle, "lower": s.BBLower,
	} {
		if len(series) != len(closes) {
			t.Errorf("%s: expected length %d, got %d", name, len(closes), len(series))
		}
	}

	if !analysis.MACDHistogram.Defined() {
		t.Error("Expected a defined MACD histogram with 60 samples")
	}
	if _, err := json.Marshal(analysis); err != nil {
		t.Errorf("Expected analysis to encode as JSON: %v", err)
	}
}

func TestAnalyzeShortSeries(t *testing.T) {
	analysis := NewTechnicalAnalyzer().Analyze(model.MustParsePair("GBPUSD"), candlesFromCloses([]float64{1.27, 1.28}))

	if analysis.RSI != 50 || analysis.RSISignal != "Neutral" {
		t.Errorf("Expected neutral RSI fallback, got %f (%s)", analysis.RSI, analysis.RSISignal)
	}
	if analysis.TrendDirection != model.Neutral {
		t.Errorf("Expected neutral trend, got %s", analysis.TrendDirection)
	}
	if analysis.Signal != model.SignalHold {
		t.Errorf("Expected HOLD, got %s", analysis.Signal)
	}
	if analysis.MACD.Defined() || analysis.BBUpper.Defined() || analysis.StochK.Defined() {
		t.Error("Expected undefined latest values during warm-up")
	}
	if analysis.BandPosition != "Inside" {
		t.Errorf("Expected Inside without bands, got %s", analysis.BandPosition)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if a := NewTechnicalAnalyzer().Analyze(model.MustParsePair("EURUSD"), nil); a != nil {
		t.Errorf("Expected nil for empty input, got %+v", a)
	}
}

func TestAnalyzeOptions(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := SignalPolicy{Overbought: 101, Oversold: -1}

	ta := NewTechnicalAnalyzer(WithClock(func() time.Time { return fixed }), WithPolicy(policy), WithTrendLookback(5))

	closes := []float64{1.10, 1.11, 1.12, 1.13, 1.14, 1.15}
	a := ta.Analyze(model.MustParsePair("EURUSD"), candlesFromCloses(closes))

	if !a.GeneratedAt.Equal(fixed) {
		t.Errorf("Expected injected clock, got %s", a.GeneratedAt)
	}
	if a.TrendDirection != model.Bullish {
		t.Errorf("Expected bullish trend over a 5-period lookback, got %s", a.TrendDirection)
	}
	if a.Signal != model.SignalBuy {
		t.Errorf("Expected BUY with a permissive policy, got %s", a.Signal)
	}
	if ta.Policy() != policy {
		t.Error("Expected policy to be replaced")
	}
	if a.ID == "" {
		t.Error("Expected an analysis ID")
	}
}

func TestSupportResistance(t *testing.T) {
	l := supportResistance(1.0)
	if l.S1 >= 1 || l.R1 <= 1 || l.S3 >= l.S2 || l.R3 <= l.R2 {
		t.Errorf("Unexpected level ordering: %+v", l)
	}
}
