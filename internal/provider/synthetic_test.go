package provider

import (
	"context"
	"math"
	"testing"
	"time"

	"fxlens/pkg/model"
)

func TestSyntheticDeterministic(t *testing.T) {
	p := NewSyntheticProvider(42)

	a, err := p.GetDailyCandles(context.Background(), eurusd, 50)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, _ := p.GetDailyCandles(context.Background(), eurusd, 50)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical series for the same seed, differs at %d", i)
		}
	}

	other, _ := p.GetDailyCandles(context.Background(), model.MustParsePair("GBPUSD"), 50)
	if other[0].Open != 1.2650 {
		t.Errorf("Expected GBP/USD walk anchored at 1.2650, got %f", other[0].Open)
	}
}

func TestSyntheticCandleShape(t *testing.T) {
	p := NewSyntheticProvider(7)
	p.now = func() time.Time { return time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC) }

	candles, _ := p.GetDailyCandles(context.Background(), model.MustParsePair("USDJPY"), 30)
	if len(candles) != 30 {
		t.Fatalf("Expected 30 candles, got %d", len(candles))
	}

	for i, c := range candles {
		if c.High < math.Max(c.Open, c.Close) || c.Low > math.Min(c.Open, c.Close) {
			t.Errorf("Candle %d has a body outside its range: %+v", i, c)
		}
		if i > 0 && c.Open != candles[i-1].Close {
			t.Errorf("Candle %d does not open at the previous close", i)
		}
	}
	if !candles[29].Time.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected last candle dated today, got %s", candles[29].Time)
	}
	if candles[0].Open != 150.50 {
		t.Errorf("Expected USD/JPY anchor 150.50, got %f", candles[0].Open)
	}
}

func TestSyntheticRejectsZeroDays(t *testing.T) {
	if _, err := NewSyntheticProvider(1).GetDailyCandles(context.Background(), eurusd, 0); err == nil {
		t.Error("Expected error for zero days")
	}
}

func TestSyntheticCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSyntheticProvider(1).GetDailyCandles(ctx, eurusd, 10); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestSyntheticRates(t *testing.T) {
	rates, err := NewSyntheticProvider(1).GetLatestRates(context.Background(), "USD")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rates["JPY"] != 150.50 {
		t.Errorf("Expected JPY 150.50, got %f", rates["JPY"])
	}
	if math.Abs(rates["EUR"]-1/1.0850) > 1e-12 {
		t.Errorf("Expected EUR %f, got %f", 1/1.0850, rates["EUR"])
	}
	if _, ok := rates["USD"]; ok {
		t.Error("Expected base currency excluded")
	}

	if _, err := NewSyntheticProvider(1).GetLatestRates(context.Background(), "XXX"); err == nil {
		t.Error("Expected error for unknown base")
	}
}

func TestBasePrice(t *testing.T) {
	if BasePrice(model.MustParsePair("EURJPY")) != 150.5 {
		t.Error("Expected JPY fallback anchor")
	}
	if BasePrice(model.MustParsePair("EURGBP")) != 1.0 {
		t.Error("Expected unit fallback anchor")
	}
}
