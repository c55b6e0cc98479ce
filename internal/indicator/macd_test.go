package indicator

import (
	"testing"

	"fxlens/pkg/model"
)

func TestMACDWarmup(t *testing.T) {
	prices := model.Closes(randomWalk(3, 60))
	res := MACD(prices)

	if res.MACD.Defined(24) || !res.MACD.Defined(25) {
		t.Errorf("Expected MACD line defined from index 25")
	}
	if res.Signal.Defined(32) || !res.Signal.Defined(33) {
		t.Errorf("Expected signal line defined from index 33")
	}

	ema12 := EMA(prices, 12)
	ema26 := EMA(prices, 26)
	if res.MACD[40] != ema12[40]-ema26[40] {
		t.Errorf("Expected MACD = EMA12 - EMA26 at 40, got %f", res.MACD[40])
	}
}

func TestMACDSignalIsEMAOfValidLine(t *testing.T) {
	prices := model.Closes(randomWalk(4, 50))
	res := MACD(prices)

	valid := res.MACD.Valid()
	signal := EMA(valid, 9)
	for j := range signal {
		if !signal.Defined(j) {
			continue
		}
		if res.Signal[25+j] != signal[j] {
			t.Errorf("Signal[%d]: expected %f, got %f", 25+j, signal[j], res.Signal[25+j])
		}
	}
}

func TestMACDHistogram(t *testing.T) {
	res := MACD(model.Closes(randomWalk(5, 80)))

	for i := range res.Histogram {
		bothDefined := res.MACD.Defined(i) && res.Signal.Defined(i)
		if !bothDefined {
			if res.Histogram.Defined(i) {
				t.Errorf("Histogram[%d]: expected undefined, got %f", i, res.Histogram[i])
			}
			continue
		}
		if res.Histogram[i] != res.MACD[i]-res.Signal[i] {
			t.Errorf("Histogram[%d]: expected %f, got %f", i, res.MACD[i]-res.Signal[i], res.Histogram[i])
		}
	}
}

func TestMACDShortSeries(t *testing.T) {
	res := MACD(risingPrices(20, 1.08, 0.001))

	if len(res.MACD) != 20 {
		t.Fatalf("Expected aligned length 20, got %d", len(res.MACD))
	}
	if len(res.MACD.Valid())+len(res.Signal.Valid())+len(res.Histogram.Valid()) != 0 {
		t.Error("Expected every MACD series undefined below the slow period")
	}
}

func TestMACDBias(t *testing.T) {
	rising := MACD(risingPrices(40, 1.08, 0.001))
	if b := MACDBias(rising.MACD.Last()); b != model.Bullish {
		t.Errorf("Expected bullish MACD for rising prices, got %s", b)
	}

	falling := MACD(risingPrices(40, 1.12, -0.001))
	if b := MACDBias(falling.MACD.Last()); b != model.Bearish {
		t.Errorf("Expected bearish MACD for falling prices, got %s", b)
	}

	if b := MACDBias(model.Undefined()); b != model.Neutral {
		t.Errorf("Expected neutral for undefined MACD, got %s", b)
	}
}
