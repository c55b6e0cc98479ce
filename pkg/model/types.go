package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPair is returned when a currency pair cannot be parsed
var ErrInvalidPair = errors.New("invalid currency pair")

// Candle represents a single candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Closes projects the closing prices of a candle series
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// Pair is a currency pair such as EUR/USD
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// ParsePair accepts EURUSD, EUR/USD, eur-usd and EUR_USD
func ParsePair(s string) (Pair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
	if len(s) != 6 {
		return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
		}
	}
	return Pair{Base: s[:3], Quote: s[3:]}, nil
}

// MustParsePair is ParsePair for constants; it panics on bad input
func MustParsePair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the BASE/QUOTE form
func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Symbol returns the BASEQUOTE form
func (p Pair) Symbol() string {
	return p.Base + p.Quote
}

// PipSize is 0.01 for JPY-quoted pairs and 0.0001 otherwise
func (p Pair) PipSize() float64 {
	if p.Quote == "JPY" {
		return 0.01
	}
	return 0.0001
}

// Signal is the presentational trade signal
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Bias is a directional lean
type Bias string

const (
	Bullish Bias = "bullish"
	Bearish Bias = "bearish"
	Neutral Bias = "neutral"
)

// PatternName identifies a candlestick shape
type PatternName string

const (
	PatternNone             PatternName = "None"
	PatternDoji             PatternName = "Doji"
	PatternHammer           PatternName = "Hammer"
	PatternShootingStar     PatternName = "ShootingStar"
	PatternBullishEngulfing PatternName = "BullishEngulfing"
	PatternBearishEngulfing PatternName = "BearishEngulfing"
)

// Pattern is a detected candlestick pattern
type Pattern struct {
	Name        PatternName `json:"name"`
	Bias        Bias        `json:"bias"`
	Description string      `json:"description,omitempty"`
}

// Levels holds support/resistance levels derived from the last close
type Levels struct {
	S1 float64 `json:"s1"`
	S2 float64 `json:"s2"`
	S3 float64 `json:"s3"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
	R3 float64 `json:"r3"`
}

// ScanResult represents the output of a multi-pair scan
type ScanResult struct {
	TotalScanned int                  `json:"total_scanned"`
	Results      []*TechnicalAnalysis `json:"results"`
	Failures     map[string]string    `json:"failures,omitempty"`
	ScanTime     time.Duration        `json:"scan_time"`
}
