// Package analyzer turns a price series into a displayable technical report:
// indicator series, candlestick pattern, trend and a presentational signal.
package analyzer

import (
	"math"
	"time"

	"github.com/google/uuid"

	"fxlens/internal/indicator"
	"fxlens/pkg/model"
)

// TechnicalAnalyzer performs technical analysis on a price series
type TechnicalAnalyzer struct {
	policy   SignalPolicy
	lookback int
	now      func() time.Time
}

// Option configures a TechnicalAnalyzer
type Option func(*TechnicalAnalyzer)

// WithPolicy replaces the default signal policy
func WithPolicy(p SignalPolicy) Option {
	return func(t *TechnicalAnalyzer) { t.policy = p }
}

// WithTrendLookback changes how far back the trend compares
func WithTrendLookback(n int) Option {
	return func(t *TechnicalAnalyzer) {
		if n > 0 {
			t.lookback = n
		}
	}
}

// WithClock sets the time source used to stamp reports
func WithClock(now func() time.Time) Option {
	return func(t *TechnicalAnalyzer) { t.now = now }
}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer(opts ...Option) *TechnicalAnalyzer {
	t := &TechnicalAnalyzer{
		policy:   DefaultSignalPolicy(),
		lookback: DefaultTrendLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Policy returns the signal policy in use
func (t *TechnicalAnalyzer) Policy() SignalPolicy {
	return t.policy
}

// Analyze recomputes the full indicator set for candles.
// It returns nil for an empty series.
func (t *TechnicalAnalyzer) Analyze(pair model.Pair, candles []model.Candle) *model.TechnicalAnalysis {
	if len(candles) == 0 {
		return nil
	}

	closes := model.Closes(candles)
	last := closes[len(closes)-1]

	rsi := indicator.RSI(closes, indicator.DefaultRSIPeriod)
	stoch := indicator.Stochastic(candles, indicator.DefaultStochasticPeriod)
	macd := indicator.MACD(closes)
	bands := indicator.Bollinger(closes, indicator.DefaultBollingerPeriod, indicator.DefaultBollingerK)
	sma20 := indicator.SMASeries(closes, 20)
	sma50 := indicator.SMASeries(closes, 50)

	analysis := &model.TechnicalAnalysis{
		ID:          uuid.NewString(),
		Pair:        pair,
		GeneratedAt: t.now(),
		Samples:     len(candles),
		LastClose:   last,

		RSI:       rsi,
		RSISignal: indicator.RSIZone(rsi),

		StochK: stoch.K.Last(),
		StochD: stoch.D.Last(),

		MACD:           macd.MACD.Last(),
		MACDSignalLine: macd.Signal.Last(),
		MACDHistogram:  macd.Histogram.Last(),

		SMA20:    sma20.Last(),
		SMA50:    sma50.Last(),
		BBUpper:  bands.Upper.Last(),
		BBMiddle: bands.Middle.Last(),
		BBLower:  bands.Lower.Last(),
		BBWidth:  bands.Bandwidth.Last(),

		Pattern:        DetectPattern(candles),
		TrendDirection: TrendDirection(closes, t.lookback),
		TrendStrength:  math.Round(TrendStrength(closes, t.lookback)*100) / 100,
		Levels:         supportResistance(last),

		Series: model.ChartSeries{
			Close:      model.Series(closes),
			SMA20:      sma20,
			SMA50:      sma50,
			EMA20:      indicator.EMA(closes, 20),
			RSI:        indicator.RSISeries(closes, indicator.DefaultRSIPeriod),
			StochK:     stoch.K,
			StochD:     stoch.D,
			MACD:       macd.MACD,
			MACDSignal: macd.Signal,
			MACDHist:   macd.Histogram,
			BBUpper:    bands.Upper,
			BBMiddle:   bands.Middle,
			BBLower:    bands.Lower,
		},
	}

	analysis.StochSignal = "Neutral"
	if analysis.StochK.Defined() {
		analysis.StochSignal = indicator.StochasticZone(analysis.StochK.Float())
	}
	analysis.MACDBias = indicator.MACDBias(analysis.MACD)
	analysis.BandPosition = indicator.BandPosition(last, analysis.BBUpper, analysis.BBLower)

	analysis.Signal = t.policy.Synthesize(SignalInputs{
		RSI:   rsi,
		Trend: analysis.TrendDirection,
		MACD:  analysis.MACDBias,
	})

	return analysis
}

// supportResistance places three levels on either side of the last close
func supportResistance(price float64) model.Levels {
	return model.Levels{
		S1: price * 0.995,
		S2: price * 0.990,
		S3: price * 0.985,
		R1: price * 1.005,
		R2: price * 1.010,
		R3: price * 1.015,
	}
}
