package provider

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"fxlens/pkg/model"
)

// typical levels used to anchor synthetic walks
var basePrices = map[string]float64{
	"EURUSD": 1.0850,
	"GBPUSD": 1.2650,
	"USDJPY": 150.50,
	"USDCHF": 0.8850,
	"AUDUSD": 0.6520,
	"USDCAD": 1.3650,
	"NZDUSD": 0.6150,
	"USDSGD": 1.3450,
	"USDIDR": 15600,
	"USDCNY": 7.24,
	"USDHKD": 7.82,
	"USDMXN": 17.15,
}

// BasePrice returns the anchor price for pair
func BasePrice(pair model.Pair) float64 {
	if p, ok := basePrices[pair.Symbol()]; ok {
		return p
	}
	if pair.Quote == "JPY" {
		return 150.5
	}
	return 1.0
}

// SyntheticProvider generates random-walk daily candles. The same seed and
// pair always produce the same series.
type SyntheticProvider struct {
	seed       int64
	volatility float64
	wick       float64
	now        func() time.Time
}

// NewSyntheticProvider creates a generator; seed 0 picks a time-based seed
func NewSyntheticProvider(seed int64) *SyntheticProvider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticProvider{
		seed:       seed,
		volatility: 0.002,
		wick:       0.001,
		now:        time.Now,
	}
}

// Name returns the provider name
func (p *SyntheticProvider) Name() string {
	return "synthetic"
}

// IsAvailable always returns true
func (p *SyntheticProvider) IsAvailable() bool {
	return true
}

// RateLimit is unbounded for generated data
func (p *SyntheticProvider) RateLimit() int {
	return 0
}

// GetDailyCandles generates days candles ending today
func (p *SyntheticProvider) GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}

	h := fnv.New64a()
	h.Write([]byte(pair.Symbol()))
	rng := rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))

	today := p.now().UTC().Truncate(24 * time.Hour)
	price := BasePrice(pair)

	candles := make([]model.Candle, days)
	for i := range candles {
		open := price
		change := (rng.Float64() - 0.5) * price * p.volatility
		closePrice := price + change
		candles[i] = model.Candle{
			Time:  today.AddDate(0, 0, i-days+1),
			Open:  open,
			High:  max(open, closePrice) + rng.Float64()*price*p.wick,
			Low:   min(open, closePrice) - rng.Float64()*price*p.wick,
			Close: closePrice,
		}
		price = closePrice
	}
	return candles, nil
}

// GetLatestRates derives cross rates for base from the anchor table
func (p *SyntheticProvider) GetLatestRates(ctx context.Context, base string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// units of each currency per one USD
	perUSD := map[string]float64{"USD": 1}
	for sym, price := range basePrices {
		b, q := sym[:3], sym[3:]
		switch {
		case b == "USD":
			perUSD[q] = price
		case q == "USD":
			perUSD[b] = 1 / price
		}
	}

	baseRate, ok := perUSD[base]
	if !ok {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}

	rates := make(map[string]float64, len(perUSD)-1)
	for ccy, r := range perUSD {
		if ccy != base {
			rates[ccy] = r / baseRate
		}
	}
	return rates, nil
}
