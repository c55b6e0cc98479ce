// Package provider supplies price series to the analyzer. The analyzer does
// not care whether a series is live or synthetic.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"fxlens/pkg/model"
)

// Provider defines the interface for price sources
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyCandles fetches up to days daily candles in chronological order
	GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error)

	// IsAvailable reports whether the provider can serve requests
	IsAvailable() bool

	// RateLimit returns the rate limit per minute
	RateLimit() int
}

// RateProvider is implemented by providers that publish spot rates
type RateProvider interface {
	// GetLatestRates returns quote currency -> units per one base
	GetLatestRates(ctx context.Context, base string) (map[string]float64, error)
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrNoData is wrapped by providers that answered without any candles
var ErrNoData = errors.New("no data available")

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewFallbackProvider creates a new fallback provider over the available providers
func NewFallbackProvider(logger zerolog.Logger, providers ...Provider) *FallbackProvider {
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available, logger: logger}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyCandles tries each provider in order until one succeeds
func (f *FallbackProvider) GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error) {
	lastErr := errors.New("no providers configured")
	for _, p := range f.providers {
		candles, err := p.GetDailyCandles(ctx, pair, days)
		if err == nil {
			return candles, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn().Err(err).Str("provider", p.Name()).Str("pair", pair.String()).Msg("provider failed, trying next")
		lastErr = err
	}
	return nil, lastErr
}

// GetLatestRates asks the first provider that publishes rates
func (f *FallbackProvider) GetLatestRates(ctx context.Context, base string) (map[string]float64, error) {
	lastErr := errors.New("no rate provider available")
	for _, p := range f.providers {
		rp, ok := p.(RateProvider)
		if !ok {
			continue
		}
		rates, err := rp.GetLatestRates(ctx, base)
		if err == nil {
			return rates, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}

// Convert converts amount of from into to using the latest rates
func Convert(ctx context.Context, rp RateProvider, amount float64, from, to string) (rate, converted float64, err error) {
	if from == to {
		return 1, amount, nil
	}
	rates, err := rp.GetLatestRates(ctx, from)
	if err != nil {
		return 0, 0, err
	}
	rate, ok := rates[to]
	if !ok {
		return 0, 0, fmt.Errorf("no %s rate for base %s", to, from)
	}
	return rate, amount * rate, nil
}
