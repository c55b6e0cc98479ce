package provider

import (
	"context"
	"sync"
	"time"

	"fxlens/pkg/model"
)

type cacheEntry struct {
	candles []model.Candle
	fetched time.Time
}

// CachingProvider wraps a Provider with an in-memory cache for GetDailyCandles.
// It always fetches maxDays so shorter requests for the same pair are served
// from one upstream call, and entries expire after ttl.
type CachingProvider struct {
	inner   Provider
	cache   map[model.Pair]cacheEntry
	mu      sync.Mutex
	maxDays int
	ttl     time.Duration
	now     func() time.Time
}

// NewCachingProvider creates a caching wrapper; ttl <= 0 never expires
func NewCachingProvider(inner Provider, maxDays int, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		cache:   make(map[model.Pair]cacheEntry),
		maxDays: maxDays,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

// GetLatestRates passes through when the wrapped provider publishes rates
func (p *CachingProvider) GetLatestRates(ctx context.Context, base string) (map[string]float64, error) {
	rp, ok := p.inner.(RateProvider)
	if !ok {
		return nil, &ProviderError{Provider: p.inner.Name(), Err: ErrNoData, Retryable: false}
	}
	return rp.GetLatestRates(ctx, base)
}

func (p *CachingProvider) GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error) {
	p.mu.Lock()
	entry, ok := p.cache[pair]
	p.mu.Unlock()

	if ok && (p.ttl <= 0 || p.now().Sub(entry.fetched) < p.ttl) && (len(entry.candles) >= days || days <= p.maxDays) {
		return copyCandles(lastN(entry.candles, days)), nil
	}

	fetchDays := max(p.maxDays, days)
	candles, err := p.inner.GetDailyCandles(ctx, pair, fetchDays)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[pair] = cacheEntry{candles: candles, fetched: p.now()}
	p.mu.Unlock()

	return copyCandles(lastN(candles, days)), nil
}

func copyCandles(candles []model.Candle) []model.Candle {
	return append([]model.Candle(nil), candles...)
}

// Invalidate drops the cached series for pair
func (p *CachingProvider) Invalidate(pair model.Pair) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, pair)
}

// InvalidateAll empties the cache
func (p *CachingProvider) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[model.Pair]cacheEntry)
}
