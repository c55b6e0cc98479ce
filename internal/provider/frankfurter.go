package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"fxlens/internal/ratelimit"
	"fxlens/pkg/model"
)

const frankfurterBaseURL = "https://api.frankfurter.app"

// FrankfurterProvider serves ECB reference rates. The ECB publishes one
// fixing per business day, so candles are flat: open, high and low all
// equal the close.
type FrankfurterProvider struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	baseURL   string
	rateLimit int
	now       func() time.Time
}

// NewFrankfurterProvider creates a new Frankfurter provider
func NewFrankfurterProvider(perMinute int) *FrankfurterProvider {
	if perMinute < 1 {
		perMinute = 60
	}
	return &FrankfurterProvider{
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   ratelimit.NewLimiter("frankfurter", perMinute),
		baseURL:   frankfurterBaseURL,
		rateLimit: perMinute,
		now:       time.Now,
	}
}

// WithBaseURL points the provider at another endpoint
func (p *FrankfurterProvider) WithBaseURL(u string) *FrankfurterProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

// Name returns the provider name
func (p *FrankfurterProvider) Name() string {
	return "frankfurter"
}

// IsAvailable always returns true (no API key needed)
func (p *FrankfurterProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *FrankfurterProvider) RateLimit() int {
	return p.rateLimit
}

type frankfurterSeries struct {
	Base  string                        `json:"base"`
	Rates map[string]map[string]float64 `json:"rates"`
}

type frankfurterLatest struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// GetDailyCandles fetches the daily fixings for pair
func (p *FrankfurterProvider) GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error) {
	start := p.now().AddDate(0, 0, -(days*7/5 + 7)).Format("2006-01-02")

	q := url.Values{}
	q.Set("from", pair.Base)
	q.Set("to", pair.Quote)

	var data frankfurterSeries
	if err := p.get(ctx, "/"+start+"..?"+q.Encode(), &data); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(data.Rates))
	for d := range data.Rates {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	candles := make([]model.Candle, 0, len(dates))
	for _, d := range dates {
		rate, ok := data.Rates[d][pair.Quote]
		if !ok {
			continue
		}
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		candles = append(candles, model.Candle{Time: t, Open: rate, High: rate, Low: rate, Close: rate})
	}

	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}
	return lastN(candles, days), nil
}

// GetLatestRates returns the latest fixing for every currency against base
func (p *FrankfurterProvider) GetLatestRates(ctx context.Context, base string) (map[string]float64, error) {
	var data frankfurterLatest
	if err := p.get(ctx, "/latest?from="+url.QueryEscape(strings.ToUpper(base)), &data); err != nil {
		return nil, err
	}
	if len(data.Rates) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}
	return data.Rates, nil
}

func (p *FrankfurterProvider) get(ctx context.Context, path string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		p.limiter.SignalRateLimited()
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: false}
	}

	p.limiter.ResetBackoff()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
