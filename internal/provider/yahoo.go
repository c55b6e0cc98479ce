package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fxlens/internal/ratelimit"
	"fxlens/pkg/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider serves daily forex candles from the Yahoo Finance chart API
type YahooProvider struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	baseURL   string
	rateLimit int
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(perMinute int) *YahooProvider {
	if perMinute < 1 {
		perMinute = 30
	}
	return &YahooProvider{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("yahoo", perMinute),
		baseURL:   yahooBaseURL,
		rateLimit: perMinute,
	}
}

// WithBaseURL points the provider at another endpoint
func (p *YahooProvider) WithBaseURL(url string) *YahooProvider {
	p.baseURL = url
	return p
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// yahooResponse represents the Yahoo Finance API response.
// Quote arrays hold null for sessions without a print.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSymbol maps EUR/USD to EURUSD=X
func yahooSymbol(pair model.Pair) string {
	return pair.Symbol() + "=X"
}

// GetDailyCandles fetches daily candles for a currency pair
func (p *YahooProvider) GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// FX trades five days a week; widen the window so weekends do not eat into days
	end := time.Now()
	start := end.AddDate(0, 0, -(days*7/5 + 7))

	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		p.baseURL, yahooSymbol(pair), start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: false}
	}

	p.limiter.ResetBackoff()

	var data yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s", data.Chart.Error.Description), Retryable: false}
	}

	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 ||
		len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, closePrice := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		if open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}

		var volume int64
		if v := at(quotes.Volume, i); v != nil {
			volume = *v
		}

		candles = append(candles, model.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closePrice,
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}
	return lastN(candles, days), nil
}

func at[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// lastN keeps the most recent n candles
func lastN(candles []model.Candle, n int) []model.Candle {
	if n > 0 && len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}
