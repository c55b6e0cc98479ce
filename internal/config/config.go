package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"fxlens/internal/analyzer"
	"fxlens/pkg/model"
)

// Config represents the application configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Source    SourceConfig    `yaml:"source"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Web       WebConfig       `yaml:"web"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// SourceConfig selects and tunes the price source
type SourceConfig struct {
	Kind                 string        `yaml:"kind"` // auto, synthetic, yahoo, frankfurter
	Seed                 int64         `yaml:"seed"` // synthetic only; 0 = time based
	Days                 int           `yaml:"days"` // candles requested per analysis
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	YahooRateLimit       int           `yaml:"yahoo_rate_limit"`       // requests per minute
	FrankfurterRateLimit int           `yaml:"frankfurter_rate_limit"` // requests per minute
}

// AnalysisConfig holds indicator and signal settings
type AnalysisConfig struct {
	TrendLookback int                   `yaml:"trend_lookback"`
	Signal        analyzer.SignalPolicy `yaml:"signal"`
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// Alert is a price level to report when crossed
type Alert struct {
	Pair  string  `yaml:"pair"`
	Above float64 `yaml:"above"`
	Below float64 `yaml:"below"`
}

// WatchlistConfig holds the pairs the refresher keeps current
type WatchlistConfig struct {
	Pairs    []string `yaml:"pairs"`
	Schedule string   `yaml:"schedule"` // robfig/cron spec
	Alerts   []Alert  `yaml:"alerts"`
	// SkipClosed idles scheduled refreshes during the weekend close
	SkipClosed bool `yaml:"skip_closed"`
}

// WebConfig holds HTTP API settings
type WebConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"` // empty disables auth
}

// Source kinds
const (
	SourceAuto        = "auto"
	SourceSynthetic   = "synthetic"
	SourceYahoo       = "yahoo"
	SourceFrankfurter = "frankfurter"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Source: SourceConfig{
			Kind:                 SourceSynthetic,
			Days:                 120,
			CacheTTL:             5 * time.Minute,
			YahooRateLimit:       30,
			FrankfurterRateLimit: 60,
		},
		Analysis: AnalysisConfig{
			TrendLookback: analyzer.DefaultTrendLookback,
			Signal:        analyzer.DefaultSignalPolicy(),
		},
		Scanner: ScannerConfig{
			Workers: 4,
			Timeout: 60 * time.Second,
		},
		Watchlist: WatchlistConfig{
			Pairs:      []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD", "USDCHF"},
			Schedule:   "@every 5m",
			SkipClosed: true,
		},
		Web: WebConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Variables from a .env file in the working directory are loaded
// first, then FXLENS_* environment variables override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FXLENS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FXLENS_SOURCE"); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv("FXLENS_JWT_SECRET"); v != "" {
		c.Web.JWTSecret = v
	}
	if v := os.Getenv("FXLENS_ADDR"); v != "" {
		c.Web.Addr = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceAuto, SourceSynthetic, SourceYahoo, SourceFrankfurter:
	default:
		return fmt.Errorf("unknown source %q", c.Source.Kind)
	}
	if c.Source.Days < 2 {
		return fmt.Errorf("source.days must be at least 2")
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Analysis.TrendLookback < 1 {
		return fmt.Errorf("trend_lookback must be at least 1")
	}
	if c.Analysis.Signal.Oversold >= c.Analysis.Signal.Overbought {
		return fmt.Errorf("signal.oversold must be below signal.overbought")
	}
	if _, err := c.WatchPairs(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Watchlist.Schedule); err != nil {
		return fmt.Errorf("watchlist.schedule: %w", err)
	}
	for _, a := range c.Watchlist.Alerts {
		if _, err := model.ParsePair(a.Pair); err != nil {
			return fmt.Errorf("alert: %w", err)
		}
	}
	return nil
}

// WatchPairs parses the watchlist
func (c *Config) WatchPairs() ([]model.Pair, error) {
	pairs := make([]model.Pair, 0, len(c.Watchlist.Pairs))
	for _, s := range c.Watchlist.Pairs {
		p, err := model.ParsePair(s)
		if err != nil {
			return nil, fmt.Errorf("watchlist: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
