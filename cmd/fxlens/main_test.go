package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"fxlens/internal/config"
	"fxlens/internal/provider"
	"fxlens/pkg/model"
)

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs("EURUSD, gbp/usd,,USD_JPY")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pairs) != 3 || pairs[1].String() != "GBP/USD" {
		t.Errorf("Unexpected pairs: %v", pairs)
	}
	if _, err := parsePairs("EURUSD,XX"); err == nil {
		t.Error("Expected error for bad pair")
	}
}

func TestNewProvider(t *testing.T) {
	for _, kind := range []string{config.SourceSynthetic, config.SourceYahoo, config.SourceFrankfurter, config.SourceAuto} {
		cfg := config.DefaultConfig()
		cfg.Source.Kind = kind
		p, err := newProvider(cfg, zerolog.Nop())
		if err != nil {
			t.Errorf("%s: unexpected error: %v", kind, err)
			continue
		}
		if p == nil {
			t.Errorf("%s: expected a provider", kind)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Source.Kind = "bloomberg"
	if _, err := newProvider(cfg, zerolog.Nop()); err == nil {
		t.Error("Expected error for unknown source")
	}
}

func TestOutputAnalysis(t *testing.T) {
	cfg := config.DefaultConfig()
	p := provider.NewSyntheticProvider(3)
	pair := model.MustParsePair("USDJPY")
	candles, err := p.GetDailyCandles(context.Background(), pair, 30)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ta := newAnalyzer(cfg).Analyze(pair, candles)

	var buf bytes.Buffer
	if err := outputAnalysis(&buf, ta); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "USD/JPY") || !strings.Contains(out, "Signal: ") {
		t.Errorf("Expected pair and signal in output, got:\n%s", out)
	}
	// 30 candles cannot fill SMA50
	if !strings.Contains(out, "-") {
		t.Errorf("Expected undefined values rendered as -, got:\n%s", out)
	}
}

func TestOutputScanFailures(t *testing.T) {
	var buf bytes.Buffer
	outputScan(&buf, &model.ScanResult{
		TotalScanned: 1,
		Failures:     map[string]string{"EUR/USD": "boom"},
	})
	out := buf.String()
	if !strings.Contains(out, "No pairs analyzed.") || !strings.Contains(out, "EUR/USD: boom") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestFmtValue(t *testing.T) {
	if got := fmtValue(model.Undefined(), 5); got != "-" {
		t.Errorf("Expected -, got %s", got)
	}
	if got := fmtValue(model.Value(1.234567), 3); got != "1.235" {
		t.Errorf("Expected 1.235, got %s", got)
	}
}
