package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fxlens/internal/analyzer"
	"fxlens/pkg/model"
)

var eurusd = model.MustParsePair("EURUSD")

// scriptedProvider serves whatever closes the test last set
type scriptedProvider struct {
	mu          sync.Mutex
	closes      []float64
	invalidated int
}

func (p *scriptedProvider) Name() string      { return "scripted" }
func (p *scriptedProvider) IsAvailable() bool { return true }
func (p *scriptedProvider) RateLimit() int    { return 0 }

func (p *scriptedProvider) Invalidate(model.Pair) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated++
}

func (p *scriptedProvider) set(closes []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes = closes
}

func (p *scriptedProvider) GetDailyCandles(ctx context.Context, pair model.Pair, days int) ([]model.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	candles := make([]model.Candle, len(p.closes))
	for i, c := range p.closes {
		candles[i] = model.Candle{
			Time:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:  c,
			High:  c + 0.0005,
			Low:   c - 0.0005,
			Close: c,
		}
	}
	return candles, nil
}

func line(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// trend-only policy: thresholds never veto
func newWatcher(p *scriptedProvider, alerts []Alert) *Watcher {
	a := analyzer.NewTechnicalAnalyzer(analyzer.WithPolicy(analyzer.SignalPolicy{Overbought: 100, Oversold: 0}))
	return New(p, a, []model.Pair{eurusd}, alerts, 40, zerolog.Nop())
}

func TestRunOnceSignalTransitions(t *testing.T) {
	p := &scriptedProvider{}
	w := newWatcher(p, nil)

	p.set(line(1.0, 0.001, 40))
	if events := w.RunOnce(context.Background()); len(events) != 0 {
		t.Errorf("Expected no events on first refresh, got %v", events)
	}
	ta, ok := w.Latest(eurusd)
	if !ok || ta.Signal != model.SignalBuy {
		t.Fatalf("Expected BUY after rising series, got %+v", ta)
	}
	if ta.Source != "scripted" {
		t.Errorf("Expected source scripted, got %q", ta.Source)
	}

	if events := w.RunOnce(context.Background()); len(events) != 0 {
		t.Errorf("Expected no events for unchanged signal, got %v", events)
	}

	p.set(line(1.05, -0.001, 40))
	events := w.RunOnce(context.Background())
	if len(events) != 1 {
		t.Fatalf("Expected one transition, got %v", events)
	}
	e := events[0]
	if e.Kind != EventSignal || e.From != model.SignalBuy || e.To != model.SignalSell {
		t.Errorf("Expected BUY -> SELL, got %s", e)
	}

	if p.invalidated != 3 {
		t.Errorf("Expected the cache to be invalidated on every refresh, got %d", p.invalidated)
	}
}

func TestRunOnceAlerts(t *testing.T) {
	p := &scriptedProvider{}
	w := newWatcher(p, []Alert{{Pair: eurusd, Above: 1.03, Below: 1.02}})

	var mu sync.Mutex
	var seen []Event
	w.OnEvent = func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e)
	}

	// ends at 1.039
	p.set(line(1.0, 0.001, 40))
	events := w.RunOnce(context.Background())
	if len(events) != 1 || events[0].Kind != EventAlert || events[0].Direction != "above" {
		t.Fatalf("Expected above alert, got %v", events)
	}

	if events := w.RunOnce(context.Background()); len(events) != 0 {
		t.Errorf("Expected alert not to repeat, got %v", events)
	}

	// ends at 1.011
	p.set(line(1.05, -0.001, 40))
	events = w.RunOnce(context.Background())
	if len(events) != 2 {
		t.Fatalf("Expected transition and below alert, got %v", events)
	}
	if events[1].Kind != EventAlert || events[1].Direction != "below" || events[1].Level != 1.02 {
		t.Errorf("Expected below 1.02 alert, got %s", events[1])
	}

	// above re-armed once the price dropped under it
	p.set(line(1.0, 0.001, 40))
	events = w.RunOnce(context.Background())
	var above bool
	for _, e := range events {
		if e.Kind == EventAlert && e.Direction == "above" {
			above = true
		}
	}
	if !above {
		t.Errorf("Expected above alert to fire again, got %v", events)
	}

	if len(seen) != 1+2+len(events) {
		t.Errorf("Expected OnEvent for every event, got %d", len(seen))
	}
}

func TestSnapshot(t *testing.T) {
	p := &scriptedProvider{}
	p.set(line(1.0, 0.001, 40))
	a := analyzer.NewTechnicalAnalyzer()
	pairs := []model.Pair{model.MustParsePair("USDJPY"), eurusd}
	w := New(p, a, pairs, nil, 40, zerolog.Nop())

	w.RunOnce(context.Background())
	snap := w.Snapshot()
	if len(snap) != 2 || snap[0].Pair != eurusd {
		t.Errorf("Expected two analyses starting with EUR/USD, got %d", len(snap))
	}
}

func TestStartStop(t *testing.T) {
	p := &scriptedProvider{}
	w := newWatcher(p, nil)

	if err := w.Start(context.Background(), "not a schedule"); err == nil {
		t.Error("Expected error for an invalid schedule")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx, "@every 1h"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	w.Stop()
}

func TestTickSkipsClosedMarket(t *testing.T) {
	p := &scriptedProvider{}
	p.set(line(1.0, 0.001, 40))
	w := newWatcher(p, nil)
	w.SkipClosed = true
	w.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }

	w.tick(context.Background())
	if _, ok := w.Latest(eurusd); ok {
		t.Error("Expected no refresh while the market is closed")
	}

	w.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	w.tick(context.Background())
	if _, ok := w.Latest(eurusd); !ok {
		t.Error("Expected a refresh while the market is open")
	}
}
