// Package watch keeps a watchlist of pairs current on a cron schedule and
// reports signal transitions and price alerts.
package watch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"fxlens/internal/analyzer"
	"fxlens/internal/metrics"
	"fxlens/internal/provider"
	"fxlens/pkg/model"
)

// Alert reports when a pair trades above or below a level. Zero disables a side.
type Alert struct {
	Pair  model.Pair
	Above float64
	Below float64
}

// EventKind classifies a watch event
type EventKind string

const (
	EventSignal EventKind = "signal"
	EventAlert  EventKind = "alert"
)

// Event is a signal transition or a triggered price alert
type Event struct {
	Kind  EventKind    `json:"kind"`
	Pair  model.Pair   `json:"pair"`
	From  model.Signal `json:"from,omitempty"`
	To    model.Signal `json:"to,omitempty"`
	Price float64      `json:"price"`
	Level float64      `json:"level,omitempty"`
	// Direction is "above" or "below" for alerts
	Direction string    `json:"direction,omitempty"`
	At        time.Time `json:"at"`
}

func (e Event) String() string {
	if e.Kind == EventAlert {
		return fmt.Sprintf("%s %s %.5f (now %.5f)", e.Pair, e.Direction, e.Level, e.Price)
	}
	return fmt.Sprintf("%s %s -> %s", e.Pair, e.From, e.To)
}

type invalidator interface {
	Invalidate(pair model.Pair)
}

type alertKey struct {
	pair      model.Pair
	direction string
	level     float64
}

// Watcher refreshes a watchlist. It keeps only the latest analysis and
// signal per pair in memory.
type Watcher struct {
	provider provider.Provider
	analyzer *analyzer.TechnicalAnalyzer
	pairs    []model.Pair
	alerts   []Alert
	days     int
	logger   zerolog.Logger
	now      func() time.Time

	// SkipClosed makes scheduled refreshes idle over the weekend close
	SkipClosed bool
	// OnEvent, when set, receives every event after it is logged
	OnEvent func(Event)

	mu        sync.RWMutex
	latest    map[model.Pair]*model.TechnicalAnalysis
	triggered map[alertKey]bool

	cron *cron.Cron
}

// New creates a watcher over pairs
func New(p provider.Provider, a *analyzer.TechnicalAnalyzer, pairs []model.Pair, alerts []Alert, days int, logger zerolog.Logger) *Watcher {
	return &Watcher{
		provider:  p,
		analyzer:  a,
		pairs:     pairs,
		alerts:    alerts,
		days:      days,
		logger:    logger,
		now:       time.Now,
		latest:    make(map[model.Pair]*model.TechnicalAnalysis),
		triggered: make(map[alertKey]bool),
	}
}

// RunOnce refreshes every pair and returns the events it produced. Pairs
// that fail to load are logged and keep their previous state.
func (w *Watcher) RunOnce(ctx context.Context) []Event {
	var events []Event
	for _, pair := range w.pairs {
		if ctx.Err() != nil {
			break
		}
		if inv, ok := w.provider.(invalidator); ok {
			inv.Invalidate(pair)
		}

		started := time.Now()
		candles, err := w.provider.GetDailyCandles(ctx, pair, w.days)
		if err != nil {
			metrics.ProviderErrors.WithLabelValues(w.provider.Name()).Inc()
			w.logger.Warn().Err(err).Str("pair", pair.String()).Msg("refresh failed")
			continue
		}
		ta := w.analyzer.Analyze(pair, candles)
		if ta == nil {
			continue
		}
		ta.Source = w.provider.Name()
		metrics.ObserveAnalysis(pair.String(), string(ta.Signal), started)

		events = append(events, w.update(pair, ta)...)
	}

	for _, e := range events {
		w.emit(e)
	}
	return events
}

func (w *Watcher) update(pair model.Pair, ta *model.TechnicalAnalysis) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	var events []Event
	at := w.now()

	if prev, ok := w.latest[pair]; ok && prev.Signal != ta.Signal {
		events = append(events, Event{
			Kind:  EventSignal,
			Pair:  pair,
			From:  prev.Signal,
			To:    ta.Signal,
			Price: ta.LastClose,
			At:    at,
		})
	}
	w.latest[pair] = ta

	for _, a := range w.alerts {
		if a.Pair != pair {
			continue
		}
		if a.Above > 0 {
			if e, ok := w.cross(a, "above", a.Above, ta.LastClose >= a.Above, ta.LastClose, at); ok {
				events = append(events, e)
			}
		}
		if a.Below > 0 {
			if e, ok := w.cross(a, "below", a.Below, ta.LastClose <= a.Below, ta.LastClose, at); ok {
				events = append(events, e)
			}
		}
	}
	return events
}

// cross fires once when hit becomes true and re-arms when it turns false
func (w *Watcher) cross(a Alert, direction string, level float64, hit bool, price float64, at time.Time) (Event, bool) {
	key := alertKey{pair: a.Pair, direction: direction, level: level}
	was := w.triggered[key]
	w.triggered[key] = hit
	if !hit || was {
		return Event{}, false
	}
	return Event{
		Kind:      EventAlert,
		Pair:      a.Pair,
		Price:     price,
		Level:     level,
		Direction: direction,
		At:        at,
	}, true
}

func (w *Watcher) emit(e Event) {
	switch e.Kind {
	case EventSignal:
		metrics.SignalChanges.WithLabelValues(e.Pair.String(), string(e.To)).Inc()
		w.logger.Info().
			Str("pair", e.Pair.String()).
			Str("from", string(e.From)).
			Str("signal", string(e.To)).
			Float64("price", e.Price).
			Msg("signal changed")
	case EventAlert:
		w.logger.Warn().
			Str("pair", e.Pair.String()).
			Str("direction", e.Direction).
			Float64("level", e.Level).
			Float64("price", e.Price).
			Msg("price alert")
	}
	if w.OnEvent != nil {
		w.OnEvent(e)
	}
}

// Latest returns the most recent analysis for pair
func (w *Watcher) Latest(pair model.Pair) (*model.TechnicalAnalysis, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ta, ok := w.latest[pair]
	return ta, ok
}

// Snapshot returns the latest analyses ordered by pair
func (w *Watcher) Snapshot() []*model.TechnicalAnalysis {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*model.TechnicalAnalysis, 0, len(w.latest))
	for _, ta := range w.latest {
		out = append(out, ta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair.String() < out[j].Pair.String() })
	return out
}

// Start runs RunOnce on schedule until Stop or ctx is done. Overlapping
// runs are skipped.
func (w *Watcher) Start(ctx context.Context, schedule string) error {
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := w.cron.AddFunc(schedule, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("register refresh %q: %w", schedule, err)
	}
	w.cron.Start()
	w.logger.Info().Str("schedule", schedule).Int("pairs", len(w.pairs)).Msg("watcher started")

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

func (w *Watcher) tick(ctx context.Context) {
	if w.SkipClosed {
		if status := GetMarketStatus(w.now()); !status.IsOpen {
			w.logger.Debug().
				Str("reopens_in", FormatDuration(status.TimeToOpen)).
				Msg("market closed, skipping refresh")
			return
		}
	}
	events := w.RunOnce(ctx)
	w.logger.Debug().Int("events", len(events)).Msg("refresh complete")
}

// Stop halts the schedule and waits for a running refresh to finish
func (w *Watcher) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
