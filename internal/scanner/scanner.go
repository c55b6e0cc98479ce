package scanner

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"fxlens/internal/analyzer"
	"fxlens/internal/metrics"
	"fxlens/internal/provider"
	"fxlens/pkg/model"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// Scanner analyzes many pairs in parallel
type Scanner struct {
	provider     provider.Provider
	analyzer     *analyzer.TechnicalAnalyzer
	days         int
	workers      int
	timeout      time.Duration
	logger       zerolog.Logger
	progressFunc ProgressCallback
}

// NewScanner creates a new scanner
func NewScanner(p provider.Provider, a *analyzer.TechnicalAnalyzer, days, workers int, timeout time.Duration) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		provider: p,
		analyzer: a,
		days:     days,
		workers:  workers,
		timeout:  timeout,
		logger:   zerolog.Nop(),
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// SetLogger sets the logger used for per-pair failures
func (s *Scanner) SetLogger(l zerolog.Logger) {
	s.logger = l
}

type outcome struct {
	pair     model.Pair
	analysis *model.TechnicalAnalysis
	err      error
}

// Scan fetches and analyzes every pair. A pair that fails is recorded in
// Failures and does not abort the scan.
func (s *Scanner) Scan(ctx context.Context, pairs []model.Pair) (*model.ScanResult, error) {
	startTime := time.Now()

	if len(pairs) == 0 {
		return &model.ScanResult{
			Results:  []*model.TechnicalAnalysis{},
			ScanTime: time.Since(startTime),
		}, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	jobChan := make(chan model.Pair, len(pairs))
	resultChan := make(chan outcome, len(pairs))

	for _, p := range pairs {
		jobChan <- p
	}
	close(jobChan)

	var scannedCount int64

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobChan {
				var res outcome
				if err := ctx.Err(); err != nil {
					res = outcome{pair: pair, err: err}
				} else {
					res = s.analyze(ctx, pair)
				}
				resultChan <- res

				count := atomic.AddInt64(&scannedCount, 1)
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(pairs))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]*model.TechnicalAnalysis, 0, len(pairs))
	failures := make(map[string]string)
	for res := range resultChan {
		if res.err != nil {
			failures[res.pair.String()] = res.err.Error()
			s.logger.Warn().Err(res.err).Str("pair", res.pair.String()).Msg("scan failed")
			continue
		}
		results = append(results, res.analysis)
	}

	SortResults(results)

	out := &model.ScanResult{
		TotalScanned: len(pairs),
		Results:      results,
		ScanTime:     time.Since(startTime),
	}
	if len(failures) > 0 {
		out.Failures = failures
	}
	return out, nil
}

func (s *Scanner) analyze(ctx context.Context, pair model.Pair) outcome {
	started := time.Now()
	candles, err := s.provider.GetDailyCandles(ctx, pair, s.days)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(s.provider.Name()).Inc()
		return outcome{pair: pair, err: err}
	}
	ta := s.analyzer.Analyze(pair, candles)
	if ta == nil {
		return outcome{pair: pair, err: provider.ErrNoData}
	}
	ta.Source = s.provider.Name()
	metrics.ObserveAnalysis(pair.String(), string(ta.Signal), started)
	return outcome{pair: pair, analysis: ta}
}

var signalRank = map[model.Signal]int{
	model.SignalBuy:  0,
	model.SignalSell: 1,
	model.SignalHold: 2,
}

// SortResults orders BUY before SELL before HOLD, then by how far the trend
// strength sits from the neutral 50, then by pair.
func SortResults(results []*model.TechnicalAnalysis) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if ra, rb := signalRank[a.Signal], signalRank[b.Signal]; ra != rb {
			return ra < rb
		}
		ca, cb := math.Abs(a.TrendStrength-50), math.Abs(b.TrendStrength-50)
		if ca != cb {
			return ca > cb
		}
		return a.Pair.String() < b.Pair.String()
	})
}
