package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fxlens/internal/analyzer"
	"fxlens/internal/config"
	"fxlens/internal/logger"
	"fxlens/internal/provider"
	"fxlens/internal/scanner"
	"fxlens/internal/watch"
	"fxlens/internal/web"
	"fxlens/pkg/model"
)

var (
	cfgFile  string
	source   string
	format   string
	logLevel string
	days     int

	pairList string
	workers  int

	addr      string
	withWatch bool

	schedule string
	once     bool

	base string

	subject  string
	tokenTTL time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fxlens",
		Short: "Technical indicators and signals for currency pairs",
		Long: `fxlens computes technical indicators (SMA, EMA, RSI, Stochastic, MACD,
Bollinger Bands), candlestick patterns, trend and a BUY/SELL/HOLD display
signal for forex pairs.

Examples:
  fxlens analyze EURUSD --days 120
  fxlens scan --pairs EURUSD,GBPUSD,USDJPY --format json
  fxlens serve --addr :8080 --watch
  fxlens rates --base EUR --source frankfurter`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "price source: synthetic, yahoo, frankfurter, auto")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&days, "days", 0, "daily candles to analyze")

	analyzeCmd := &cobra.Command{
		Use:   "analyze PAIR",
		Short: "Analyze one currency pair",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Analyze many pairs in parallel",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&pairList, "pairs", "", "comma-separated pairs (default: watchlist)")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address")
	serveCmd.Flags().BoolVar(&withWatch, "watch", false, "refresh the watchlist in the background")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the watchlist on a schedule and log signal changes",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default from config)")
	watchCmd.Flags().BoolVar(&once, "once", false, "refresh once and exit")

	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the latest exchange rates",
		RunE:  runRates,
	}
	ratesCmd.Flags().StringVar(&base, "base", "USD", "base currency")

	convertCmd := &cobra.Command{
		Use:   "convert AMOUNT FROM TO",
		Short: "Convert an amount between currencies",
		Args:  cobra.ExactArgs(3),
		RunE:  runConvert,
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with the configured secret",
		RunE:  runToken,
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "fxlens", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(analyzeCmd, scanCmd, serveCmd, watchCmd, ratesCmd, convertCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles what every command needs
type env struct {
	cfg      *config.Config
	log      zerolog.Logger
	provider provider.Provider
	analyzer *analyzer.TechnicalAnalyzer
}

func setup() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Override config with CLI flags
	if source != "" {
		cfg.Source.Kind = source
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if days > 0 {
		cfg.Source.Days = days
	}
	if workers > 0 {
		cfg.Scanner.Workers = workers
	}
	if addr != "" {
		cfg.Web.Addr = addr
	}
	if schedule != "" {
		cfg.Watchlist.Schedule = schedule
	}
	if format != "table" && format != "json" {
		return nil, fmt.Errorf("unknown format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	p, err := newProvider(cfg, log)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:      cfg,
		log:      log,
		provider: p,
		analyzer: newAnalyzer(cfg),
	}, nil
}

func newAnalyzer(cfg *config.Config) *analyzer.TechnicalAnalyzer {
	return analyzer.NewTechnicalAnalyzer(
		analyzer.WithPolicy(cfg.Analysis.Signal),
		analyzer.WithTrendLookback(cfg.Analysis.TrendLookback),
	)
}

// newProvider builds the configured source behind a cache
func newProvider(cfg *config.Config, log zerolog.Logger) (*provider.CachingProvider, error) {
	var p provider.Provider
	switch cfg.Source.Kind {
	case config.SourceSynthetic:
		p = provider.NewSyntheticProvider(cfg.Source.Seed)
	case config.SourceYahoo:
		p = provider.NewYahooProvider(cfg.Source.YahooRateLimit)
	case config.SourceFrankfurter:
		p = provider.NewFrankfurterProvider(cfg.Source.FrankfurterRateLimit)
	case config.SourceAuto:
		p = provider.NewFallbackProvider(log,
			provider.NewYahooProvider(cfg.Source.YahooRateLimit),
			provider.NewFrankfurterProvider(cfg.Source.FrankfurterRateLimit),
			provider.NewSyntheticProvider(cfg.Source.Seed),
		)
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source.Kind)
	}

	if !p.IsAvailable() {
		return nil, fmt.Errorf("source %s is not available", p.Name())
	}
	log.Debug().Str("provider", p.Name()).Int("days", cfg.Source.Days).Msg("price source ready")
	return provider.NewCachingProvider(p, cfg.Source.Days, cfg.Source.CacheTTL), nil
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	pair, err := model.ParsePair(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	candles, err := e.provider.GetDailyCandles(ctx, pair, e.cfg.Source.Days)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", pair, err)
	}
	ta := e.analyzer.Analyze(pair, candles)
	if ta == nil {
		return fmt.Errorf("no price data for %s", pair)
	}
	ta.Source = e.provider.Name()

	if format == "json" {
		return outputJSON(os.Stdout, ta)
	}
	return outputAnalysis(os.Stdout, ta)
}

func runScan(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	pairs, err := e.cfg.WatchPairs()
	if err != nil {
		return err
	}
	if pairList != "" {
		if pairs, err = parsePairs(pairList); err != nil {
			return err
		}
	}
	if len(pairs) == 0 {
		return errors.New("no pairs to scan")
	}

	ctx, cancel := interruptContext()
	defer cancel()

	s := scanner.NewScanner(e.provider, e.analyzer, e.cfg.Source.Days, e.cfg.Scanner.Workers, e.cfg.Scanner.Timeout)
	s.SetLogger(e.log)

	bar := progressbar.NewOptions(len(pairs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	s.SetProgressCallback(func(scanned, total int) {
		bar.Set(scanned)
	})

	result, err := s.Scan(ctx, pairs)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if format == "json" {
		return outputJSON(os.Stdout, result)
	}
	return outputScan(os.Stdout, result)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	srv := web.NewServer(e.cfg, e.provider, e.analyzer, e.log)

	if withWatch {
		w, err := newWatcher(e)
		if err != nil {
			return err
		}
		w.RunOnce(ctx)
		if err := w.Start(ctx, e.cfg.Watchlist.Schedule); err != nil {
			return err
		}
		defer w.Stop()
		srv.SetWatcher(w)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	e.log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func newWatcher(e *env) (*watch.Watcher, error) {
	pairs, err := e.cfg.WatchPairs()
	if err != nil {
		return nil, err
	}
	alerts := make([]watch.Alert, 0, len(e.cfg.Watchlist.Alerts))
	for _, a := range e.cfg.Watchlist.Alerts {
		p, err := model.ParsePair(a.Pair)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, watch.Alert{Pair: p, Above: a.Above, Below: a.Below})
	}
	w := watch.New(e.provider, e.analyzer, pairs, alerts, e.cfg.Source.Days, e.log)
	w.SkipClosed = e.cfg.Watchlist.SkipClosed
	return w, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	w, err := newWatcher(e)
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	w.RunOnce(ctx)
	if once {
		snapshot := w.Snapshot()
		if format == "json" {
			return outputJSON(os.Stdout, snapshot)
		}
		return outputScan(os.Stdout, &model.ScanResult{TotalScanned: len(snapshot), Results: snapshot})
	}

	if err := w.Start(ctx, e.cfg.Watchlist.Schedule); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

func rateProvider(e *env) (provider.RateProvider, error) {
	rp, ok := e.provider.(provider.RateProvider)
	if !ok {
		return nil, fmt.Errorf("source %s does not publish rates", e.provider.Name())
	}
	return rp, nil
}

func runRates(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	rp, err := rateProvider(e)
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	b := strings.ToUpper(base)
	rates, err := rp.GetLatestRates(ctx, b)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}

	if format == "json" {
		return outputJSON(os.Stdout, map[string]any{"base": b, "rates": rates})
	}
	return outputRates(os.Stdout, b, rates)
}

func runConvert(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	rp, err := rateProvider(e)
	if err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

	ctx, cancel := interruptContext()
	defer cancel()

	rate, converted, err := provider.Convert(ctx, rp, amount, from, to)
	if err != nil {
		return err
	}

	if format == "json" {
		return outputJSON(os.Stdout, web.ConvertResponse{From: from, To: to, Amount: amount, Rate: rate, Converted: converted})
	}
	fmt.Printf("%.2f %s = %.4f %s (rate %.6f)\n", amount, from, converted, to, rate)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	if e.cfg.Web.JWTSecret == "" {
		return errors.New("no JWT secret configured (set web.jwt_secret or FXLENS_JWT_SECRET)")
	}
	token, err := web.IssueToken([]byte(e.cfg.Web.JWTSecret), subject, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func parsePairs(list string) ([]model.Pair, error) {
	var pairs []model.Pair
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := model.ParsePair(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
