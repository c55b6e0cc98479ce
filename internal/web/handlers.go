package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fxlens/internal/metrics"
	"fxlens/internal/position"
	"fxlens/internal/provider"
	"fxlens/internal/watch"
	"fxlens/pkg/model"
)

const maxDays = 1000

// PairsResponse lists the configured watchlist
type PairsResponse struct {
	Pairs []model.Pair `json:"pairs"`
}

// ConvertResponse is a currency conversion
type ConvertResponse struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
}

// MarketResponse reports the forex sessions
type MarketResponse struct {
	Status   watch.MarketStatus `json:"status"`
	Sessions []watch.Session    `json:"sessions"`
}

// PositionSizeRequest is the body of /api/calc/position-size
type PositionSizeRequest struct {
	Balance        float64 `json:"balance"`
	RiskPercent    float64 `json:"risk_percent"`
	StopPips       float64 `json:"stop_pips"`
	PipValuePerLot float64 `json:"pip_value_per_lot"`
}

// RiskRewardRequest is the body of /api/calc/risk-reward
type RiskRewardRequest struct {
	Pair   string  `json:"pair"`
	Entry  float64 `json:"entry"`
	Stop   float64 `json:"stop"`
	Target float64 `json:"target"`
}

// PipValueRequest is the body of /api/calc/pip-value. Without an explicit
// conversion rate the quote currency is converted into Account.
type PipValueRequest struct {
	Pair           string  `json:"pair"`
	Lots           float64 `json:"lots"`
	QuoteToAccount float64 `json:"quote_to_account,omitempty"`
	Account        string  `json:"account,omitempty"`
}

// MarginRequest is the body of /api/calc/margin
type MarginRequest struct {
	Pair          string  `json:"pair"`
	Lots          float64 `json:"lots"`
	Leverage      int     `json:"leverage"`
	BaseToAccount float64 `json:"base_to_account,omitempty"`
	Account       string  `json:"account,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// handlePairs returns the watchlist
func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	pairs, err := s.config.WatchPairs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PairsResponse{Pairs: pairs})
}

// handleAnalysis analyzes one pair: /api/analysis/EURUSD?days=120
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	pair, err := model.ParsePair(strings.TrimPrefix(r.URL.Path, "/api/analysis/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days := s.config.Source.Days
	if d := r.URL.Query().Get("days"); d != "" {
		v, err := strconv.Atoi(d)
		if err != nil || v < 1 || v > maxDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 1000")
			return
		}
		days = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	started := time.Now()
	candles, err := s.provider.GetDailyCandles(ctx, pair, days)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(s.provider.Name()).Inc()
		s.logger.Warn().Err(err).Str("pair", pair.String()).Str("request_id", RequestID(r.Context())).Msg("fetch failed")
		writeError(w, http.StatusBadGateway, "failed to get price data: "+err.Error())
		return
	}

	ta := s.analyzer.Analyze(pair, candles)
	if ta == nil {
		writeError(w, http.StatusNotFound, "no price data for "+pair.String())
		return
	}
	ta.Source = s.provider.Name()
	metrics.ObserveAnalysis(pair.String(), string(ta.Signal), started)

	writeJSON(w, http.StatusOK, ta)
}

func (s *Server) rates() (provider.RateProvider, bool) {
	rp, ok := s.provider.(provider.RateProvider)
	return rp, ok
}

// handleRates returns the latest rates for ?base=
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	rp, ok := s.rates()
	if !ok {
		writeError(w, http.StatusNotImplemented, "source does not publish rates")
		return
	}

	base := strings.ToUpper(r.URL.Query().Get("base"))
	if base == "" {
		base = "USD"
	}

	rates, err := rp.GetLatestRates(r.Context(), base)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"base": base, "rates": rates})
}

// handleConvert converts ?amount= of ?from= into ?to=
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	rp, ok := s.rates()
	if !ok {
		writeError(w, http.StatusNotImplemented, "source does not publish rates")
		return
	}

	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil || amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be a non-negative number")
		return
	}
	from, to := strings.ToUpper(q.Get("from")), strings.ToUpper(q.Get("to"))
	if len(from) != 3 || len(to) != 3 {
		writeError(w, http.StatusBadRequest, "from and to must be currency codes")
		return
	}

	rate, converted, err := provider.Convert(r.Context(), rp, amount, from, to)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ConvertResponse{From: from, To: to, Amount: amount, Rate: rate, Converted: converted})
}

// handleMarket reports which sessions are trading
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, MarketResponse{
		Status:   watch.GetMarketStatus(s.now()),
		Sessions: watch.Sessions,
	})
}

// handleWatch returns the watcher's latest analyses
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if s.watcher == nil {
		writeError(w, http.StatusNotFound, "watcher not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": s.watcher.Snapshot()})
}

// handleCalc dispatches /api/calc/{position-size,risk-reward,pip-value,margin}
func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var (
		result any
		err    error
	)
	switch strings.TrimPrefix(r.URL.Path, "/api/calc/") {
	case "position-size":
		var req PositionSizeRequest
		if err = decode(r, &req); err == nil {
			result, err = position.PositionSize(req.Balance, req.RiskPercent, req.StopPips, req.PipValuePerLot)
		}
	case "risk-reward":
		var req RiskRewardRequest
		if err = decode(r, &req); err == nil {
			var pair model.Pair
			if pair, err = model.ParsePair(req.Pair); err == nil {
				result, err = position.RiskReward(pair, req.Entry, req.Stop, req.Target)
			}
		}
	case "pip-value":
		var req PipValueRequest
		if err = decode(r, &req); err == nil {
			result, err = s.pipValue(r.Context(), req)
		}
	case "margin":
		var req MarginRequest
		if err = decode(r, &req); err == nil {
			result, err = s.margin(r.Context(), req)
		}
	default:
		writeError(w, http.StatusNotFound, "unknown calculator")
		return
	}

	if err != nil {
		status := http.StatusBadRequest
		var perr *provider.ProviderError
		if errors.As(err, &perr) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func (s *Server) pipValue(ctx context.Context, req PipValueRequest) (*position.PipValueResult, error) {
	pair, err := model.ParsePair(req.Pair)
	if err != nil {
		return nil, err
	}
	rate := req.QuoteToAccount
	if rate == 0 {
		if rate, err = s.accountRate(ctx, pair.Quote, req.Account); err != nil {
			return nil, err
		}
	}
	return position.PipValue(pair, req.Lots, rate)
}

func (s *Server) margin(ctx context.Context, req MarginRequest) (*position.MarginResult, error) {
	pair, err := model.ParsePair(req.Pair)
	if err != nil {
		return nil, err
	}
	rate := req.BaseToAccount
	if rate == 0 {
		if rate, err = s.accountRate(ctx, pair.Base, req.Account); err != nil {
			return nil, err
		}
	}
	return position.Margin(req.Lots, req.Leverage, rate)
}

// accountRate converts one unit of ccy into account, 1 when they match or
// no account currency was given
func (s *Server) accountRate(ctx context.Context, ccy, account string) (float64, error) {
	account = strings.ToUpper(account)
	if account == "" || account == ccy {
		return 1, nil
	}
	rp, ok := s.rates()
	if !ok {
		return 0, errors.New("source does not publish rates; pass the conversion rate")
	}
	rate, _, err := provider.Convert(ctx, rp, 1, ccy, account)
	return rate, err
}
