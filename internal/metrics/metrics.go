// Package metrics registers the Prometheus collectors for fxlens.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fxlens_analyses_total", Help: "Technical analyses computed"},
		[]string{"pair", "signal"},
	)
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fxlens_analysis_duration_seconds",
			Help:    "Time spent fetching and analyzing one pair",
			Buckets: prometheus.DefBuckets,
		},
	)
	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fxlens_provider_errors_total", Help: "Failed price fetches"},
		[]string{"provider"},
	)
	SignalChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fxlens_signal_changes_total", Help: "Watched pairs whose signal changed"},
		[]string{"pair", "signal"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fxlens_http_requests_total", Help: "HTTP API requests"},
		[]string{"route", "code"},
	)
)

// Registry holds every fxlens collector
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(AnalysesTotal, AnalysisDuration, ProviderErrors, SignalChanges, HTTPRequests)
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one completed analysis
func ObserveAnalysis(pair, signal string, started time.Time) {
	AnalysesTotal.WithLabelValues(pair, signal).Inc()
	AnalysisDuration.Observe(time.Since(started).Seconds())
}

// Instrument counts requests to route by status code
func Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
