// Package web serves the fxlens JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fxlens/internal/analyzer"
	"fxlens/internal/config"
	"fxlens/internal/metrics"
	"fxlens/internal/provider"
	"fxlens/internal/watch"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	provider provider.Provider
	analyzer *analyzer.TechnicalAnalyzer
	watcher  *watch.Watcher
	logger   zerolog.Logger
	now      func() time.Time
	srv      *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, p provider.Provider, a *analyzer.TechnicalAnalyzer, logger zerolog.Logger) *Server {
	return &Server{
		config:   cfg,
		provider: p,
		analyzer: a,
		logger:   logger,
		now:      time.Now,
	}
}

// SetWatcher exposes a running watcher's latest analyses on /api/watch
func (s *Server) SetWatcher(w *watch.Watcher) {
	s.watcher = w
}

// Handler builds the routed, wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/pairs", metrics.Instrument("pairs", s.handlePairs))
	mux.HandleFunc("/api/analysis/", metrics.Instrument("analysis", s.handleAnalysis))
	mux.HandleFunc("/api/rates", metrics.Instrument("rates", s.handleRates))
	mux.HandleFunc("/api/convert", metrics.Instrument("convert", s.handleConvert))
	mux.HandleFunc("/api/calc/", metrics.Instrument("calc", s.handleCalc))
	mux.HandleFunc("/api/market", metrics.Instrument("market", s.handleMarket))
	mux.HandleFunc("/api/watch", metrics.Instrument("watch", s.handleWatch))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var h http.Handler = mux
	if s.config.Web.JWTSecret != "" {
		h = authMiddleware([]byte(s.config.Web.JWTSecret), h)
	}
	h = corsMiddleware(h)
	h = s.requestIDMiddleware(h)
	return h
}

// Start listens on the configured address until Shutdown
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.config.Web.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info().
		Str("addr", s.config.Web.Addr).
		Bool("auth", s.config.Web.JWTSecret != "").
		Msg("starting API server")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers for browser clients
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the request ID stored by the middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDMiddleware tags each request with X-Request-ID, keeping a
// caller-supplied one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		s.logger.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// authMiddleware requires an HS256 bearer token on /api/ routes
func authMiddleware(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IssueToken signs an HS256 token for subject valid for ttl
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
