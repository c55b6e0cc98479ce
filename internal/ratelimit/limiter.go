// Package ratelimit throttles outbound calls to price providers.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const initialBackoff = 100 * time.Millisecond

// Limiter is a per-provider token bucket that also backs off after the
// upstream answers 429
type Limiter struct {
	limiter *rate.Limiter
	name    string

	mu      sync.Mutex
	backoff time.Duration
	limited bool
	maxWait time.Duration
}

// NewLimiter creates a limiter allowing perMinute requests per minute
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	rps := float64(perMinute) / 60.0
	// Burst of 1/10th of the per-minute limit, between 1 and 5
	burst := min(max(perMinute/10, 1), 5)

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
		backoff: initialBackoff,
		maxWait: 2 * time.Minute,
	}
}

// Wait blocks until a token is available, first sitting out any backoff
// left by a previous 429
func (l *Limiter) Wait(ctx context.Context) error {
	if d := l.pendingBackoff(); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may happen now
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SignalRateLimited doubles the backoff; call it on a 429 response
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limited {
		l.backoff *= 2
	}
	l.limited = true
	if l.backoff > l.maxWait {
		l.backoff = l.maxWait
	}
}

// ResetBackoff clears the backoff after a successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = initialBackoff
	l.limited = false
}

// GetBackoff returns the backoff Wait currently applies, zero when not limited
func (l *Limiter) GetBackoff() time.Duration {
	return l.pendingBackoff()
}

func (l *Limiter) pendingBackoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.limited {
		return 0
	}
	return l.backoff
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
