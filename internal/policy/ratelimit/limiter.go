// Package ratelimit paces outbound requests per host: a token bucket enforces
// the minimum spacing and a random jitter spreads requests up to the maximum.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/puzzle-archive/internal/metrics"
)

// Config holds pacing bounds. MaxDelay below MinDelay is treated as MinDelay.
type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Pacer manages per-host request spacing.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
	spread   time.Duration
	jitter   func(time.Duration) time.Duration
}

// New creates a new Pacer.
func New(cfg Config) *Pacer {
	spread := cfg.MaxDelay - cfg.MinDelay
	if spread < 0 {
		spread = 0
	}
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		minDelay: cfg.MinDelay,
		spread:   spread,
		jitter:   uniformJitter,
	}
}

// Wait blocks until the next request to rawURL's host may go out. The first
// request to a host is never delayed.
func (p *Pacer) Wait(ctx context.Context, rawURL string) error {
	domain := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}
	p.mu.Lock()
	limiter, exists := p.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(p.minDelay), 1)
		p.limiters[domain] = limiter
	}
	p.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	if exists && p.spread > 0 {
		if err := sleep(ctx, p.jitter(p.spread)); err != nil {
			return fmt.Errorf("pacing jitter: %w", err)
		}
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObservePacingDelay(domain, waited)
	}
	return nil
}

func uniformJitter(spread time.Duration) time.Duration {
	return rand.N(spread)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
